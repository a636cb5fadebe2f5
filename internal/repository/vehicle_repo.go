package repository

import (
	"context"
	"database/sql"
	"errors"

	"parkwise/internal/models"
)

// VehicleRepository resolves credentials and serves read-only vehicle views.
// The engine never writes through this repository; provisioning is external.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Resolve finds a vehicle by credential UID or plate number and returns its
// credential when one is bound. Returns models.ErrUnknownCredential when
// nothing matches.
func (r *VehicleRepository) Resolve(ctx context.Context, ref string) (*models.Vehicle, *models.Credential, error) {
	const query = `
		SELECT v.vehicle_id, v.plate_number, v.vehicle_type, v.color, v.owner_id, v.created_at,
		       t.tag_id, t.uid, t.issue_date, t.expiry_date
		FROM vehicles v
		LEFT JOIN rfid_tags t ON t.vehicle_id = v.vehicle_id
		WHERE t.uid = $1 OR v.plate_number = $1
	`
	var (
		v       models.Vehicle
		tagID   sql.NullInt64
		uid     sql.NullString
		issued  sql.NullTime
		expires sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, ref).Scan(
		&v.ID,
		&v.PlateNumber,
		&v.VehicleType,
		&v.Color,
		&v.OwnerID,
		&v.CreatedAt,
		&tagID,
		&uid,
		&issued,
		&expires,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, models.ErrUnknownCredential
	}
	if err != nil {
		return nil, nil, err
	}

	if !tagID.Valid {
		return &v, nil, nil
	}
	cred := &models.Credential{
		ID:        tagID.Int64,
		UID:       uid.String,
		VehicleID: v.ID,
		IssuedAt:  issued.Time,
		ExpiresAt: expires.Time,
	}
	return &v, cred, nil
}

// GetByID returns a single vehicle with its owner name.
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	const query = `
		SELECT v.vehicle_id, v.plate_number, v.vehicle_type, v.color, v.owner_id, o.name, v.created_at
		FROM vehicles v
		JOIN owners o ON o.owner_id = v.owner_id
		WHERE v.vehicle_id = $1
	`
	var v models.Vehicle
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&v.PlateNumber,
		&v.VehicleType,
		&v.Color,
		&v.OwnerID,
		&v.OwnerName,
		&v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns vehicles newest first.
func (r *VehicleRepository) List(ctx context.Context, limit int) ([]models.Vehicle, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT v.vehicle_id, v.plate_number, v.vehicle_type, v.color, v.owner_id, o.name, v.created_at
		FROM vehicles v
		JOIN owners o ON o.owner_id = v.owner_id
		ORDER BY v.vehicle_id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(
			&v.ID,
			&v.PlateNumber,
			&v.VehicleType,
			&v.Color,
			&v.OwnerID,
			&v.OwnerName,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}
