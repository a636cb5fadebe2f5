package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"parkwise/internal/models"
)

const uniqueViolation = "23505"

// SessionRepository is the session ledger: one row per vehicle stay. The
// partial unique index on open records makes concurrent opens for the same
// vehicle fail with a unique violation instead of double-parking it.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Open creates an open session for the vehicle. A unique violation means a
// concurrent open won the race; that is reported as models.ErrSessionConflict
// so the coordinator can compensate and retry.
func (r *SessionRepository) Open(ctx context.Context, vehicleID, slotID int64, at time.Time) (*models.Session, error) {
	const query = `
		INSERT INTO parking_records (vehicle_id, slot_id, entry_time)
		VALUES ($1, $2, $3)
		RETURNING record_id
	`
	session := &models.Session{
		VehicleID: vehicleID,
		SlotID:    slotID,
		EntryTime: at.UTC(),
	}
	err := r.db.QueryRowContext(ctx, query, vehicleID, slotID, session.EntryTime).Scan(&session.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.ErrSessionConflict
		}
		return nil, err
	}
	return session, nil
}

// Close stamps the exit time on the vehicle's open session exactly once and
// returns the closed session. Billable duration is whole minutes rounded up
// with a one minute floor, matching the fee calculator.
func (r *SessionRepository) Close(ctx context.Context, vehicleID int64, at time.Time) (*models.Session, error) {
	const query = `
		UPDATE parking_records
		SET exit_time = $2,
		    duration_minutes = GREATEST(1, CEIL(EXTRACT(EPOCH FROM ($2::timestamptz - entry_time)) / 60.0))::bigint
		WHERE vehicle_id = $1 AND exit_time IS NULL
		RETURNING record_id, vehicle_id, slot_id, entry_time, exit_time, duration_minutes
	`
	var s models.Session
	err := r.db.QueryRowContext(ctx, query, vehicleID, at.UTC()).Scan(
		&s.ID,
		&s.VehicleID,
		&s.SlotID,
		&s.EntryTime,
		&s.ExitTime,
		&s.DurationMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotParked
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOpen returns the vehicle's open session, or nil when it is not parked.
func (r *SessionRepository) FindOpen(ctx context.Context, vehicleID int64) (*models.Session, error) {
	const query = `
		SELECT pr.record_id, pr.vehicle_id, pr.slot_id, pr.entry_time, pr.exit_time,
		       pr.duration_minutes, v.plate_number, ps.slot_no, ps.rate
		FROM parking_records pr
		JOIN vehicles v ON v.vehicle_id = pr.vehicle_id
		JOIN parking_slots ps ON ps.slot_id = pr.slot_id
		WHERE pr.vehicle_id = $1 AND pr.exit_time IS NULL
	`
	var s models.Session
	err := r.db.QueryRowContext(ctx, query, vehicleID).Scan(
		&s.ID,
		&s.VehicleID,
		&s.SlotID,
		&s.EntryTime,
		&s.ExitTime,
		&s.DurationMinutes,
		&s.PlateNumber,
		&s.SlotNo,
		&s.RatePerHour,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a single session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	const query = `
		SELECT record_id, vehicle_id, slot_id, entry_time, exit_time, duration_minutes
		FROM parking_records
		WHERE record_id = $1
	`
	var s models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.VehicleID,
		&s.SlotID,
		&s.EntryTime,
		&s.ExitTime,
		&s.DurationMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRecent returns the newest sessions, open first, with live duration for
// open ones.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT pr.record_id, pr.vehicle_id, pr.slot_id, pr.entry_time, pr.exit_time,
		       GREATEST(pr.duration_minutes, CEIL(EXTRACT(EPOCH FROM (COALESCE(pr.exit_time, NOW()) - pr.entry_time)) / 60.0))::bigint,
		       v.plate_number, ps.slot_no, ps.rate
		FROM parking_records pr
		JOIN vehicles v ON v.vehicle_id = pr.vehicle_id
		JOIN parking_slots ps ON ps.slot_id = pr.slot_id
		ORDER BY pr.entry_time DESC
		LIMIT $1
	`
	return r.querySessions(ctx, query, limit)
}

// ListActive returns open sessions newest first.
func (r *SessionRepository) ListActive(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT pr.record_id, pr.vehicle_id, pr.slot_id, pr.entry_time, pr.exit_time,
		       CEIL(EXTRACT(EPOCH FROM (NOW() - pr.entry_time)) / 60.0)::bigint,
		       v.plate_number, ps.slot_no, ps.rate
		FROM parking_records pr
		JOIN vehicles v ON v.vehicle_id = pr.vehicle_id
		JOIN parking_slots ps ON ps.slot_id = pr.slot_id
		WHERE pr.exit_time IS NULL
		ORDER BY pr.entry_time DESC
		LIMIT $1
	`
	return r.querySessions(ctx, query, limit)
}

// HistoryByPlate returns all sessions for a plate, newest first.
func (r *SessionRepository) HistoryByPlate(ctx context.Context, plate string, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT pr.record_id, pr.vehicle_id, pr.slot_id, pr.entry_time, pr.exit_time,
		       pr.duration_minutes, v.plate_number, ps.slot_no, ps.rate
		FROM parking_records pr
		JOIN vehicles v ON v.vehicle_id = pr.vehicle_id
		JOIN parking_slots ps ON ps.slot_id = pr.slot_id
		WHERE v.plate_number = $1
		ORDER BY pr.entry_time DESC
		LIMIT $2
	`
	return r.querySessions(ctx, query, plate, limit)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID,
			&s.VehicleID,
			&s.SlotID,
			&s.EntryTime,
			&s.ExitTime,
			&s.DurationMinutes,
			&s.PlateNumber,
			&s.SlotNo,
			&s.RatePerHour,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
