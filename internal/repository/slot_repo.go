package repository

import (
	"context"
	"database/sql"
	"errors"

	"parkwise/internal/models"
)

// SlotRepository is the slot pool. Allocation and release are single
// statements so the available -> occupied transition can never race.
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository returns repository.
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Allocate claims the lowest-numbered available slot and marks it occupied.
// SKIP LOCKED keeps concurrent gates from contending on the same row; each
// caller claims a distinct slot or gets models.ErrNoSlotsAvailable.
func (r *SlotRepository) Allocate(ctx context.Context) (*models.Slot, error) {
	const query = `
		UPDATE parking_slots
		SET status = 'occupied', updated_at = NOW()
		WHERE slot_id = (
			SELECT slot_id FROM parking_slots
			WHERE status = 'available'
			ORDER BY slot_id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING slot_id, slot_no, slot_type, rate, status, updated_at
	`
	var s models.Slot
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.ID,
		&s.SlotNo,
		&s.SlotType,
		&s.RatePerHour,
		&s.Status,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoSlotsAvailable
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Release transitions a slot occupied -> available. A zero-row update means
// the slot was not occupied, which indicates the ledger and the pool have
// diverged; that is surfaced as models.ErrSlotNotOccupied.
func (r *SlotRepository) Release(ctx context.Context, slotID int64) error {
	const query = `
		UPDATE parking_slots
		SET status = 'available', updated_at = NOW()
		WHERE slot_id = $1 AND status = 'occupied'
	`
	result, err := r.db.ExecContext(ctx, query, slotID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrSlotNotOccupied
	}
	return nil
}

// GetByID returns a single slot.
func (r *SlotRepository) GetByID(ctx context.Context, slotID int64) (*models.Slot, error) {
	const query = `
		SELECT slot_id, slot_no, slot_type, rate, status, updated_at
		FROM parking_slots
		WHERE slot_id = $1
	`
	var s models.Slot
	err := r.db.QueryRowContext(ctx, query, slotID).Scan(
		&s.ID,
		&s.SlotNo,
		&s.SlotType,
		&s.RatePerHour,
		&s.Status,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all slots ordered by slot number. When availableOnly is set
// only available slots are returned.
func (r *SlotRepository) List(ctx context.Context, availableOnly bool) ([]models.Slot, error) {
	query := `
		SELECT slot_id, slot_no, slot_type, rate, status, updated_at
		FROM parking_slots
		ORDER BY slot_no
	`
	if availableOnly {
		query = `
			SELECT slot_id, slot_no, slot_type, rate, status, updated_at
			FROM parking_slots
			WHERE status = 'available'
			ORDER BY slot_no
		`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(
			&s.ID,
			&s.SlotNo,
			&s.SlotType,
			&s.RatePerHour,
			&s.Status,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// Stats returns the availability breakdown.
func (r *SlotRepository) Stats(ctx context.Context) (*models.SlotStats, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'available'),
		       COUNT(*) FILTER (WHERE status = 'occupied'),
		       COUNT(*) FILTER (WHERE status = 'out_of_service')
		FROM parking_slots
	`
	var stats models.SlotStats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Available,
		&stats.Occupied,
		&stats.OutOfService,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Create adds a new slot (admin provisioning path).
func (r *SlotRepository) Create(ctx context.Context, s *models.Slot) error {
	const query = `
		INSERT INTO parking_slots (slot_no, slot_type, rate, status, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING slot_id, updated_at
	`
	status := s.Status
	if status == "" {
		status = models.SlotAvailable
	}
	return r.db.QueryRowContext(ctx, query, s.SlotNo, s.SlotType, s.RatePerHour, status).
		Scan(&s.ID, &s.UpdatedAt)
}

// Update edits slot metadata. The occupied status is owned by the engine and
// cannot be set through this path.
func (r *SlotRepository) Update(ctx context.Context, s *models.Slot) error {
	const query = `
		UPDATE parking_slots
		SET slot_no = $2, slot_type = $3, rate = $4, status = $5, updated_at = NOW()
		WHERE slot_id = $1 AND status <> 'occupied'
	`
	result, err := r.db.ExecContext(ctx, query, s.ID, s.SlotNo, s.SlotType, s.RatePerHour, s.Status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.blockedReason(ctx, s.ID)
	}
	return nil
}

// Delete removes a slot unless it is currently occupied.
func (r *SlotRepository) Delete(ctx context.Context, slotID int64) error {
	const query = `DELETE FROM parking_slots WHERE slot_id = $1 AND status <> 'occupied'`
	result, err := r.db.ExecContext(ctx, query, slotID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.blockedReason(ctx, slotID)
	}
	return nil
}

// blockedReason tells a zero-row mutation apart: missing slot vs occupied.
func (r *SlotRepository) blockedReason(ctx context.Context, slotID int64) error {
	if _, err := r.GetByID(ctx, slotID); err != nil {
		return err
	}
	return models.ErrSlotOccupied
}
