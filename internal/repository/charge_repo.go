package repository

import (
	"context"
	"database/sql"
	"errors"

	"parkwise/internal/models"
)

// ChargeRepository records the priced outcome of closed sessions. The unique
// constraint on record_id keeps a session from ever being charged twice.
type ChargeRepository struct {
	db *sql.DB
}

// NewChargeRepository returns repository.
func NewChargeRepository(db *sql.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Record stores a charge for a closed session.
func (r *ChargeRepository) Record(ctx context.Context, c *models.Charge) error {
	const query = `
		INSERT INTO payments (record_id, amount, duration_minutes, payment_method, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING payment_id, created_at
	`
	return r.db.QueryRowContext(ctx, query, c.SessionID, c.Amount, c.DurationMinutes, c.Method).
		Scan(&c.ID, &c.CreatedAt)
}

// GetBySession returns the charge for a session.
func (r *ChargeRepository) GetBySession(ctx context.Context, sessionID int64) (*models.Charge, error) {
	const query = `
		SELECT payment_id, record_id, amount, duration_minutes, payment_method, created_at
		FROM payments
		WHERE record_id = $1
	`
	var c models.Charge
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&c.ID,
		&c.SessionID,
		&c.Amount,
		&c.DurationMinutes,
		&c.Method,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrChargeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the newest charges.
func (r *ChargeRepository) List(ctx context.Context, limit int) ([]models.Charge, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT payment_id, record_id, amount, duration_minutes, payment_method, created_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []models.Charge
	for rows.Next() {
		var c models.Charge
		if err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.Amount,
			&c.DurationMinutes,
			&c.Method,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return charges, nil
}

// Stats aggregates revenue totals.
func (r *ChargeRepository) Stats(ctx context.Context) (*models.ChargeStats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0)
		FROM payments
	`
	var stats models.ChargeStats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalPayments,
		&stats.TotalRevenue,
		&stats.AveragePayment,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}
