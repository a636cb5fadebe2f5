package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkwise/internal/models"
)

// FineRepository stores violation fines created by the reporting workflow.
type FineRepository struct {
	db *sql.DB
}

// NewFineRepository returns repository.
func NewFineRepository(db *sql.DB) *FineRepository {
	return &FineRepository{db: db}
}

// Create inserts a fine and its reason rows in one transaction.
func (r *FineRepository) Create(ctx context.Context, fine *models.Fine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const fineQuery = `
		INSERT INTO fines (record_id, fine_amount, violation_date)
		VALUES ($1, $2, $3)
		RETURNING fine_id
	`
	if err := tx.QueryRowContext(ctx, fineQuery, fine.SessionID, fine.Amount, fine.ViolationDate).
		Scan(&fine.ID); err != nil {
		return fmt.Errorf("fine insert: %w", err)
	}

	const reasonQuery = `INSERT INTO fine_reasons (fine_id, reason) VALUES ($1, $2)`
	for _, reason := range fine.Reasons {
		if _, err := tx.ExecContext(ctx, reasonQuery, fine.ID, reason); err != nil {
			return fmt.Errorf("fine reason insert: %w", err)
		}
	}

	return tx.Commit()
}

// List returns fines newest first with their reasons and plate numbers.
func (r *FineRepository) List(ctx context.Context, limit int) ([]models.Fine, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT f.fine_id, f.record_id, f.fine_amount, f.violation_date, v.plate_number
		FROM fines f
		JOIN parking_records pr ON pr.record_id = f.record_id
		JOIN vehicles v ON v.vehicle_id = pr.vehicle_id
		ORDER BY f.violation_date DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fines []models.Fine
	for rows.Next() {
		var f models.Fine
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Amount, &f.ViolationDate, &f.PlateNumber); err != nil {
			return nil, err
		}
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range fines {
		reasons, err := r.reasons(ctx, fines[i].ID)
		if err != nil {
			return nil, err
		}
		fines[i].Reasons = reasons
	}
	return fines, nil
}

func (r *FineRepository) reasons(ctx context.Context, fineID int64) ([]string, error) {
	const query = `SELECT reason FROM fine_reasons WHERE fine_id = $1 ORDER BY fine_reason_id`
	rows, err := r.db.QueryContext(ctx, query, fineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			return nil, err
		}
		reasons = append(reasons, reason)
	}
	return reasons, rows.Err()
}

// Stats aggregates fine totals.
func (r *FineRepository) Stats(ctx context.Context) (*models.FineStats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(fine_amount), 0), COALESCE(AVG(fine_amount), 0)
		FROM fines
	`
	var stats models.FineStats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalFines,
		&stats.TotalFineAmount,
		&stats.AverageFine,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}
