package models

import "time"

// Fine is a violation penalty referencing a session. Fines are created by
// the reporting workflow, never by the session engine itself.
type Fine struct {
	ID            int64     `db:"fine_id" json:"fine_id"`
	SessionID     int64     `db:"record_id" json:"record_id"`
	Amount        float64   `db:"fine_amount" json:"fine_amount"`
	ViolationDate time.Time `db:"violation_date" json:"violation_date"`
	Reasons       []string  `json:"reasons"`

	PlateNumber string `json:"plate_number,omitempty"`
}

// FineStats aggregates fines for the dashboard.
type FineStats struct {
	TotalFines      int     `json:"total_fines"`
	TotalFineAmount float64 `json:"total_fine_amount"`
	AverageFine     float64 `json:"average_fine"`
}
