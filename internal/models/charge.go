package models

import "time"

// Charge is the priced outcome of a closed session. Exactly one charge
// exists per closed session and it never changes afterwards.
type Charge struct {
	ID              int64     `db:"payment_id" json:"payment_id"`
	SessionID       int64     `db:"record_id" json:"record_id"`
	Amount          float64   `db:"amount" json:"amount"`
	DurationMinutes int64     `db:"duration_minutes" json:"duration_minutes"`
	Method          string    `db:"payment_method" json:"payment_method"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ChargeStats aggregates revenue for the dashboard.
type ChargeStats struct {
	TotalPayments  int     `json:"total_payments"`
	TotalRevenue   float64 `json:"total_revenue"`
	AveragePayment float64 `json:"average_payment"`
}
