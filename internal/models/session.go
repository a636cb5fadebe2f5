package models

import "time"

// Session is one continuous parked interval for a vehicle in a slot.
// ExitTime is nil while the vehicle is still parked. Sessions are never
// deleted; closed sessions are terminal history.
type Session struct {
	ID              int64      `db:"record_id" json:"record_id"`
	VehicleID       int64      `db:"vehicle_id" json:"vehicle_id"`
	SlotID          int64      `db:"slot_id" json:"slot_id"`
	EntryTime       time.Time  `db:"entry_time" json:"entry_time"`
	ExitTime        *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	DurationMinutes int64      `db:"duration_minutes" json:"duration_minutes"`

	// Joined view fields, populated by list queries.
	PlateNumber string  `json:"plate_number,omitempty"`
	SlotNo      string  `json:"slot_no,omitempty"`
	RatePerHour float64 `json:"rate,omitempty"`
}

// Open reports whether the session is still running.
func (s *Session) Open() bool {
	return s.ExitTime == nil
}
