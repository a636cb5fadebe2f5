package models

import "time"

// Slot status values.
const (
	SlotAvailable    = "available"
	SlotOccupied     = "occupied"
	SlotOutOfService = "out_of_service"
)

// Slot is a physical parking space with an hourly rate.
type Slot struct {
	ID          int64     `db:"slot_id" json:"slot_id"`
	SlotNo      string    `db:"slot_no" json:"slot_no"`
	SlotType    string    `db:"slot_type" json:"slot_type"`
	RatePerHour float64   `db:"rate" json:"rate"`
	Status      string    `db:"status" json:"status"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SlotStats is the availability breakdown shown on the dashboard.
type SlotStats struct {
	Total        int `json:"total"`
	Available    int `json:"available"`
	Occupied     int `json:"occupied"`
	OutOfService int `json:"out_of_service"`
}
