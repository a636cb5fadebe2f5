package models

import "time"

// Vehicle is a registered vehicle belonging to an owner.
type Vehicle struct {
	ID          int64     `db:"vehicle_id" json:"vehicle_id"`
	PlateNumber string    `db:"plate_number" json:"plate_number"`
	VehicleType string    `db:"vehicle_type" json:"vehicle_type"`
	Color       string    `db:"color" json:"color"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	OwnerName   string    `db:"owner_name" json:"owner_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
