package models

import "time"

// Credential is an RFID/QR tag bound one-to-one to a vehicle. The engine
// only ever reads credentials; provisioning happens elsewhere.
type Credential struct {
	ID        int64     `db:"tag_id" json:"tag_id"`
	UID       string    `db:"uid" json:"uid"`
	VehicleID int64     `db:"vehicle_id" json:"vehicle_id"`
	IssuedAt  time.Time `db:"issue_date" json:"issue_date"`
	ExpiresAt time.Time `db:"expiry_date" json:"expiry_date"`
}

// ValidAt reports whether the credential's validity window covers t.
func (c *Credential) ValidAt(t time.Time) bool {
	return !t.Before(c.IssuedAt) && !t.After(c.ExpiresAt)
}
