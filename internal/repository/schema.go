package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema statements are idempotent and applied in order at startup. The
// partial unique index on open parking records is what makes "one open
// session per vehicle" hold under concurrent inserts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		owner_id   BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id   BIGSERIAL PRIMARY KEY,
		plate_number TEXT NOT NULL UNIQUE,
		vehicle_type TEXT NOT NULL DEFAULT '',
		color        TEXT NOT NULL DEFAULT '',
		owner_id     BIGINT NOT NULL REFERENCES owners(owner_id),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rfid_tags (
		tag_id      BIGSERIAL PRIMARY KEY,
		uid         TEXT NOT NULL UNIQUE,
		vehicle_id  BIGINT NOT NULL UNIQUE REFERENCES vehicles(vehicle_id),
		issue_date  TIMESTAMPTZ NOT NULL,
		expiry_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS parking_slots (
		slot_id    BIGSERIAL PRIMARY KEY,
		slot_no    TEXT NOT NULL UNIQUE,
		slot_type  TEXT NOT NULL DEFAULT 'standard',
		rate       NUMERIC(10,2) NOT NULL DEFAULT 0,
		status     TEXT NOT NULL DEFAULT 'available',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS parking_records (
		record_id        BIGSERIAL PRIMARY KEY,
		vehicle_id       BIGINT NOT NULL REFERENCES vehicles(vehicle_id),
		slot_id          BIGINT NOT NULL REFERENCES parking_slots(slot_id),
		entry_time       TIMESTAMPTZ NOT NULL,
		exit_time        TIMESTAMPTZ,
		duration_minutes BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS parking_records_open_vehicle
		ON parking_records (vehicle_id) WHERE exit_time IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS parking_records_open_slot
		ON parking_records (slot_id) WHERE exit_time IS NULL`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id       BIGSERIAL PRIMARY KEY,
		record_id        BIGINT NOT NULL UNIQUE REFERENCES parking_records(record_id),
		amount           NUMERIC(10,2) NOT NULL,
		duration_minutes BIGINT NOT NULL,
		payment_method   TEXT NOT NULL DEFAULT 'cash',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS fines (
		fine_id        BIGSERIAL PRIMARY KEY,
		record_id      BIGINT NOT NULL REFERENCES parking_records(record_id),
		fine_amount    NUMERIC(10,2) NOT NULL,
		violation_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fine_reasons (
		fine_reason_id BIGSERIAL PRIMARY KEY,
		fine_id        BIGINT NOT NULL REFERENCES fines(fine_id) ON DELETE CASCADE,
		reason         TEXT NOT NULL
	)`,
}

// EnsureSchema creates tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: ensure schema: %w", err)
		}
	}
	return nil
}
