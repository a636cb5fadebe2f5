package models

import "errors"

// Domain errors returned across the engine boundary. Handlers map these to
// HTTP statuses; everything else is treated as internal.
var (
	// Not found.
	ErrUnknownCredential = errors.New("credential not recognized")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrChargeNotFound    = errors.New("charge not found")

	// Precondition failed.
	ErrNoCredential      = errors.New("vehicle has no credential")
	ErrCredentialExpired = errors.New("credential expired")
	ErrAlreadyParked     = errors.New("vehicle already parked")
	ErrNoSlotsAvailable  = errors.New("no slots available")
	ErrNotParked         = errors.New("vehicle not parked")
	ErrSlotOccupied      = errors.New("slot occupied")

	// Conflict / race. ErrSessionConflict is transient (lost race on the
	// ledger); ErrBusy is what callers see once the retry budget is spent.
	ErrSessionConflict = errors.New("session conflict")
	ErrBusy            = errors.New("busy, try again")

	// Internal consistency. Releasing a slot that is not occupied means the
	// ledger and the slot pool disagree; it must be surfaced, not swallowed.
	ErrSlotNotOccupied = errors.New("slot not occupied")
)
