package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkwise/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps domain errors to HTTP statuses. Anything unmapped is
// an internal error and must be logged by the caller.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownCredential),
		errors.Is(err, models.ErrVehicleNotFound),
		errors.Is(err, models.ErrSlotNotFound),
		errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrChargeNotFound),
		errors.Is(err, models.ErrNotParked):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNoCredential),
		errors.Is(err, models.ErrCredentialExpired),
		errors.Is(err, models.ErrAlreadyParked),
		errors.Is(err, models.ErrNoSlotsAvailable),
		errors.Is(err, models.ErrSlotOccupied):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
