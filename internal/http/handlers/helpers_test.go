package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"parkwise/internal/models"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrUnknownCredential, http.StatusNotFound},
		{models.ErrNotParked, http.StatusNotFound},
		{models.ErrSessionNotFound, http.StatusNotFound},
		{models.ErrChargeNotFound, http.StatusNotFound},
		{models.ErrNoCredential, http.StatusBadRequest},
		{models.ErrCredentialExpired, http.StatusBadRequest},
		{models.ErrAlreadyParked, http.StatusBadRequest},
		{models.ErrNoSlotsAvailable, http.StatusBadRequest},
		{models.ErrBusy, http.StatusConflict},
		{models.ErrSlotNotOccupied, http.StatusInternalServerError},
		{errors.New("database broke"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStatusForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("release slot 3 for session 9: %w", models.ErrSlotNotOccupied)
	if got := statusForError(wrapped); got != http.StatusInternalServerError {
		t.Fatalf("expected wrapped consistency error to stay internal, got %d", got)
	}

	wrapped = fmt.Errorf("entry: %w", models.ErrAlreadyParked)
	if got := statusForError(wrapped); got != http.StatusBadRequest {
		t.Fatalf("expected wrapped precondition to map to 400, got %d", got)
	}
}
