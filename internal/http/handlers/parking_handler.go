package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"parkwise/internal/service"
)

// ParkingHandler exposes the entry/exit/status engine operations.
type ParkingHandler struct {
	svc    *service.ParkingService
	logger *zap.Logger
}

// NewParkingHandler builds handler set.
func NewParkingHandler(svc *service.ParkingService, logger *zap.Logger) *ParkingHandler {
	return &ParkingHandler{
		svc:    svc,
		logger: logger,
	}
}

type entryRequest struct {
	Credential string `json:"credential"`
}

type exitRequest struct {
	Credential    string `json:"credential"`
	PaymentMethod string `json:"payment_method"`
}

// HandleEntry handles POST /parking/entry.
func (h *ParkingHandler) HandleEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Credential) == "" {
		writeError(w, http.StatusBadRequest, "credential is required")
		return
	}

	session, err := h.svc.Entry(r.Context(), req.Credential)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("entry failed", zap.Error(err))
			writeError(w, status, "failed to park vehicle")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "vehicle parked",
		"session": session,
	})
}

// HandleExit handles POST /parking/exit.
func (h *ParkingHandler) HandleExit(w http.ResponseWriter, r *http.Request) {
	var req exitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Credential) == "" {
		writeError(w, http.StatusBadRequest, "credential is required")
		return
	}

	session, charge, err := h.svc.Exit(r.Context(), req.Credential, req.PaymentMethod)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("exit failed", zap.Error(err))
			writeError(w, status, "failed to exit vehicle")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "vehicle exited",
		"session": session,
		"charge":  charge,
	})
}

// HandleStatus handles GET /parking/status/{ref}.
func (h *ParkingHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimPrefix(r.URL.Path, "/parking/status/")
	if ref == "" || strings.Contains(ref, "/") {
		writeError(w, http.StatusBadRequest, "credential or plate is required")
		return
	}

	status, err := h.svc.Status(r.Context(), ref)
	if err != nil {
		code := statusForError(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("status query failed", zap.Error(err))
			writeError(w, code, "failed to query status")
			return
		}
		writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}
