package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"parkwise/internal/repository"
)

// PaymentsHandler serves recorded charges.
type PaymentsHandler struct {
	charges *repository.ChargeRepository
	logger  *zap.Logger
}

// NewPaymentsHandler builds handler set.
func NewPaymentsHandler(charges *repository.ChargeRepository, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		charges: charges,
		logger:  logger,
	}
}

// HandleList handles GET /payments.
func (h *PaymentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	charges, err := h.charges.List(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("list payments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	writeJSON(w, http.StatusOK, charges)
}

// HandleBySession handles GET /payments/record/{sessionID}.
func (h *PaymentsHandler) HandleBySession(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/payments/record/")
	sessionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sessionID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	charge, err := h.charges.GetBySession(r.Context(), sessionID)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("get payment failed", zap.Error(err))
			writeError(w, status, "failed to load payment")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, charge)
}

// HandleStats handles GET /payments/stats.
func (h *PaymentsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.charges.Stats(r.Context())
	if err != nil {
		h.logger.Error("payment stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
