package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"parkwise/internal/models"
	"parkwise/internal/repository"
)

// FinesHandler is the reporting path: fines reference sessions produced by
// the engine but are created here, outside the engine's write path.
type FinesHandler struct {
	fines    *repository.FineRepository
	sessions *repository.SessionRepository
	logger   *zap.Logger
}

// NewFinesHandler builds handler set.
func NewFinesHandler(fines *repository.FineRepository, sessions *repository.SessionRepository, logger *zap.Logger) *FinesHandler {
	return &FinesHandler{
		fines:    fines,
		sessions: sessions,
		logger:   logger,
	}
}

type fineRequest struct {
	SessionID     int64     `json:"record_id"`
	Amount        float64   `json:"fine_amount"`
	ViolationDate time.Time `json:"violation_date"`
	Reasons       []string  `json:"reasons"`
}

// HandleCreate handles POST /fines. The referenced session must exist.
func (h *FinesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req fineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "record_id is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "fine_amount must be positive")
		return
	}
	if req.ViolationDate.IsZero() {
		req.ViolationDate = time.Now().UTC()
	}

	if _, err := h.sessions.GetByID(r.Context(), req.SessionID); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("fine session lookup failed", zap.Error(err))
			writeError(w, status, "failed to create fine")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	fine := &models.Fine{
		SessionID:     req.SessionID,
		Amount:        req.Amount,
		ViolationDate: req.ViolationDate,
		Reasons:       req.Reasons,
	}
	if err := h.fines.Create(r.Context(), fine); err != nil {
		h.logger.Error("create fine failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create fine")
		return
	}
	writeJSON(w, http.StatusCreated, fine)
}

// HandleList handles GET /fines.
func (h *FinesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	fines, err := h.fines.List(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("list fines failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list fines")
		return
	}
	writeJSON(w, http.StatusOK, fines)
}

// HandleStats handles GET /fines/stats.
func (h *FinesHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.fines.Stats(r.Context())
	if err != nil {
		h.logger.Error("fine stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
