package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"parkwise/internal/models"
	"parkwise/internal/repository"
)

// SlotsHandler serves slot views and the admin provisioning endpoints.
type SlotsHandler struct {
	slots  *repository.SlotRepository
	logger *zap.Logger
}

// NewSlotsHandler builds handler set.
func NewSlotsHandler(slots *repository.SlotRepository, logger *zap.Logger) *SlotsHandler {
	return &SlotsHandler{
		slots:  slots,
		logger: logger,
	}
}

type slotRequest struct {
	SlotNo      string  `json:"slot_no"`
	SlotType    string  `json:"slot_type"`
	RatePerHour float64 `json:"rate"`
	Status      string  `json:"status"`
}

func (req *slotRequest) validate() string {
	if strings.TrimSpace(req.SlotNo) == "" {
		return "slot_no is required"
	}
	if req.RatePerHour < 0 {
		return "rate must not be negative"
	}
	switch req.Status {
	case "", models.SlotAvailable, models.SlotOutOfService:
		return ""
	default:
		return "status must be available or out_of_service"
	}
}

// HandleList handles GET /slots.
func (h *SlotsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.List(r.Context(), false)
	if err != nil {
		h.logger.Error("list slots failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list slots")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// HandleAvailable handles GET /slots/available.
func (h *SlotsHandler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.List(r.Context(), true)
	if err != nil {
		h.logger.Error("list available slots failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list slots")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// HandleStats handles GET /slots/stats.
func (h *SlotsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.slots.Stats(r.Context())
	if err != nil {
		h.logger.Error("slot stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleCreate handles POST /slots.
func (h *SlotsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	slot := &models.Slot{
		SlotNo:      req.SlotNo,
		SlotType:    req.SlotType,
		RatePerHour: req.RatePerHour,
		Status:      req.Status,
	}
	if err := h.slots.Create(r.Context(), slot); err != nil {
		h.logger.Error("create slot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create slot")
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// HandleUpdate handles PUT /slots/{id}.
func (h *SlotsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := slotID(w, r)
	if !ok {
		return
	}
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	slot := &models.Slot{
		ID:          id,
		SlotNo:      req.SlotNo,
		SlotType:    req.SlotType,
		RatePerHour: req.RatePerHour,
		Status:      req.Status,
	}
	if slot.Status == "" {
		slot.Status = models.SlotAvailable
	}
	if err := h.slots.Update(r.Context(), slot); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("update slot failed", zap.Error(err))
			writeError(w, status, "failed to update slot")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "slot updated"})
}

// HandleDelete handles DELETE /slots/{id}.
func (h *SlotsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := slotID(w, r)
	if !ok {
		return
	}
	if err := h.slots.Delete(r.Context(), id); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("delete slot failed", zap.Error(err))
			writeError(w, status, "failed to delete slot")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "slot deleted"})
}

func slotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/slots/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return 0, false
	}
	return id, true
}
