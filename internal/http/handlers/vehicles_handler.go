package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"parkwise/internal/repository"
)

// VehiclesHandler serves read-only directory views for the dashboard.
type VehiclesHandler struct {
	vehicles *repository.VehicleRepository
	logger   *zap.Logger
}

// NewVehiclesHandler builds handler set.
func NewVehiclesHandler(vehicles *repository.VehicleRepository, logger *zap.Logger) *VehiclesHandler {
	return &VehiclesHandler{
		vehicles: vehicles,
		logger:   logger,
	}
}

// HandleList handles GET /vehicles.
func (h *VehiclesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicles.List(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("list vehicles failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// HandleGet handles GET /vehicles/{id} and GET /vehicles/plate/{plate}.
func (h *VehiclesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/vehicles/")

	if plate, ok := strings.CutPrefix(raw, "plate/"); ok {
		vehicle, _, err := h.vehicles.Resolve(r.Context(), plate)
		if err != nil {
			h.respondLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}
	vehicle, err := h.vehicles.GetByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehiclesHandler) respondLookupError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("vehicle lookup failed", zap.Error(err))
		writeError(w, status, "failed to load vehicle")
		return
	}
	writeError(w, status, err.Error())
}
