package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"parkwise/internal/repository"
)

// SessionsHandler serves read-only session history views.
type SessionsHandler struct {
	sessions *repository.SessionRepository
	logger   *zap.Logger
}

// NewSessionsHandler builds handler set.
func NewSessionsHandler(sessions *repository.SessionRepository, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

// HandleRecent handles GET /parking.
func (h *SessionsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListRecent(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("list recent sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleActive handles GET /parking/active.
func (h *SessionsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListActive(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("list active sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleHistory handles GET /parking/history/{plate}.
func (h *SessionsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	plate := strings.TrimPrefix(r.URL.Path, "/parking/history/")
	if plate == "" || strings.Contains(plate, "/") {
		writeError(w, http.StatusBadRequest, "plate is required")
		return
	}
	sessions, err := h.sessions.HistoryByPlate(r.Context(), plate, limitParam(r))
	if err != nil {
		h.logger.Error("session history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
