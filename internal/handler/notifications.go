package handler

import (
	"log/slog"
	"net/http"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/infra"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// NotificationHandler serves the session inbox and its live stream.
type NotificationHandler struct {
	sessions *session.Manager
	hub      *infra.WSHub
	logger   *slog.Logger
}

func NewNotificationHandler(sessions *session.Manager, hub *infra.WSHub, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sessions: sessions, hub: hub, logger: logger}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"notifications": s.Inbox.List()})
}

// Dismiss handles DELETE /notifications/{id}.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("notification id must be a uuid"))
		return
	}
	if !s.Inbox.Dismiss(id) {
		RespondError(w, domain.ErrNotFound("notification", id.String()))
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}

// Stream handles GET /notifications/stream: a WebSocket carrying the session's
// notifications. Browsers pass the token as the access_token query parameter.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	// On failure the upgrader has already written the HTTP error.
	if err := h.hub.ServeSession(r.Context(), w, r, s.ID); err != nil {
		h.logger.Debug("notification stream upgrade failed", "session_id", s.ID, "error", err)
	}
}
