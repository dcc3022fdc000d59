package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/attaboy/faketoto/internal/auth"
	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// currentSession returns the caller's session, reopening it from persisted
// state when this process has not seen it yet.
func currentSession(r *http.Request, sessions *session.Manager) (*session.Session, error) {
	id := auth.SessionIDFromContext(r.Context())
	if id == "" {
		return nil, domain.ErrUnauthorized("no session in context")
	}
	s, err := sessions.Open(r.Context(), id)
	if err != nil {
		return nil, domain.ErrInternal("open session", err)
	}
	return s, nil
}

// SessionHandler creates sessions and exposes the mode selector.
type SessionHandler struct {
	sessions *session.Manager
	jwt      *auth.JWTManager
	limiter  Limiter
}

func NewSessionHandler(sessions *session.Manager, jwt *auth.JWTManager, limiter Limiter) *SessionHandler {
	return &SessionHandler{sessions: sessions, jwt: jwt, limiter: limiter}
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Balance   int64  `json:"balance"`
}

// Create handles POST /sessions. An existing session_id resumes that session's balance.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			RespondError(w, domain.ErrValidation("session_id must be a uuid"))
			return
		}
	}

	s, err := h.sessions.Open(r.Context(), req.SessionID)
	if err != nil {
		RespondError(w, domain.ErrInternal("open session", err))
		return
	}
	token, err := h.jwt.GenerateToken(s.ID)
	if err != nil {
		RespondError(w, domain.ErrInternal("issue token", err))
		return
	}

	RespondJSON(w, http.StatusCreated, sessionResponse{
		SessionID: s.ID,
		Token:     token,
		Balance:   s.Ledger.Balance(),
	})
}

// Close handles DELETE /sessions/me.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := auth.SessionIDFromContext(r.Context())
	h.sessions.Close(id)
	forgetSession(h.limiter, id)
	RespondJSON(w, http.StatusNoContent, nil)
}

// ListModes handles GET /modes.
func (h *SessionHandler) ListModes(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{"modes": domain.Modes})
}

// Mode handles GET /modes/{mode}: the selected mode's current state.
func (h *SessionHandler) Mode(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	name := chi.URLParam(r, "mode")
	if mode, err := domain.ParseMode(name); err == nil {
		h.sessions.Sync(r.Context(), s, mode)
	}
	state, err := s.Mode(name)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, state)
}
