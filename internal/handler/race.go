package handler

import (
	"net/http"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/race"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/go-chi/chi/v5"
)

// RaceHandler serves the snail and horse races.
type RaceHandler struct {
	sessions *session.Manager
	limiter  Limiter
}

func NewRaceHandler(sessions *session.Manager, limiter Limiter) *RaceHandler {
	return &RaceHandler{sessions: sessions, limiter: limiter}
}

func (h *RaceHandler) game(r *http.Request) (*session.Session, domain.Mode, *race.Game, error) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		return nil, "", nil, err
	}
	mode, err := domain.ParseMode(chi.URLParam(r, "variant"))
	if err != nil {
		return nil, "", nil, err
	}
	g, err := s.Race(mode)
	if err != nil {
		return nil, "", nil, err
	}
	return s, mode, g, nil
}

type raceBetRequest struct {
	Competitor int        `json:"competitor"`
	Stake      stakeInput `json:"stake"`
}

// PlaceBet handles POST /races/{variant}/bets.
func (h *RaceHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	s, mode, _, err := h.game(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req raceBetRequest
	if err := decodeBody(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	stake, err := req.Stake.resolve(s.Ledger.Balance())
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := allowBet(r.Context(), h.limiter, s.ID); err != nil {
		RespondError(w, err)
		return
	}

	snap, err := h.sessions.PlaceRaceBet(r.Context(), s, mode, req.Competitor, stake)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, snap)
}

// State handles GET /races/{variant}/state, advancing the race to now.
func (h *RaceHandler) State(w http.ResponseWriter, r *http.Request) {
	s, mode, g, err := h.game(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.sessions.Sync(r.Context(), s, mode)
	RespondJSON(w, http.StatusOK, g.Snapshot())
}
