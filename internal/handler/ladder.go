package handler

import (
	"net/http"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ladder"
	"github.com/attaboy/faketoto/internal/session"
)

// LadderHandler serves the ladder game.
type LadderHandler struct {
	sessions *session.Manager
	limiter  Limiter
}

func NewLadderHandler(sessions *session.Manager, limiter Limiter) *LadderHandler {
	return &LadderHandler{sessions: sessions, limiter: limiter}
}

type ladderBetRequest struct {
	Side  string     `json:"side"`
	Stake stakeInput `json:"stake"`
}

// PlaceBet handles POST /ladder/bets.
func (h *LadderHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req ladderBetRequest
	if err := decodeBody(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	side, err := ladder.ParseSide(req.Side)
	if err != nil {
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

	snap, err := h.sessions.PlaceLadderBet(r.Context(), s, side, stake)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, snap)
}

// State handles GET /ladder/state, advancing the round to now.
func (h *LadderHandler) State(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.sessions.Sync(r.Context(), s, domain.ModeLadder)
	RespondJSON(w, http.StatusOK, s.Ladder.Snapshot())
}
