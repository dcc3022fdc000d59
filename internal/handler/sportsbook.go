package handler

import (
	"net/http"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/guard"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/go-chi/chi/v5"
)

// SportsbookHandler serves the match catalog, the bet slip and ticket confirmation.
type SportsbookHandler struct {
	sessions *session.Manager
	limiter  Limiter
	idem     guard.Idempotency
}

func NewSportsbookHandler(sessions *session.Manager, limiter Limiter, idem guard.Idempotency) *SportsbookHandler {
	return &SportsbookHandler{sessions: sessions, limiter: limiter, idem: idem}
}

// ListMatches handles GET /sportsbook/matches?sport=.
func (h *SportsbookHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	matches := s.Sports.Matches(domain.Sport(r.URL.Query().Get("sport")))
	RespondJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

type selectRequest struct {
	MatchID string `json:"match_id"`
	Outcome string `json:"outcome"`
}

type selectResponse struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
	Slip     any    `json:"slip"`
}

// Select handles POST /sportsbook/selections. Selecting the same outcome twice clears it.
func (h *SportsbookHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	outcome, err := domain.ParseOutcomeType(req.Outcome)
	if err != nil {
		RespondError(w, err)
		return
	}

	selected, err := s.Sports.Select(req.MatchID, outcome)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, selectResponse{
		Key:      domain.SelectionKey{MatchID: req.MatchID, Outcome: outcome}.String(),
		Selected: selected,
		Slip:     s.Sports.Quote(0),
	})
}

// Slip handles GET /sportsbook/slip?stake=.
func (h *SportsbookHandler) Slip(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	var stake int64
	if raw := r.URL.Query().Get("stake"); raw != "" {
		stake, err = domain.ParseStake(raw)
		if err != nil {
			RespondError(w, err)
			return
		}
		if stake < 0 {
			RespondError(w, domain.ErrInvalidStake("stake must not be negative"))
			return
		}
	}
	RespondJSON(w, http.StatusOK, s.Sports.Quote(stake))
}

// RemoveLine handles DELETE /sportsbook/slip/{key}.
func (h *SportsbookHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	key, err := domain.ParseSelectionKey(chi.URLParam(r, "key"))
	if err != nil {
		RespondError(w, err)
		return
	}
	if !s.Sports.RemoveLine(key) {
		RespondError(w, domain.ErrNotFound("bet line", key.String()))
		return
	}
	RespondJSON(w, http.StatusOK, s.Sports.Quote(0))
}

// ClearSlip handles DELETE /sportsbook/slip.
func (h *SportsbookHandler) ClearSlip(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	s.Sports.RemoveAll()
	RespondJSON(w, http.StatusOK, s.Sports.Quote(0))
}

type confirmRequest struct {
	Stake stakeInput `json:"stake"`
}

type ticketResponse struct {
	Ticket  *domain.Ticket `json:"ticket"`
	Balance int64          `json:"balance"`
}

// Confirm handles POST /sportsbook/slip/confirm. A repeated Idempotency-Key is rejected.
func (h *SportsbookHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req confirmRequest
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

	var idemKey string
	if k := r.Header.Get("Idempotency-Key"); k != "" && h.idem != nil {
		idemKey = s.ID + ":" + k
		if res := h.idem.Check(r.Context(), idemKey); !res.Allowed {
			RespondError(w, domain.ErrConflict(res.Reason))
			return
		}
	}

	ticket, err := h.sessions.ConfirmTicket(r.Context(), s, stake)
	if err != nil {
		if idemKey != "" {
			h.idem.Remove(r.Context(), idemKey)
		}
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, ticketResponse{Ticket: ticket, Balance: s.Ledger.Balance()})
}

// Tickets handles GET /sportsbook/tickets.
func (h *SportsbookHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"tickets": s.Sports.Tickets()})
}
