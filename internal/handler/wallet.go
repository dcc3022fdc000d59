package handler

import (
	"net/http"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/session"
)

// WalletHandler serves the session balance.
type WalletHandler struct {
	sessions *session.Manager
}

func NewWalletHandler(sessions *session.Manager) *WalletHandler {
	return &WalletHandler{sessions: sessions}
}

type balanceResponse struct {
	Balance   int64  `json:"balance"`
	Formatted string `json:"formatted"`
}

func newBalanceResponse(balance int64) balanceResponse {
	return balanceResponse{Balance: balance, Formatted: domain.FormatAmount(balance)}
}

// GetBalance handles GET /wallet/balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, newBalanceResponse(s.Ledger.Balance()))
}

// Reset handles POST /wallet/reset. Rounds in flight keep their debited stakes.
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, newBalanceResponse(s.Ledger.Reset(r.Context())))
}

// QuickStakes handles GET /wallet/quick-stakes.
func (h *WalletHandler) QuickStakes(w http.ResponseWriter, r *http.Request) {
	s, err := currentSession(r, h.sessions)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"quick_stakes": domain.ResolveQuickStakes(s.Ledger.Balance()),
	})
}
