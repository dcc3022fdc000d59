// Package settlement resolves a ladder or race bet against the ledger.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Crediter is the ledger side of settlement.
type Crediter interface {
	Credit(ctx context.Context, amount int64, ref string) int64
}

// Payout is stake × odds rounded half away from zero to a whole unit. Odds are
// taken at their shortest decimal form, so 100 × 1.005 pays 101.
func Payout(stake int64, odds float64) int64 {
	return decimal.NewFromInt(stake).Mul(decimal.NewFromFloat(odds)).Round(0).IntPart()
}

// Input describes a resolved round awaiting settlement.
type Input struct {
	SessionID string
	Mode      domain.Mode
	Round     int
	Selection string
	Outcome   string
	Stake     int64
	Odds      float64
	Won       bool
	// Headline names the outcome in the notification, e.g. "Snail 3 wins".
	Headline string
}

// Settle credits winnings when the bet won and notifies the player either way.
// The stake was debited at placement, so a loss touches no balance.
func Settle(ctx context.Context, ledger Crediter, sink notify.Sink, in Input) domain.RoundResult {
	roundID := uuid.New().String()
	result := domain.RoundResult{
		RoundID:   roundID,
		SessionID: in.SessionID,
		Mode:      in.Mode,
		Round:     in.Round,
		Selection: in.Selection,
		Outcome:   in.Outcome,
		Stake:     in.Stake,
		Odds:      in.Odds,
		Won:       in.Won,
		SettledAt: time.Now().UTC().Format(time.RFC3339),
	}

	var n domain.Notification
	if in.Won {
		result.Payout = Payout(in.Stake, in.Odds)
		ledger.Credit(ctx, result.Payout, fmt.Sprintf("%s:%d:win", in.Mode, in.Round))
		n = domain.NewNotification(domain.NotifySuccess,
			fmt.Sprintf("%s! %s won", in.Headline, domain.FormatAmount(result.Payout)))
	} else {
		n = domain.NewNotification(domain.NotifyError,
			fmt.Sprintf("%s. Better luck next round!", in.Headline))
	}
	sink.Notify(ctx, n)
	return result
}
