package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SelectionKey identifies one outcome of one match. It keys both the
// selection set and the bet line set.
type SelectionKey struct {
	MatchID string      `json:"match_id"`
	Outcome OutcomeType `json:"outcome"`
}

func (k SelectionKey) String() string {
	return k.MatchID + "-" + string(k.Outcome)
}

// ParseSelectionKey parses the "<matchId>-<outcome>" form. Match ids may contain dashes.
func ParseSelectionKey(s string) (SelectionKey, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return SelectionKey{}, ErrValidation(fmt.Sprintf("malformed selection key %q", s))
	}
	outcome, err := ParseOutcomeType(s[i+1:])
	if err != nil {
		return SelectionKey{}, err
	}
	return SelectionKey{MatchID: s[:i], Outcome: outcome}, nil
}

// BetLine is one chosen outcome within a ticket.
type BetLine struct {
	Key       SelectionKey `json:"key"`
	MatchID   string       `json:"match_id"`
	HomeTeam  string       `json:"home_team"`
	AwayTeam  string       `json:"away_team"`
	Selection string       `json:"selection"`
	Odds      float64      `json:"odds"`
}

// NewBetLine derives the bet line for an outcome of a match.
func NewBetLine(m Match, o OutcomeType) (BetLine, error) {
	odds, ok := m.OddsFor(o)
	if !ok {
		return BetLine{}, ErrInvalidSelection(fmt.Sprintf("match %s offers no %s market", m.ID, o))
	}
	return BetLine{
		Key:       SelectionKey{MatchID: m.ID, Outcome: o},
		MatchID:   m.ID,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		Selection: o.Label(),
		Odds:      odds,
	}, nil
}

// Ticket is the priced snapshot produced on confirmation. It is never persisted;
// only its stake debit reaches the ledger journal.
type Ticket struct {
	ID              uuid.UUID `json:"id"`
	Lines           []BetLine `json:"lines"`
	Stake           int64     `json:"stake"`
	CombinedOdds    float64   `json:"combined_odds"`
	PotentialPayout float64   `json:"potential_payout"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}
