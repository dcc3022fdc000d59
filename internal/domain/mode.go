package domain

import "fmt"

// Mode names one of the independent game modes of a session.
type Mode string

const (
	ModeSports Mode = "sports"
	ModeLadder Mode = "ladder"
	ModeSnail  Mode = "snail"
	ModeHorse  Mode = "horse"
)

// Modes lists the game modes in display order.
var Modes = []Mode{ModeSports, ModeLadder, ModeSnail, ModeHorse}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrNotFound("mode", s)
}

// RoundResult is the audit record of a settled ladder or race round.
type RoundResult struct {
	RoundID   string  `json:"round_id"`
	SessionID string  `json:"session_id"`
	Mode      Mode    `json:"mode"`
	Round     int     `json:"round"`
	Selection string  `json:"selection"`
	Outcome   string  `json:"outcome"`
	Stake     int64   `json:"stake"`
	Odds      float64 `json:"odds"`
	Payout    int64   `json:"payout"`
	Won       bool    `json:"won"`
	SettledAt string  `json:"settled_at"`
}

func (r RoundResult) String() string {
	return fmt.Sprintf("%s round %d: %s (picked %s)", r.Mode, r.Round, r.Outcome, r.Selection)
}
