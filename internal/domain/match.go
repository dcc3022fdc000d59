package domain

import (
	"fmt"
	"strings"
)

// Sport represents a sports category in the match catalog.
type Sport string

const (
	SportSoccer     Sport = "soccer"
	SportBaseball   Sport = "baseball"
	SportBasketball Sport = "basketball"
	SportVolleyball Sport = "volleyball"
)

// AllowsDraw reports whether matches of this sport can end in a tie.
func (s Sport) AllowsDraw() bool {
	return s == SportSoccer
}

// OutcomeType is the result a selection backs within a match.
type OutcomeType string

const (
	OutcomeHome OutcomeType = "home"
	OutcomeDraw OutcomeType = "draw"
	OutcomeAway OutcomeType = "away"
)

// Label returns the human readable selection label shown on bet lines.
func (o OutcomeType) Label() string {
	switch o {
	case OutcomeHome:
		return "Home win"
	case OutcomeDraw:
		return "Draw"
	case OutcomeAway:
		return "Away win"
	}
	return string(o)
}

// ParseOutcomeType validates an outcome string.
func ParseOutcomeType(s string) (OutcomeType, error) {
	switch o := OutcomeType(strings.ToLower(s)); o {
	case OutcomeHome, OutcomeDraw, OutcomeAway:
		return o, nil
	}
	return "", ErrInvalidSelection(fmt.Sprintf("unknown outcome %q", s))
}

// Odds holds the decimal odds of a 1X2 market. Draw is nil for sports without ties.
type Odds struct {
	Home float64  `json:"home" yaml:"home"`
	Draw *float64 `json:"draw,omitempty" yaml:"draw,omitempty"`
	Away float64  `json:"away" yaml:"away"`
}

// Match is an immutable catalog record.
type Match struct {
	ID        string `json:"id" yaml:"id"`
	Sport     Sport  `json:"sport" yaml:"sport"`
	League    string `json:"league" yaml:"league"`
	HomeTeam  string `json:"home_team" yaml:"home_team"`
	AwayTeam  string `json:"away_team" yaml:"away_team"`
	Date      string `json:"date" yaml:"date"`
	StartTime string `json:"start_time" yaml:"start_time"`
	Odds      Odds   `json:"odds" yaml:"odds"`
}

// OddsFor returns the odds offered for the outcome, false when the match has no such market.
func (m Match) OddsFor(o OutcomeType) (float64, bool) {
	switch o {
	case OutcomeHome:
		return m.Odds.Home, true
	case OutcomeAway:
		return m.Odds.Away, true
	case OutcomeDraw:
		if m.Odds.Draw == nil {
			return 0, false
		}
		return *m.Odds.Draw, true
	}
	return 0, false
}
