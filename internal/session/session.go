// Package session binds one player's ledger, inbox and game engines together
// and keeps every open session in memory.
package session

import (
	"context"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ladder"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/race"
	"github.com/attaboy/faketoto/internal/round"
	"github.com/attaboy/faketoto/internal/sportsbook"
)

// RoundGame is a game mode that resolves rounds over time.
type RoundGame interface {
	Tick(ctx context.Context, now time.Time) *domain.RoundResult
	Phase() round.Phase
	Cancel()
}

// Session owns one independent engine per mode. Modes share only the ledger.
type Session struct {
	ID        string
	Seed      uint64
	CreatedAt time.Time

	Ledger *ledger.Ledger
	Inbox  *notify.Inbox
	Sports *sportsbook.Book
	Ladder *ladder.Game
	Snail  *race.Game
	Horse  *race.Game
}

// Race returns the race game for a mode.
func (s *Session) Race(mode domain.Mode) (*race.Game, error) {
	switch mode {
	case domain.ModeSnail:
		return s.Snail, nil
	case domain.ModeHorse:
		return s.Horse, nil
	}
	return nil, domain.ErrNotFound("race", string(mode))
}

// RoundGames lists the modes that advance with time.
func (s *Session) RoundGames() map[domain.Mode]RoundGame {
	return map[domain.Mode]RoundGame{
		domain.ModeLadder: s.Ladder,
		domain.ModeSnail:  s.Snail,
		domain.ModeHorse:  s.Horse,
	}
}

// SportsState is the sports mode view: the current slip priced at zero stake.
type SportsState struct {
	Quote   sportsbook.Quote `json:"quote"`
	Tickets []domain.Ticket  `json:"tickets"`
}

// Mode selects a game mode by name and returns its current state.
func (s *Session) Mode(name string) (any, error) {
	mode, err := domain.ParseMode(name)
	if err != nil {
		return nil, err
	}
	switch mode {
	case domain.ModeSports:
		return SportsState{Quote: s.Sports.Quote(0), Tickets: s.Sports.Tickets()}, nil
	case domain.ModeLadder:
		return s.Ladder.Snapshot(), nil
	default:
		g, err := s.Race(mode)
		if err != nil {
			return nil, err
		}
		return g.Snapshot(), nil
	}
}

// cancel tears down every round in flight without reversing debits.
func (s *Session) cancel() {
	for _, g := range s.RoundGames() {
		g.Cancel()
	}
}
