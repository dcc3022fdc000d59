package session

import (
	"context"
	"errors"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ladder"
	"github.com/attaboy/faketoto/internal/race"
)

// PlaceLadderBet places a ladder bet and records it in metrics.
func (m *Manager) PlaceLadderBet(ctx context.Context, s *Session, side ladder.Side, stake int64) (ladder.Snapshot, error) {
	m.Sync(ctx, s, domain.ModeLadder)
	snap, err := s.Ladder.PlaceBet(ctx, side, stake)
	m.observe(domain.ModeLadder, stake, err)
	return snap, err
}

// PlaceRaceBet places a bet on a 1-based competitor of a race mode.
func (m *Manager) PlaceRaceBet(ctx context.Context, s *Session, mode domain.Mode, competitor int, stake int64) (race.Snapshot, error) {
	g, err := s.Race(mode)
	if err != nil {
		return race.Snapshot{}, err
	}
	m.Sync(ctx, s, mode)
	snap, err := g.PlaceBet(ctx, competitor, stake)
	m.observe(mode, stake, err)
	return snap, err
}

// ConfirmTicket confirms the session's bet slip.
func (m *Manager) ConfirmTicket(ctx context.Context, s *Session, stake int64) (*domain.Ticket, error) {
	t, err := s.Sports.Confirm(ctx, stake)
	m.observe(domain.ModeSports, stake, err)
	return t, err
}

func (m *Manager) observe(mode domain.Mode, stake int64, err error) {
	if m.cfg.Metrics == nil {
		return
	}
	if err == nil {
		m.cfg.Metrics.BetPlaced(mode, stake)
		return
	}
	code := "UNKNOWN"
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	m.cfg.Metrics.BetRejected(mode, code)
}
