package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ladder"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/attaboy/faketoto/internal/metrics"
	"github.com/attaboy/faketoto/internal/race"
	"github.com/attaboy/faketoto/internal/round"
	"github.com/attaboy/faketoto/internal/sportsbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixedSeeder struct {
	seed uint64
	err  error
}

func (f fixedSeeder) Seed(context.Context) (uint64, error) { return f.seed, f.err }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

func (s *memStore) LoadBalance(_ context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[id]
	return b, ok, nil
}

func (s *memStore) SaveBalance(_ context.Context, id string, b int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[id] = b
	return nil
}

type roundLog struct {
	mu      sync.Mutex
	results []domain.RoundResult
}

func (r *roundLog) SaveRound(_ context.Context, res *domain.RoundResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *res)
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.OutboxDraft
}

func (e *eventLog) Enqueue(_ context.Context, d domain.OutboxDraft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, d)
	return nil
}

func newManager(t *testing.T) (*Manager, *fakeClock, *roundLog, *eventLog) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(10000, 0)}
	rounds := &roundLog{}
	events := &eventLog{}
	m := NewManager(Config{
		Catalog: sportsbook.DefaultCatalog(),
		Seeder:  fixedSeeder{seed: 42},
		Logger:  testLogger,
		Store:   &memStore{balances: map[string]int64{}},
		Rounds:  rounds,
		Outbox:  events,
		Metrics: metrics.NewCollector(),
		Now:     clock.Now,
	})
	return m, clock, rounds, events
}

func TestManager_OpenGetClose(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Equal(t, ledger.StartingBalance, s.Ledger.Balance())

	again, err := m.Open(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, again)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	assert.True(t, m.Close(s.ID))
	assert.False(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.True(t, domain.HasCode(err, "NOT_FOUND"))
}

func TestManager_ReopenRestoresBalance(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)

	s, err := m.Open(ctx, "player-1")
	require.NoError(t, err)
	s.Ledger.Debit(ctx, 30000, "test")
	m.Close("player-1")

	s, err = m.Open(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(70000), s.Ledger.Balance())
}

func TestManager_SeedError(t *testing.T) {
	m := NewManager(Config{
		Catalog: sportsbook.DefaultCatalog(),
		Seeder:  fixedSeeder{err: errors.New("no entropy")},
		Logger:  testLogger,
	})
	_, err := m.Open(context.Background(), "x")
	assert.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestSession_ModesAreIndependent(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)
	s, err := m.Open(ctx, "s1")
	require.NoError(t, err)

	_, err = m.PlaceLadderBet(ctx, s, ladder.Left, 1000)
	require.NoError(t, err)
	_, err = m.PlaceRaceBet(ctx, s, domain.ModeSnail, 2, 1000)
	require.NoError(t, err)
	_, err = m.PlaceRaceBet(ctx, s, domain.ModeHorse, 5, 1000)
	require.NoError(t, err)

	_, err = m.PlaceRaceBet(ctx, s, domain.ModeSnail, 1, 1000)
	assert.True(t, domain.HasCode(err, domain.CodeRoundInProgress))

	_, err = s.Sports.Select("epl-001", domain.OutcomeHome)
	require.NoError(t, err)
	_, err = m.ConfirmTicket(ctx, s, 1000)
	require.NoError(t, err)

	assert.Equal(t, int64(96000), s.Ledger.Balance())
	assert.Equal(t, round.Running, s.Ladder.Phase())
	assert.Equal(t, round.Running, s.Snail.Phase())
	assert.Equal(t, round.Running, s.Horse.Phase())
}

func TestSession_Mode(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)
	s, err := m.Open(ctx, "s1")
	require.NoError(t, err)

	state, err := s.Mode("ladder")
	require.NoError(t, err)
	assert.IsType(t, ladder.Snapshot{}, state)

	state, err = s.Mode("horse")
	require.NoError(t, err)
	snap, ok := state.(race.Snapshot)
	require.True(t, ok)
	assert.Equal(t, domain.ModeHorse, snap.Mode)
	assert.Len(t, snap.Competitors, 8)

	state, err = s.Mode("sports")
	require.NoError(t, err)
	assert.IsType(t, SportsState{}, state)

	_, err = s.Mode("roulette")
	assert.Error(t, err)
}

func TestManager_TickSettlesRounds(t *testing.T) {
	ctx := context.Background()
	m, clock, rounds, events := newManager(t)
	s, err := m.Open(ctx, "s1")
	require.NoError(t, err)

	_, err = m.PlaceLadderBet(ctx, s, ladder.Right, 10000)
	require.NoError(t, err)
	_, err = m.PlaceRaceBet(ctx, s, domain.ModeSnail, 1, 10000)
	require.NoError(t, err)

	clock.Add(time.Second)
	assert.Equal(t, 0, m.Tick(ctx))

	clock.Add(time.Second)
	assert.Equal(t, 1, m.Tick(ctx), "ladder resolves at 2s")
	assert.Equal(t, 0, m.Tick(ctx))

	clock.Add(3 * time.Second)
	assert.Equal(t, 1, m.Tick(ctx), "snail resolves at 5s")

	require.Len(t, rounds.results, 2)
	assert.Equal(t, domain.ModeLadder, rounds.results[0].Mode)
	assert.Equal(t, domain.ModeSnail, rounds.results[1].Mode)
	require.Len(t, events.events, 2)
	assert.Equal(t, domain.EventRoundSettled, events.events[0].EventType)

	var expected int64 = ledger.StartingBalance - 20000
	for _, r := range rounds.results {
		expected += r.Payout
	}
	assert.Equal(t, expected, s.Ledger.Balance())
	assert.Len(t, s.Inbox.List(), 2)

	clock.Add(10 * time.Second)
	m.Tick(ctx)
	assert.Equal(t, round.Idle, s.Ladder.Phase())
	assert.Equal(t, round.Idle, s.Snail.Phase())
}

func TestManager_SyncResolvesOnRequestPath(t *testing.T) {
	ctx := context.Background()
	m, clock, rounds, _ := newManager(t)
	s, err := m.Open(ctx, "s1")
	require.NoError(t, err)

	_, err = m.PlaceRaceBet(ctx, s, domain.ModeHorse, 1, 500)
	require.NoError(t, err)
	clock.Add(race.Horse.Duration)

	m.Sync(ctx, s, domain.ModeHorse)
	m.Sync(ctx, s, domain.ModeHorse)
	assert.Equal(t, 0, m.Tick(ctx))
	assert.Len(t, rounds.results, 1)
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m, _, _, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestManager_ShutdownCancelsRounds(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t)
	s, err := m.Open(ctx, "s1")
	require.NoError(t, err)
	_, err = m.PlaceLadderBet(ctx, s, ladder.Left, 2500)
	require.NoError(t, err)

	m.Shutdown()
	assert.Zero(t, m.Len())
	assert.Equal(t, round.Idle, s.Ladder.Phase())
	assert.Equal(t, int64(97500), s.Ledger.Balance(), "cancellation does not refund")
}
