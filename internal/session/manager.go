package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ladder"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/attaboy/faketoto/internal/metrics"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/race"
	"github.com/attaboy/faketoto/internal/rng"
	"github.com/attaboy/faketoto/internal/sportsbook"
	"github.com/google/uuid"
)

// Seeder supplies per-session RNG seeds.
type Seeder interface {
	Seed(ctx context.Context) (uint64, error)
}

// RoundRecorder keeps the audit trail of settled rounds.
type RoundRecorder interface {
	SaveRound(ctx context.Context, r *domain.RoundResult) error
}

// Config carries the manager's collaborators. Only Catalog, Seeder and Logger are required.
type Config struct {
	Catalog *sportsbook.Catalog
	Seeder  Seeder
	Logger  *slog.Logger

	Store   ledger.Store
	Journal ledger.Journal
	Outbox  sportsbook.Outbox
	Rounds  RoundRecorder
	Sink    notify.Sink
	Metrics *metrics.Collector
	Now     func() time.Time
}

// Manager holds open sessions keyed by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	logger   *slog.Logger
}

// NewManager creates an empty manager.
func NewManager(cfg Config) *Manager {
	if cfg.Sink == nil {
		cfg.Sink = notify.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   cfg.Logger,
	}
}

// Open returns the session for id, creating it when absent. An empty id
// creates a session under a new uuid. A new session's balance is loaded from
// the store, so reopening a known id after a restart resumes its balance.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if s, err := m.Get(id); err == nil {
		return s, nil
	}

	seed, err := m.cfg.Seeder.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	s := m.build(ctx, id, seed)

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionOpened()
	}
	m.logger.Info("session opened", "session_id", id, "seed", seed, "balance", s.Ledger.Balance())
	return s, nil
}

func (m *Manager) build(ctx context.Context, id string, seed uint64) *Session {
	var opts []ledger.Option
	if m.cfg.Store != nil {
		opts = append(opts, ledger.WithStore(m.cfg.Store))
	}
	if m.cfg.Journal != nil {
		opts = append(opts, ledger.WithJournal(m.cfg.Journal))
	}
	l := ledger.Open(ctx, id, m.logger, opts...)

	inbox := notify.NewInbox(notify.DefaultInboxSize)
	sink := notify.WithSession(id, notify.Multi(inbox, m.cfg.Sink))
	src := rng.NewSeeded(seed)

	var bookOpts []sportsbook.BookOption
	if m.cfg.Outbox != nil {
		bookOpts = append(bookOpts, sportsbook.WithOutbox(m.cfg.Outbox))
	}

	return &Session{
		ID:        id,
		Seed:      seed,
		CreatedAt: m.cfg.Now().UTC(),
		Ledger:    l,
		Inbox:     inbox,
		Sports:    sportsbook.NewBook(id, m.cfg.Catalog, l, sink, m.logger, bookOpts...),
		Ladder:    ladder.NewGame(id, l, src, sink, m.logger, ladder.WithClock(m.cfg.Now)),
		Snail:     race.NewGame(race.Snail, id, l, src, sink, m.logger, race.WithClock(m.cfg.Now)),
		Horse:     race.NewGame(race.Horse, id, l, src, sink, m.logger, race.WithClock(m.cfg.Now)),
	}
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound("session", id)
	}
	return s, nil
}

// Close cancels the session's rounds and forgets it. The persisted balance is kept.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.cancel()
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionClosed()
	}
	m.logger.Info("session closed", "session_id", id)
	return true
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Tick advances every round in flight to the current time. It returns the number
// of rounds resolved by this call.
func (m *Manager) Tick(ctx context.Context) int {
	now := m.cfg.Now()
	settled := 0
	for _, s := range m.snapshot() {
		for _, g := range s.RoundGames() {
			if res := g.Tick(ctx, now); res != nil {
				m.record(ctx, res)
				settled++
			}
		}
	}
	return settled
}

// Sync advances one game of a session, recording a settlement if it resolves.
func (m *Manager) Sync(ctx context.Context, s *Session, mode domain.Mode) {
	g, ok := s.RoundGames()[mode]
	if !ok {
		return
	}
	if res := g.Tick(ctx, m.cfg.Now()); res != nil {
		m.record(ctx, res)
	}
}

func (m *Manager) record(ctx context.Context, res *domain.RoundResult) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.RoundSettled(*res)
	}
	if m.cfg.Rounds != nil {
		if err := m.cfg.Rounds.SaveRound(ctx, res); err != nil {
			m.logger.Error("save round result failed", "session_id", res.SessionID, "round_id", res.RoundID, "error", err)
		}
	}
	if m.cfg.Outbox != nil {
		if err := m.cfg.Outbox.Enqueue(ctx, domain.NewRoundSettledEvent(res)); err != nil {
			m.logger.Error("enqueue round event failed", "round_id", res.RoundID, "error", err)
		}
	}
}

// Run drives Tick on interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	m.logger.Info("round ticker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("round ticker stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Shutdown cancels every open session's rounds.
func (m *Manager) Shutdown() {
	for _, s := range m.snapshot() {
		m.Close(s.ID)
	}
}
