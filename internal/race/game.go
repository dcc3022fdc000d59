package race

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/rng"
	"github.com/attaboy/faketoto/internal/round"
	"github.com/attaboy/faketoto/internal/settlement"
)

// Snapshot is the observable state of a race game.
type Snapshot struct {
	Mode        domain.Mode         `json:"mode"`
	Round       int                 `json:"round"`
	Phase       round.Phase         `json:"phase"`
	Competitors []Competitor        `json:"competitors"`
	Selection   int                 `json:"selection,omitempty"`
	Stake       int64               `json:"stake,omitempty"`
	Progress    []float64           `json:"progress"`
	Winner      int                 `json:"winner,omitempty"`
	Recent      []int               `json:"recent"`
	LastResult  *domain.RoundResult `json:"last_result,omitempty"`
}

// Game runs rounds of one race variant for one session.
type Game struct {
	mu        sync.Mutex
	variant   Variant
	sessionID string
	wallet    round.Wallet
	src       rng.Source
	sink      notify.Sink
	logger    *slog.Logger
	now       func() time.Time

	cycle   *round.Cycle
	history *round.History[int]

	race      *Race
	selection int
	stake     int64
	progress  []float64
	winner    int
	last      *domain.RoundResult
}

// Option configures a Game.
type Option func(*Game)

// WithClock replaces time.Now for round start times.
func WithClock(now func() time.Time) Option { return func(g *Game) { g.now = now } }

// NewGame creates an idle race game for the variant.
func NewGame(v Variant, sessionID string, wallet round.Wallet, src rng.Source, sink notify.Sink, logger *slog.Logger, opts ...Option) *Game {
	g := &Game{
		variant:   v,
		sessionID: sessionID,
		wallet:    wallet,
		src:       src,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
		cycle:     round.NewCycle(v.Mode),
		history:   round.NewHistory[int](HistorySize),
		progress:  make([]float64, len(v.Competitors)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Variant returns the game's configuration.
func (g *Game) Variant() Variant { return g.variant }

// PlaceBet debits the stake on a 1-based competitor and starts the race.
func (g *Game) PlaceBet(ctx context.Context, competitor int, stake int64) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.cycle.CheckIdle(); err != nil {
		return Snapshot{}, err
	}
	if _, err := g.variant.Competitor(competitor); err != nil {
		return Snapshot{}, err
	}
	if err := domain.ValidateStake(stake, g.wallet.Balance()); err != nil {
		return Snapshot{}, err
	}
	if err := g.cycle.Begin(g.now()); err != nil {
		return Snapshot{}, err
	}

	g.wallet.Debit(ctx, stake, fmt.Sprintf("%s:%d:bet", g.variant.Mode, g.cycle.Number()))
	g.selection = competitor
	g.stake = stake
	g.winner = 0
	g.race = Start(g.variant, g.src)
	g.progress = g.race.Progress(0)

	g.logger.Info("race bet placed",
		"session_id", g.sessionID, "mode", g.variant.Mode, "round", g.cycle.Number(),
		"competitor", competitor, "stake", stake)
	return g.snapshotLocked(), nil
}

// Advance moves the race to the given time since the bet. The first call at or
// past the duration resolves the race and returns its settled result.
func (g *Game) Advance(ctx context.Context, elapsed time.Duration) *domain.RoundResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.advanceLocked(ctx, elapsed)
}

// Tick advances the race by wall-clock time since it started.
func (g *Game) Tick(ctx context.Context, now time.Time) *domain.RoundResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cycle.Phase() == round.Idle {
		return nil
	}
	return g.advanceLocked(ctx, g.cycle.Elapsed(now))
}

func (g *Game) advanceLocked(ctx context.Context, elapsed time.Duration) *domain.RoundResult {
	var settled *domain.RoundResult

	if g.cycle.Phase() == round.Running {
		g.progress = g.race.Progress(elapsed)
		if elapsed >= g.variant.Duration && g.cycle.Resolve() {
			settled = g.resolveLocked(ctx)
		}
	}
	if g.cycle.Phase() == round.Resolved && elapsed >= g.variant.Duration+g.variant.DisplayDelay {
		g.resetLocked()
	}
	return settled
}

func (g *Game) resolveLocked(ctx context.Context) *domain.RoundResult {
	idx := ResolveWinner(g.progress, g.variant.TieEpsilon)
	winner := g.variant.Competitors[idx]
	picked := g.variant.Competitors[g.selection-1]
	g.winner = winner.Number
	g.history.Push(winner.Number)

	headline := fmt.Sprintf("%s wins", winner.Name)
	res := settlement.Settle(ctx, g.wallet, g.sink, settlement.Input{
		SessionID: g.sessionID,
		Mode:      g.variant.Mode,
		Round:     g.cycle.Number(),
		Selection: picked.Name,
		Outcome:   winner.Name,
		Stake:     g.stake,
		Odds:      picked.Odds,
		Won:       picked.Number == winner.Number,
		Headline:  headline,
	})
	g.last = &res

	g.logger.Info("race resolved",
		"session_id", g.sessionID, "mode", g.variant.Mode, "round", res.Round,
		"winner", winner.Number, "won", res.Won, "payout", res.Payout)
	return &res
}

func (g *Game) resetLocked() {
	g.cycle.Finish()
	g.race = nil
	g.selection = 0
	g.stake = 0
	g.winner = 0
	g.progress = make([]float64, len(g.variant.Competitors))
}

// Cancel abandons a race in flight. The debited stake is not returned.
func (g *Game) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cycle.Phase() == round.Idle {
		return
	}
	g.logger.Info("race cancelled", "session_id", g.sessionID, "mode", g.variant.Mode, "round", g.cycle.Number())
	g.cycle.Cancel()
	g.resetLocked()
}

// Phase returns the current round phase.
func (g *Game) Phase() round.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cycle.Phase()
}

// Snapshot returns the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:        g.variant.Mode,
		Round:       g.cycle.Number(),
		Phase:       g.cycle.Phase(),
		Competitors: append([]Competitor(nil), g.variant.Competitors...),
		Selection:   g.selection,
		Stake:       g.stake,
		Progress:    append([]float64(nil), g.progress...),
		Winner:      g.winner,
		Recent:      g.history.Items(),
		LastResult:  g.last,
	}
}
