package ladder

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

const (
	// Odds pays the same on either side.
	Odds = 1.95

	BallDuration = 2 * time.Second
	DisplayDelay = 1500 * time.Millisecond
	HistorySize  = 10
)

// Snapshot is the observable state of a ladder game.
type Snapshot struct {
	Round      int                 `json:"round"`
	Phase      round.Phase         `json:"phase"`
	Odds       map[Side]float64    `json:"odds"`
	Selection  Side                `json:"selection,omitempty"`
	Stake      int64               `json:"stake,omitempty"`
	Layout     Layout              `json:"layout"`
	StartLane  int                 `json:"start_lane,omitempty"`
	Path       []int               `json:"path,omitempty"`
	BallStep   int                 `json:"ball_step"`
	BallLane   *int                `json:"ball_lane,omitempty"`
	Outcome    Side                `json:"outcome,omitempty"`
	Recent     []Side              `json:"recent"`
	LastResult *domain.RoundResult `json:"last_result,omitempty"`
}

// Game runs ladder rounds for one session. All methods are safe for concurrent use.
type Game struct {
	mu        sync.Mutex
	sessionID string
	wallet    round.Wallet
	src       rng.Source
	sink      notify.Sink
	logger    *slog.Logger
	now       func() time.Time
	rungs     int

	cycle   *round.Cycle
	history *round.History[Side]

	selection Side
	stake     int64
	layout    Layout
	startLane int
	path      []int
	ballStep  int
	outcome   Side
	last      *domain.RoundResult
}

// Option configures a Game.
type Option func(*Game)

// WithClock replaces time.Now for round start times.
func WithClock(now func() time.Time) Option { return func(g *Game) { g.now = now } }

// WithRungCount overrides DefaultRungCount.
func WithRungCount(n int) Option { return func(g *Game) { g.rungs = n } }

// NewGame creates an idle ladder game. A layout is drawn up front so there is
// something to display before the first bet.
func NewGame(sessionID string, wallet round.Wallet, src rng.Source, sink notify.Sink, logger *slog.Logger, opts ...Option) *Game {
	g := &Game{
		sessionID: sessionID,
		wallet:    wallet,
		src:       src,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
		rungs:     DefaultRungCount,
		cycle:     round.NewCycle(domain.ModeLadder),
		history:   round.NewHistory[Side](HistorySize),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.layout = GenerateLayout(src, g.rungs)
	return g
}

// PlaceBet debits the stake and starts a round with a fresh layout and start lane.
func (g *Game) PlaceBet(ctx context.Context, side Side, stake int64) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.cycle.CheckIdle(); err != nil {
		return Snapshot{}, err
	}
	if _, err := ParseSide(string(side)); err != nil {
		return Snapshot{}, err
	}
	if err := domain.ValidateStake(stake, g.wallet.Balance()); err != nil {
		return Snapshot{}, err
	}

	layout := GenerateLayout(g.src, g.rungs)
	start := g.src.Intn(Lanes) + 1
	path, err := TracePath(start, layout)
	if err != nil {
		return Snapshot{}, fmt.Errorf("trace ladder path: %w", err)
	}
	if err := g.cycle.Begin(g.now()); err != nil {
		return Snapshot{}, err
	}

	g.wallet.Debit(ctx, stake, fmt.Sprintf("%s:%d:bet", domain.ModeLadder, g.cycle.Number()))
	g.selection = side
	g.stake = stake
	g.layout = layout
	g.startLane = start
	g.path = path
	g.ballStep = 0
	g.outcome = ""

	g.logger.Info("ladder bet placed",
		"session_id", g.sessionID, "round", g.cycle.Number(),
		"side", side, "stake", stake, "start_lane", start)
	return g.snapshotLocked(), nil
}

// Advance moves the round to the given time since the bet. It returns the
// settled result on the single call that resolves the round, nil otherwise.
func (g *Game) Advance(ctx context.Context, elapsed time.Duration) *domain.RoundResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.advanceLocked(ctx, elapsed)
}

// Tick advances the round by wall-clock time since it started.
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
		g.ballStep = ballStep(elapsed, len(g.path)-1)
		if elapsed >= BallDuration && g.cycle.Resolve() {
			settled = g.resolveLocked(ctx)
		}
	}
	if g.cycle.Phase() == round.Resolved && elapsed >= BallDuration+DisplayDelay {
		g.resetLocked()
	}
	return settled
}

func ballStep(elapsed time.Duration, steps int) int {
	if steps <= 0 {
		return 0
	}
	if elapsed >= BallDuration {
		return steps
	}
	per := BallDuration / time.Duration(steps)
	return min(steps, int(elapsed/per))
}

func (g *Game) resolveLocked(ctx context.Context) *domain.RoundResult {
	g.outcome = SideOf(g.path[len(g.path)-1])
	g.ballStep = len(g.path) - 1
	g.history.Push(g.outcome)

	res := settlement.Settle(ctx, g.wallet, g.sink, settlement.Input{
		SessionID: g.sessionID,
		Mode:      domain.ModeLadder,
		Round:     g.cycle.Number(),
		Selection: string(g.selection),
		Outcome:   string(g.outcome),
		Stake:     g.stake,
		Odds:      Odds,
		Won:       g.selection == g.outcome,
		Headline:  fmt.Sprintf("Result: %s", g.outcome),
	})
	g.last = &res

	g.logger.Info("ladder round resolved",
		"session_id", g.sessionID, "round", res.Round,
		"outcome", g.outcome, "won", res.Won, "payout", res.Payout)
	return &res
}

func (g *Game) resetLocked() {
	g.cycle.Finish()
	g.selection = ""
	g.stake = 0
	g.startLane = 0
	g.path = nil
	g.ballStep = 0
	g.outcome = ""
}

// Cancel abandons a round in flight. The debited stake is not returned.
func (g *Game) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cycle.Phase() == round.Idle {
		return
	}
	g.logger.Info("ladder round cancelled", "session_id", g.sessionID, "round", g.cycle.Number())
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
	s := Snapshot{
		Round:      g.cycle.Number(),
		Phase:      g.cycle.Phase(),
		Odds:       map[Side]float64{Left: Odds, Right: Odds},
		Selection:  g.selection,
		Stake:      g.stake,
		Layout:     append(Layout(nil), g.layout...),
		StartLane:  g.startLane,
		Path:       append([]int(nil), g.path...),
		BallStep:   g.ballStep,
		Outcome:    g.outcome,
		Recent:     g.history.Items(),
		LastResult: g.last,
	}
	if len(g.path) > 0 {
		lane := g.path[g.ballStep]
		s.BallLane = &lane
	}
	return s
}
