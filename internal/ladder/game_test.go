package ladder

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/rng"
	"github.com/attaboy/faketoto/internal/round"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// zeroSource always yields layout {0,1,0,1,0,1} and start lane 1, which exits left.
func newTestGame(t *testing.T) (*Game, *ledger.Ledger, *notify.Inbox) {
	t.Helper()
	l := ledger.Open(context.Background(), "s-1", testLogger)
	inbox := notify.NewInbox(10)
	g := NewGame("s-1", l, rng.NewScripted([]int{0}, nil), inbox, testLogger)
	return g, l, inbox
}

func TestGame_WinningRound(t *testing.T) {
	ctx := context.Background()
	g, l, inbox := newTestGame(t)

	snap, err := g.PlaceBet(ctx, Left, 10000)
	require.NoError(t, err)
	assert.Equal(t, round.Running, snap.Phase)
	assert.Equal(t, 1, snap.StartLane)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 0, 0}, snap.Path)
	assert.Equal(t, int64(90000), l.Balance(), "stake is debited at placement")

	assert.Nil(t, g.Advance(ctx, time.Second))
	mid := g.Snapshot()
	assert.Equal(t, 3, mid.BallStep)
	require.NotNil(t, mid.BallLane)
	assert.Equal(t, 2, *mid.BallLane)

	res := g.Advance(ctx, BallDuration)
	require.NotNil(t, res)
	assert.True(t, res.Won)
	assert.Equal(t, int64(19500), res.Payout)
	assert.Equal(t, int64(109500), l.Balance())

	items := inbox.List()
	require.Len(t, items, 1)
	assert.Equal(t, domain.NotifySuccess, items[0].Kind)
	assert.Equal(t, "Result: left! 19,500 won", items[0].Message)
}

func TestGame_LosingRound(t *testing.T) {
	ctx := context.Background()
	g, l, inbox := newTestGame(t)

	_, err := g.PlaceBet(ctx, Right, 10000)
	require.NoError(t, err)

	res := g.Advance(ctx, BallDuration)
	require.NotNil(t, res)
	assert.False(t, res.Won)
	assert.Equal(t, int64(90000), l.Balance())
	assert.Equal(t, domain.NotifyError, inbox.List()[0].Kind)
	assert.Equal(t, "Result: left. Better luck next round!", inbox.List()[0].Message)
}

func TestGame_ResolvesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	g, l, inbox := newTestGame(t)
	_, err := g.PlaceBet(ctx, Left, 10000)
	require.NoError(t, err)

	require.NotNil(t, g.Advance(ctx, BallDuration))
	assert.Nil(t, g.Advance(ctx, BallDuration+100*time.Millisecond))
	assert.Nil(t, g.Advance(ctx, BallDuration+time.Second))

	assert.Equal(t, int64(109500), l.Balance())
	assert.Len(t, inbox.List(), 1)
	assert.Equal(t, round.Resolved, g.Phase())
}

func TestGame_ConcurrentAdvanceResolvesOnce(t *testing.T) {
	ctx := context.Background()
	g, l, _ := newTestGame(t)
	_, err := g.PlaceBet(ctx, Left, 10000)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Advance(ctx, BallDuration) != nil {
				mu.Lock()
				settled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, settled)
	assert.Equal(t, int64(109500), l.Balance())
}

func TestGame_ResetsAfterDisplayDelay(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGame(t)
	_, err := g.PlaceBet(ctx, Left, 1000)
	require.NoError(t, err)

	g.Advance(ctx, BallDuration)
	g.Advance(ctx, BallDuration+DisplayDelay-time.Millisecond)
	assert.Equal(t, round.Resolved, g.Phase())

	g.Advance(ctx, BallDuration+DisplayDelay)
	snap := g.Snapshot()
	assert.Equal(t, round.Idle, snap.Phase)
	assert.Equal(t, 2, snap.Round)
	assert.Empty(t, snap.Selection)
	assert.Zero(t, snap.Stake)
	assert.Nil(t, snap.BallLane)
	assert.Equal(t, []Side{Left}, snap.Recent)
	require.NotNil(t, snap.LastResult)
	assert.Equal(t, 1, snap.LastResult.Round)
}

func TestGame_SingleLateAdvanceResolvesAndResets(t *testing.T) {
	ctx := context.Background()
	g, l, _ := newTestGame(t)
	_, err := g.PlaceBet(ctx, Left, 1000)
	require.NoError(t, err)

	res := g.Advance(ctx, time.Minute)
	require.NotNil(t, res)
	assert.Equal(t, round.Idle, g.Phase())
	assert.Equal(t, int64(100950), l.Balance())
}

func TestGame_RejectsBets(t *testing.T) {
	ctx := context.Background()

	t.Run("round in progress", func(t *testing.T) {
		g, l, _ := newTestGame(t)
		_, err := g.PlaceBet(ctx, Left, 1000)
		require.NoError(t, err)
		_, err = g.PlaceBet(ctx, Right, 1000)
		assert.True(t, domain.HasCode(err, domain.CodeRoundInProgress))
		assert.Equal(t, int64(99000), l.Balance())
	})

	t.Run("missing side", func(t *testing.T) {
		g, l, _ := newTestGame(t)
		_, err := g.PlaceBet(ctx, "", 1000)
		assert.True(t, domain.HasCode(err, domain.CodeInvalidSelection))
		assert.Equal(t, ledger.StartingBalance, l.Balance())
		assert.Equal(t, round.Idle, g.Phase())
	})

	t.Run("stake over balance", func(t *testing.T) {
		g, l, _ := newTestGame(t)
		_, err := g.PlaceBet(ctx, Left, ledger.StartingBalance+1)
		assert.True(t, domain.HasCode(err, domain.CodeInvalidStake))
		assert.Equal(t, ledger.StartingBalance, l.Balance())
	})

	t.Run("zero stake", func(t *testing.T) {
		g, _, _ := newTestGame(t)
		_, err := g.PlaceBet(ctx, Left, 0)
		assert.True(t, domain.HasCode(err, domain.CodeInvalidStake))
	})
}

func TestGame_TickUsesWallClock(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(5000, 0)
	l := ledger.Open(ctx, "s-1", testLogger)
	g := NewGame("s-1", l, rng.NewScripted([]int{0}, nil), notify.Discard, testLogger,
		WithClock(func() time.Time { return start }))

	assert.Nil(t, g.Tick(ctx, start), "idle game ignores ticks")
	_, err := g.PlaceBet(ctx, Left, 10000)
	require.NoError(t, err)

	assert.Nil(t, g.Tick(ctx, start.Add(time.Second)))
	assert.NotNil(t, g.Tick(ctx, start.Add(BallDuration)))
	assert.Equal(t, int64(109500), l.Balance())
}

func TestGame_CancelKeepsDebit(t *testing.T) {
	ctx := context.Background()
	g, l, inbox := newTestGame(t)
	_, err := g.PlaceBet(ctx, Left, 10000)
	require.NoError(t, err)

	g.Cancel()
	assert.Equal(t, round.Idle, g.Phase())
	assert.Nil(t, g.Advance(ctx, BallDuration))
	assert.Equal(t, int64(90000), l.Balance())
	assert.Empty(t, inbox.List())

	_, err = g.PlaceBet(ctx, Left, 1000)
	assert.NoError(t, err)
}

func TestGame_RecentResultsCapped(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGame(t)
	for i := 0; i < HistorySize+3; i++ {
		_, err := g.PlaceBet(ctx, Left, 10)
		require.NoError(t, err)
		g.Advance(ctx, BallDuration+DisplayDelay)
	}
	snap := g.Snapshot()
	assert.Len(t, snap.Recent, HistorySize)
	assert.Equal(t, HistorySize+4, snap.Round)
}
