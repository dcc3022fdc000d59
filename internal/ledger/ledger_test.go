package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memStore struct {
	mu       sync.Mutex
	balances map[string]int64
	loadErr  error
	saveErr  error
}

func newMemStore() *memStore { return &memStore{balances: make(map[string]int64)} }

func (s *memStore) LoadBalance(_ context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return 0, false, s.loadErr
	}
	b, ok := s.balances[id]
	return b, ok, nil
}

func (s *memStore) SaveBalance(_ context.Context, id string, b int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.balances[id] = b
	return nil
}

type memJournal struct {
	mu  sync.Mutex
	txs []domain.Transaction
	err error
}

func (j *memJournal) Record(_ context.Context, tx *domain.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.txs = append(j.txs, *tx)
	return j.err
}

func TestOpen_DefaultsToStartingBalance(t *testing.T) {
	l := Open(context.Background(), "s1", testLogger, WithStore(newMemStore()))
	assert.Equal(t, StartingBalance, l.Balance())
	assert.Equal(t, "s1", l.SessionID())
}

func TestOpen_LoadsPersistedBalance(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	l := Open(ctx, "s1", testLogger, WithStore(store))
	l.Debit(ctx, 25000, "bet")

	reopened := Open(ctx, "s1", testLogger, WithStore(store))
	assert.Equal(t, int64(75000), reopened.Balance())
}

func TestOpen_LoadErrorFallsBack(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("redis down")

	l := Open(context.Background(), "s1", testLogger, WithStore(store))
	assert.Equal(t, StartingBalance, l.Balance())
}

func TestDebitCredit(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(l *Ledger) int64
		want int64
	}{
		{"debit", func(l *Ledger) int64 { return l.Debit(ctx, 10000, "") }, 90000},
		{"debit clamps at zero", func(l *Ledger) int64 { return l.Debit(ctx, 250000, "") }, 0},
		{"credit", func(l *Ledger) int64 { return l.Credit(ctx, 19500, "") }, 119500},
		{"negative debit ignored", func(l *Ledger) int64 { return l.Debit(ctx, -500, "") }, 100000},
		{"negative credit ignored", func(l *Ledger) int64 { return l.Credit(ctx, -500, "") }, 100000},
		{"debit then credit", func(l *Ledger) int64 {
			l.Debit(ctx, 10000, "")
			return l.Credit(ctx, 19500, "")
		}, 109500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Open(ctx, "s1", testLogger)
			got := tt.run(l)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, l.Balance())
		})
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, "s1", testLogger)
	for i := 0; i < 20; i++ {
		l.Debit(ctx, 7777, "")
		assert.GreaterOrEqual(t, l.Balance(), int64(0))
	}
	assert.Equal(t, int64(0), l.Balance())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	l := Open(ctx, "s1", testLogger, WithStore(store))
	l.Debit(ctx, 99999, "")

	assert.Equal(t, StartingBalance, l.Reset(ctx))
	assert.Equal(t, StartingBalance, store.balances["s1"])
}

func TestSaveErrorKeepsInMemoryBalance(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.saveErr = errors.New("disk full")

	l := Open(ctx, "s1", testLogger, WithStore(store))
	assert.Equal(t, int64(95000), l.Debit(ctx, 5000, ""))
	assert.Equal(t, int64(95000), l.Balance())
}

func TestJournalRecordsEntries(t *testing.T) {
	ctx := context.Background()
	j := &memJournal{}
	l := Open(ctx, "s1", testLogger, WithJournal(j))

	l.Debit(ctx, 10000, "ladder:1")
	l.Credit(ctx, 19500, "ladder:1")
	l.Debit(ctx, 200000, "sports:t1")
	l.Reset(ctx)

	require.Len(t, j.txs, 4)
	assert.Equal(t, domain.TxDebit, j.txs[0].Type)
	assert.Equal(t, int64(90000), j.txs[0].BalanceAfter)
	assert.Equal(t, "ladder:1", j.txs[0].Reference)
	assert.Equal(t, domain.TxCredit, j.txs[1].Type)
	assert.Equal(t, int64(109500), j.txs[1].BalanceAfter)
	assert.Equal(t, int64(109500), j.txs[2].Amount, "clamped debit journals the amount actually removed")
	assert.Equal(t, int64(0), j.txs[2].BalanceAfter)
	assert.Equal(t, domain.TxReset, j.txs[3].Type)
}

func TestJournalErrorDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, "s1", testLogger, WithJournal(&memJournal{err: errors.New("pg down")}))
	assert.Equal(t, int64(90000), l.Debit(ctx, 10000, ""))
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, "s1", testLogger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); l.Debit(ctx, 100, "") }()
		go func() { defer wg.Done(); l.Credit(ctx, 100, "") }()
	}
	wg.Wait()
	assert.Equal(t, StartingBalance, l.Balance())
}

// gatedStore blocks the first SaveBalance until release is closed.
type gatedStore struct {
	*memStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) SaveBalance(ctx context.Context, id string, b int64) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.memStore.SaveBalance(ctx, id, b)
}

func TestPersistsInMutationOrder(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		memStore: newMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	l := Open(ctx, "s1", testLogger, WithStore(store))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); l.Debit(ctx, 10000, "bet") }()
	<-store.entered

	go func() { defer wg.Done(); l.Credit(ctx, 5000, "win") }()
	require.Eventually(t, func() bool { return l.Balance() == 95000 }, time.Second, time.Millisecond)

	close(store.release)
	wg.Wait()

	reopened := Open(ctx, "s1", testLogger, WithStore(store))
	assert.Equal(t, int64(95000), reopened.Balance())
}
