package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/infra"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ledger.Store   = (*SQLiteBalanceStore)(nil)
	_ ledger.Journal = (*SQLiteJournal)(nil)
	_ ledger.Store   = (*PostgresBalanceStore)(nil)
	_ ledger.Journal = (*Journal)(nil)
)

func openTestDB(t *testing.T) *SQLiteBalanceStore {
	t.Helper()
	db, err := infra.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "sqlite", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return NewSQLiteBalanceStore(db)
}

func TestSQLiteBalanceStore(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	_, found, err := store.LoadBalance(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveBalance(ctx, "s1", 90000))
	require.NoError(t, store.SaveBalance(ctx, "s1", 109500))

	balance, found, err := store.LoadBalance(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(109500), balance)
}

func TestSQLiteJournal(t *testing.T) {
	ctx := context.Background()
	journal := NewSQLiteJournal(openTestDB(t).db)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	debit := &domain.Transaction{ID: uuid.New(), SessionID: "s1", Type: domain.TxDebit, Amount: 10000, BalanceAfter: 90000, Reference: "ladder:1:bet", CreatedAt: base}
	credit := &domain.Transaction{ID: uuid.New(), SessionID: "s1", Type: domain.TxCredit, Amount: 19500, BalanceAfter: 109500, Reference: "ladder:1:win", CreatedAt: base.Add(time.Second)}
	require.NoError(t, journal.Record(ctx, debit))
	require.NoError(t, journal.Record(ctx, credit))

	got, err := journal.List(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, credit.ID, got[0].ID)
	assert.Equal(t, domain.TxCredit, got[0].Type)
	assert.Equal(t, int64(109500), got[0].BalanceAfter)
	assert.Equal(t, debit.ID, got[1].ID)
}

func TestSQLite_LedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)
	logger := testLogger()

	l := ledger.Open(ctx, "s1", logger, ledger.WithStore(store), ledger.WithJournal(NewSQLiteJournal(store.db)))
	l.Debit(ctx, 10000, "ladder:1:bet")
	l.Credit(ctx, 19500, "ladder:1:win")

	reopened := ledger.Open(ctx, "s1", logger, ledger.WithStore(store))
	assert.Equal(t, int64(109500), reopened.Balance())
}
