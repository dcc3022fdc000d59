package repository

import (
	"context"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts a pgx transaction; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BalanceRepository provides access to session_balances.
type BalanceRepository interface {
	// Find returns the stored balance; found is false when the session has no row.
	Find(ctx context.Context, db DBTX, sessionID string) (balance int64, found bool, err error)

	// Upsert writes the latest balance of a session.
	Upsert(ctx context.Context, db DBTX, sessionID string, balance int64) error
}

// TransactionRepository provides access to ledger_transactions.
type TransactionRepository interface {
	// Insert appends a journal entry.
	Insert(ctx context.Context, db DBTX, tx *domain.Transaction) error

	// ListBySession returns the newest entries of a session first.
	ListBySession(ctx context.Context, db DBTX, sessionID string, limit int) ([]domain.Transaction, error)
}

// RoundRepository provides access to round_results.
type RoundRepository interface {
	// Insert records a settled round. Re-inserting the same round id is a no-op.
	Insert(ctx context.Context, db DBTX, r *domain.RoundResult) error

	// ListBySession returns the newest rounds of a session first.
	ListBySession(ctx context.Context, db DBTX, sessionID string, limit int) ([]domain.RoundResult, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the ledger entry).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns queued events in insertion order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRecord, error)

	// MarkPublished deletes relayed events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
