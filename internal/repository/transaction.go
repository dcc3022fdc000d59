package repository

import (
	"context"
	"fmt"

	"github.com/attaboy/faketoto/internal/domain"
)

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, tx *domain.Transaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO ledger_transactions
		  (id, session_id, type, amount, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, tx.SessionID, string(tx.Type), tx.Amount, tx.BalanceAfter, tx.Reference, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) ListBySession(ctx context.Context, db DBTX, sessionID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT id, session_id, type, amount, balance_after, reference, created_at
		FROM ledger_transactions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.SessionID, &typ, &t.Amount, &t.BalanceAfter, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Journal records ledger entries together with their outbox event in one
// database transaction.
type Journal struct {
	pool   TxBeginner
	txs    TransactionRepository
	outbox OutboxRepository
}

func NewJournal(pool TxBeginner) *Journal {
	return &Journal{pool: pool, txs: NewTransactionRepository(), outbox: NewOutboxRepository()}
}

func (j *Journal) Record(ctx context.Context, t *domain.Transaction) error {
	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := j.txs.Insert(ctx, tx, t); err != nil {
		return err
	}
	if err := j.outbox.Insert(ctx, tx, domain.NewTransactionPostedEvent(t)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
