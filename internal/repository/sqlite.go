package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
)

// SQLiteBalanceStore persists ledger balances in a local sqlite database.
type SQLiteBalanceStore struct {
	db *sql.DB
}

func NewSQLiteBalanceStore(db *sql.DB) *SQLiteBalanceStore {
	return &SQLiteBalanceStore{db: db}
}

func (s *SQLiteBalanceStore) LoadBalance(ctx context.Context, sessionID string) (int64, bool, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM session_balances WHERE session_id = ?`, sessionID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find balance: %w", err)
	}
	return balance, true, nil
}

func (s *SQLiteBalanceStore) SaveBalance(ctx context.Context, sessionID string, balance int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_balances (session_id, balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE
		SET balance = excluded.balance, updated_at = excluded.updated_at`,
		sessionID, balance, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// SQLiteJournal appends ledger entries to the local database.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(db *sql.DB) *SQLiteJournal {
	return &SQLiteJournal{db: db}
}

func (j *SQLiteJournal) Record(ctx context.Context, t *domain.Transaction) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO ledger_transactions
		  (id, session_id, type, amount, balance_after, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.SessionID, string(t.Type), t.Amount, t.BalanceAfter, t.Reference,
		t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// List returns the newest entries of a session first.
func (j *SQLiteJournal) List(ctx context.Context, sessionID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, type, amount, balance_after, reference, created_at
		FROM ledger_transactions
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var id, typ, created string
		if err := rows.Scan(&id, &t.SessionID, &typ, &t.Amount, &t.BalanceAfter, &t.Reference, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := t.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, t)
	}
	return out, rows.Err()
}
