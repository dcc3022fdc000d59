package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type balanceRepo struct{}

// NewBalanceRepository returns a pgx-backed BalanceRepository.
func NewBalanceRepository() BalanceRepository {
	return &balanceRepo{}
}

func (r *balanceRepo) Find(ctx context.Context, db DBTX, sessionID string) (int64, bool, error) {
	var balance int64
	err := db.QueryRow(ctx,
		`SELECT balance FROM session_balances WHERE session_id = $1`, sessionID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find balance: %w", err)
	}
	return balance, true, nil
}

func (r *balanceRepo) Upsert(ctx context.Context, db DBTX, sessionID string, balance int64) error {
	_, err := db.Exec(ctx, `
		INSERT INTO session_balances (session_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`,
		sessionID, balance)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// PostgresBalanceStore persists ledger balances in session_balances.
type PostgresBalanceStore struct {
	db   DBTX
	repo BalanceRepository
}

func NewPostgresBalanceStore(db DBTX) *PostgresBalanceStore {
	return &PostgresBalanceStore{db: db, repo: NewBalanceRepository()}
}

func (s *PostgresBalanceStore) LoadBalance(ctx context.Context, sessionID string) (int64, bool, error) {
	return s.repo.Find(ctx, s.db, sessionID)
}

func (s *PostgresBalanceStore) SaveBalance(ctx context.Context, sessionID string, balance int64) error {
	return s.repo.Upsert(ctx, s.db, sessionID, balance)
}
