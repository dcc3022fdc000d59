package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

type roundRepo struct{}

// NewRoundRepository returns a pgx-backed RoundRepository.
func NewRoundRepository() RoundRepository {
	return &roundRepo{}
}

func settledAt(s string) pgtype.Timestamptz {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t = time.Now().UTC()
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func (r *roundRepo) Insert(ctx context.Context, db DBTX, res *domain.RoundResult) error {
	_, err := db.Exec(ctx, `
		INSERT INTO round_results
		  (round_id, session_id, mode, round, selection, outcome, stake, odds, payout, won, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (round_id) DO NOTHING`,
		res.RoundID, res.SessionID, string(res.Mode), res.Round, res.Selection, res.Outcome,
		res.Stake, res.Odds, res.Payout, res.Won, settledAt(res.SettledAt))
	if err != nil {
		return fmt.Errorf("insert round result: %w", err)
	}
	return nil
}

func (r *roundRepo) ListBySession(ctx context.Context, db DBTX, sessionID string, limit int) ([]domain.RoundResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT round_id, session_id, mode, round, selection, outcome, stake, odds, payout, won, settled_at
		FROM round_results
		WHERE session_id = $1
		ORDER BY settled_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list round results: %w", err)
	}
	defer rows.Close()

	var out []domain.RoundResult
	for rows.Next() {
		var res domain.RoundResult
		var mode string
		var ts pgtype.Timestamptz
		if err := rows.Scan(&res.RoundID, &res.SessionID, &mode, &res.Round, &res.Selection, &res.Outcome,
			&res.Stake, &res.Odds, &res.Payout, &res.Won, &ts); err != nil {
			return nil, fmt.Errorf("scan round result: %w", err)
		}
		res.Mode = domain.Mode(mode)
		if ts.Valid {
			res.SettledAt = ts.Time.UTC().Format(time.RFC3339)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// RoundStore binds the round repository to a pool for the session manager.
type RoundStore struct {
	db   DBTX
	repo RoundRepository
}

func NewRoundStore(db DBTX) *RoundStore {
	return &RoundStore{db: db, repo: NewRoundRepository()}
}

func (s *RoundStore) SaveRound(ctx context.Context, r *domain.RoundResult) error {
	return s.repo.Insert(ctx, s.db, r)
}

func (s *RoundStore) Recent(ctx context.Context, sessionID string, limit int) ([]domain.RoundResult, error) {
	return s.repo.ListBySession(ctx, s.db, sessionID, limit)
}
