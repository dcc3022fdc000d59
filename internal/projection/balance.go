package projection

import (
	"context"
	"errors"
	"time"
)

// BalanceProjection is the last known balance of a session.
type BalanceProjection struct {
	SessionID string `json:"session_id"`
	Balance   int64  `json:"balance"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceKey is the store key of a session balance.
func BalanceKey(sessionID string) string { return "balance:" + sessionID }

// UpdateBalance stores a session's balance projection without expiry.
func UpdateBalance(ctx context.Context, store Store, p BalanceProjection) error {
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return SetJSON(ctx, store, BalanceKey(p.SessionID), p, 0)
}

// GetBalance retrieves a session's balance projection.
func GetBalance(ctx context.Context, store Store, sessionID string) (*BalanceProjection, error) {
	var p BalanceProjection
	if err := GetJSON(ctx, store, BalanceKey(sessionID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateBalance removes a session's stored balance.
func InvalidateBalance(ctx context.Context, store Store, sessionID string) error {
	return store.Delete(ctx, BalanceKey(sessionID))
}

// BalanceStore persists ledger balances through a projection Store.
type BalanceStore struct {
	store Store
}

func NewBalanceStore(store Store) *BalanceStore {
	return &BalanceStore{store: store}
}

func (b *BalanceStore) LoadBalance(ctx context.Context, sessionID string) (int64, bool, error) {
	p, err := GetBalance(ctx, b.store, sessionID)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return p.Balance, true, nil
}

func (b *BalanceStore) SaveBalance(ctx context.Context, sessionID string, balance int64) error {
	return UpdateBalance(ctx, b.store, BalanceProjection{SessionID: sessionID, Balance: balance})
}
