// Package ledger holds the per-session virtual balance.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/google/uuid"
)

// StartingBalance is the balance of a fresh session and the target of Reset.
const StartingBalance int64 = 100000

// Store persists the last known balance of a session.
type Store interface {
	LoadBalance(ctx context.Context, sessionID string) (balance int64, found bool, err error)
	SaveBalance(ctx context.Context, sessionID string, balance int64) error
}

// Journal receives every posted ledger entry.
type Journal interface {
	Record(ctx context.Context, tx *domain.Transaction) error
}

// Ledger is the single source of truth for a session balance.
//
// Debit and Credit are total: they never fail. Callers must validate stakes with
// domain.ValidateStake before debiting; the clamp at zero is only a backstop.
// Persistence and journaling errors are logged and do not roll back the in-memory
// balance, which stays authoritative for the lifetime of the session.
//
// Entries are persisted in mutation order: each mutation takes a ticket under
// mu and posts only when every earlier ticket has posted, so the last saved
// balance always matches the in-memory one.
type Ledger struct {
	mu        sync.Mutex
	next      uint64
	postMu    sync.Mutex
	postCond  *sync.Cond
	posted    uint64
	sessionID string
	balance   int64
	store     Store
	journal   Journal
	logger    *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists the balance after every mutation.
func WithStore(s Store) Option { return func(l *Ledger) { l.store = s } }

// WithJournal records every mutation as a transaction.
func WithJournal(j Journal) Option { return func(l *Ledger) { l.journal = j } }

// Open loads the session balance from the store, defaulting to StartingBalance.
func Open(ctx context.Context, sessionID string, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		sessionID: sessionID,
		balance:   StartingBalance,
		logger:    logger,
	}
	l.postCond = sync.NewCond(&l.postMu)
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		return l
	}

	balance, found, err := l.store.LoadBalance(ctx, sessionID)
	switch {
	case err != nil:
		l.logger.Warn("load balance failed, using starting balance", "session_id", sessionID, "error", err)
	case found:
		l.balance = balance
	}
	return l
}

// SessionID returns the owning session id.
func (l *Ledger) SessionID() string { return l.sessionID }

// Balance returns the current balance.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Debit removes amount from the balance, clamping at zero. Returns the new balance.
func (l *Ledger) Debit(ctx context.Context, amount int64, ref string) int64 {
	amount = l.sanitize(amount, domain.TxDebit)

	l.mu.Lock()
	before := l.balance
	l.balance = max(0, l.balance-amount)
	after := l.balance
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.post(ctx, ticket, domain.TxDebit, before-after, after, ref)
	return after
}

// Credit adds amount to the balance. Returns the new balance.
func (l *Ledger) Credit(ctx context.Context, amount int64, ref string) int64 {
	amount = l.sanitize(amount, domain.TxCredit)

	l.mu.Lock()
	l.balance += amount
	after := l.balance
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.post(ctx, ticket, domain.TxCredit, amount, after, ref)
	return after
}

// Reset restores the starting balance.
func (l *Ledger) Reset(ctx context.Context) int64 {
	l.mu.Lock()
	l.balance = StartingBalance
	ticket := l.ticketLocked()
	l.mu.Unlock()

	l.post(ctx, ticket, domain.TxReset, StartingBalance, StartingBalance, "reset")
	return StartingBalance
}

func (l *Ledger) sanitize(amount int64, typ domain.TransactionType) int64 {
	if amount < 0 {
		l.logger.Error("negative ledger amount ignored",
			"session_id", l.sessionID, "type", typ, "amount", amount)
		return 0
	}
	return amount
}

func (l *Ledger) ticketLocked() uint64 {
	t := l.next
	l.next++
	return t
}

// post persists one entry once all earlier tickets are posted.
func (l *Ledger) post(ctx context.Context, ticket uint64, typ domain.TransactionType, amount, after int64, ref string) {
	l.postMu.Lock()
	defer l.postMu.Unlock()
	for l.posted != ticket {
		l.postCond.Wait()
	}
	defer func() {
		l.posted++
		l.postCond.Broadcast()
	}()

	if l.store != nil {
		if err := l.store.SaveBalance(ctx, l.sessionID, after); err != nil {
			l.logger.Error("persist balance failed", "session_id", l.sessionID, "error", err)
		}
	}
	if l.journal == nil {
		return
	}
	tx := &domain.Transaction{
		ID:           uuid.New(),
		SessionID:    l.sessionID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: after,
		Reference:    ref,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.journal.Record(ctx, tx); err != nil {
		l.logger.Error("journal transaction failed",
			"session_id", l.sessionID, "type", typ, "error", err)
	}
}
