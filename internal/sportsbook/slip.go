package sportsbook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/round"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketHistorySize is the number of confirmed tickets kept per session.
const TicketHistorySize = 20

// CombinedOdds is the exact product of the lines' odds, 1 for no lines.
func CombinedOdds(lines []domain.BetLine) decimal.Decimal {
	odds := decimal.NewFromInt(1)
	for _, l := range lines {
		odds = odds.Mul(decimal.NewFromFloat(l.Odds))
	}
	return odds
}

// PotentialPayout is stake × combined odds, unrounded.
func PotentialPayout(stake int64, lines []domain.BetLine) decimal.Decimal {
	return decimal.NewFromInt(stake).Mul(CombinedOdds(lines))
}

// Quote is the priced view of the slip shown before confirmation.
type Quote struct {
	Lines           []domain.BetLine `json:"lines"`
	Stake           int64            `json:"stake"`
	CombinedOdds    float64          `json:"combined_odds"`
	PotentialPayout float64          `json:"potential_payout"`
	// DisplayPayout is PotentialPayout rounded to whole units.
	DisplayPayout int64 `json:"display_payout"`
}

// Outbox accepts domain events for asynchronous publication.
type Outbox interface {
	Enqueue(ctx context.Context, event domain.OutboxDraft) error
}

// Book is one session's sports mode: catalog browsing, the selection
// registry and ticket confirmation. It is safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	sessionID string
	catalog   *Catalog
	registry  *Registry
	wallet    round.Wallet
	sink      notify.Sink
	outbox    Outbox
	logger    *slog.Logger
	tickets   *round.History[domain.Ticket]
	now       func() time.Time
}

// BookOption configures a Book.
type BookOption func(*Book)

// WithOutbox publishes a ticket-confirmed event for every confirmed ticket.
func WithOutbox(o Outbox) BookOption { return func(b *Book) { b.outbox = o } }

// NewBook creates an empty slip over the catalog.
func NewBook(sessionID string, catalog *Catalog, wallet round.Wallet, sink notify.Sink, logger *slog.Logger, opts ...BookOption) *Book {
	b := &Book{
		sessionID: sessionID,
		catalog:   catalog,
		registry:  NewRegistry(),
		wallet:    wallet,
		sink:      sink,
		logger:    logger,
		tickets:   round.NewHistory[domain.Ticket](TicketHistorySize),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Matches lists the catalog, optionally filtered by sport.
func (b *Book) Matches(sport domain.Sport) []domain.Match {
	return b.catalog.BySport(sport)
}

// Select toggles an outcome of a catalog match.
func (b *Book) Select(matchID string, outcome domain.OutcomeType) (bool, error) {
	m, err := b.catalog.Get(matchID)
	if err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Select(m, outcome)
}

// IsSelected reports whether a key is on the slip.
func (b *Book) IsSelected(key domain.SelectionKey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.IsSelected(key)
}

// RemoveLine drops one line. It reports whether the key was present.
func (b *Book) RemoveLine(key domain.SelectionKey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Remove(key)
}

// RemoveAll clears the slip.
func (b *Book) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry.Clear()
}

// Lines returns the current bet lines.
func (b *Book) Lines() []domain.BetLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Lines()
}

// Quote prices the slip for a stake without validating it.
func (b *Book) Quote(stake int64) Quote {
	b.mu.Lock()
	defer b.mu.Unlock()
	return quote(b.registry.Lines(), stake)
}

func quote(lines []domain.BetLine, stake int64) Quote {
	payout := PotentialPayout(stake, lines)
	return Quote{
		Lines:           lines,
		Stake:           stake,
		CombinedOdds:    CombinedOdds(lines).InexactFloat64(),
		PotentialPayout: payout.InexactFloat64(),
		DisplayPayout:   payout.Round(0).IntPart(),
	}
}

// Confirm turns the slip into a ticket: it debits the stake and clears the
// selections in one step. Rejected confirmations change nothing.
func (b *Book) Confirm(ctx context.Context, stake int64) (*domain.Ticket, error) {
	b.mu.Lock()
	lines := b.registry.Lines()
	if len(lines) == 0 {
		b.mu.Unlock()
		return nil, domain.ErrInvalidSelection("bet slip has no selections")
	}
	if err := domain.ValidateStake(stake, b.wallet.Balance()); err != nil {
		b.mu.Unlock()
		return nil, err
	}

	q := quote(lines, stake)
	ticket := &domain.Ticket{
		ID:              uuid.New(),
		Lines:           lines,
		Stake:           stake,
		CombinedOdds:    q.CombinedOdds,
		PotentialPayout: q.PotentialPayout,
		ConfirmedAt:     b.now().UTC(),
	}
	b.wallet.Debit(ctx, stake, "ticket:"+ticket.ID.String())
	b.registry.Clear()
	b.tickets.Push(*ticket)
	b.mu.Unlock()

	b.logger.Info("ticket confirmed",
		"session_id", b.sessionID, "ticket_id", ticket.ID,
		"lines", len(lines), "stake", stake, "combined_odds", q.CombinedOdds)

	b.sink.Notify(ctx, domain.NewNotification(domain.NotifySuccess,
		fmt.Sprintf("Bet placed: %s staked, potential payout %s",
			domain.FormatAmount(stake), domain.FormatAmount(q.DisplayPayout))))

	if b.outbox != nil {
		if err := b.outbox.Enqueue(ctx, domain.NewTicketConfirmedEvent(b.sessionID, ticket)); err != nil {
			b.logger.Error("enqueue ticket event failed", "ticket_id", ticket.ID, "error", err)
		}
	}
	return ticket, nil
}

// Tickets returns confirmed tickets, newest first.
func (b *Book) Tickets() []domain.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tickets.Items()
}
