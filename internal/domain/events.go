package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventTransactionPosted EventType = "wager.ledger.transaction.posted"
	EventRoundSettled      EventType = "wager.round.settled"
	EventTicketConfirmed   EventType = "wager.ticket.confirmed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateLedger AggregateType = "ledger"
	AggregateRound  AggregateType = "round"
	AggregateTicket AggregateType = "ticket"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func newDraft(agg AggregateType, aggID string, evt EventType, partition string, v any) OutboxDraft {
	payload, _ := json.Marshal(v)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		PartitionKey:  partition,
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewTransactionPostedEvent creates the ledger event for a journal entry.
func NewTransactionPostedEvent(tx *Transaction) OutboxDraft {
	return newDraft(AggregateLedger, tx.SessionID, EventTransactionPosted, tx.SessionID, tx)
}

// NewRoundSettledEvent creates the event emitted once a ladder or race round resolves.
func NewRoundSettledEvent(r *RoundResult) OutboxDraft {
	return newDraft(AggregateRound, r.RoundID, EventRoundSettled, r.SessionID, r)
}

// NewTicketConfirmedEvent creates the event for a confirmed sports ticket.
func NewTicketConfirmedEvent(sessionID string, t *Ticket) OutboxDraft {
	return newDraft(AggregateTicket, t.ID.String(), EventTicketConfirmed, sessionID, t)
}

// OutboxRecord is a stored outbox event with its table sequence id.
type OutboxRecord struct {
	SeqID int64
	OutboxDraft
}
