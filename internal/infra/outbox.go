package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
)

// TopicPrefix namespaces every relayed outbox topic.
const TopicPrefix = "faketoto."

// OutboxStore is the storage side of the relay.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

// EventPublisher writes one message to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller drains the event_outbox table to Kafka.
type OutboxPoller struct {
	store     OutboxStore
	producer  EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(store OutboxStore, producer EventPublisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Topic is the Kafka topic an outbox event is relayed to.
func Topic(d domain.OutboxDraft) string {
	return TopicPrefix + string(d.AggregateType) + "." + string(d.EventType)
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Poll relays one batch and returns how many events were published. Events
// that fail to publish stay in the table for the next poll.
func (p *OutboxPoller) Poll(ctx context.Context) (int, error) {
	records, err := p.store.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		msg, err := json.Marshal(map[string]any{
			"event_id":       r.EventID,
			"aggregate_type": r.AggregateType,
			"aggregate_id":   r.AggregateID,
			"event_type":     r.EventType,
			"payload":        r.Payload,
			"occurred_at":    r.OccurredAt,
		})
		if err != nil {
			p.logger.Error("outbox marshal failed", "event_id", r.EventID, "error", err)
			continue
		}

		if err := p.producer.Publish(ctx, Topic(r.OutboxDraft), []byte(r.PartitionKey), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", r.EventID, "error", err)
			continue
		}
		ids = append(ids, r.SeqID)
	}

	if err := p.store.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	p.logger.Debug("outbox poll complete", "published", len(ids))
	return len(ids), nil
}
