// Package notify delivers display notifications. Delivery is fire-and-forget:
// sinks never report failure back to the game that produced the notification.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/google/uuid"
)

// Sink accepts notifications for display.
type Sink interface {
	Notify(ctx context.Context, n domain.Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n domain.Notification)

func (f SinkFunc) Notify(ctx context.Context, n domain.Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, domain.Notification) {})

// Multi fans a notification out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, n domain.Notification) {
		for _, s := range sinks {
			s.Notify(ctx, n)
		}
	})
}

// WithSession stamps the session id on notifications before passing them on.
func WithSession(sessionID string, next Sink) Sink {
	return SinkFunc(func(ctx context.Context, n domain.Notification) {
		n.SessionID = sessionID
		next.Notify(ctx, n)
	})
}

// DefaultInboxSize bounds how many undismissed notifications a session keeps.
const DefaultInboxSize = 50

// Inbox is the per-session list of notifications awaiting dismissal.
type Inbox struct {
	mu    sync.Mutex
	limit int
	items []domain.Notification
}

// NewInbox creates an inbox holding at most limit notifications.
func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = DefaultInboxSize
	}
	return &Inbox{limit: limit}
}

// Notify appends n, evicting the oldest entry when full.
func (i *Inbox) Notify(_ context.Context, n domain.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, n)
	if over := len(i.items) - i.limit; over > 0 {
		i.items = append([]domain.Notification(nil), i.items[over:]...)
	}
}

// List returns the pending notifications, oldest first.
func (i *Inbox) List() []domain.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]domain.Notification, len(i.items))
	copy(out, i.items)
	return out
}

// Dismiss removes a notification. It reports whether the id was present.
func (i *Inbox) Dismiss(id uuid.UUID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx, n := range i.items {
		if n.ID == id {
			i.items = append(i.items[:idx], i.items[idx+1:]...)
			return true
		}
	}
	return false
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink { return &LogSink{logger: logger} }

func (s *LogSink) Notify(ctx context.Context, n domain.Notification) {
	s.logger.InfoContext(ctx, "notification",
		"session_id", n.SessionID,
		"kind", n.Kind,
		"message", n.Message,
	)
}

// Publisher is the room fan-out used by HubSink.
type Publisher interface {
	PublishToSession(sessionID string, event string, data any)
}

// HubSink pushes notifications to the session's live connections.
type HubSink struct {
	hub Publisher
}

func NewHubSink(hub Publisher) *HubSink { return &HubSink{hub: hub} }

func (s *HubSink) Notify(_ context.Context, n domain.Notification) {
	if n.SessionID == "" {
		return
	}
	s.hub.PublishToSession(n.SessionID, "notification", n)
}

// MessageProducer is the topic writer used by KafkaSink.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaSink publishes notifications as JSON keyed by session id.
type KafkaSink struct {
	producer MessageProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaSink(producer MessageProducer, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

func (s *KafkaSink) Notify(ctx context.Context, n domain.Notification) {
	value, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("marshal notification", "error", err)
		return
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(n.SessionID), value); err != nil {
		s.logger.Warn("publish notification failed", "session_id", n.SessionID, "topic", s.topic, "error", err)
	}
}

// Relay returns a message handler that forwards notifications read back from
// the notifications topic to the local hub. Every API instance consumes the
// topic so a session's stream sees results settled on any instance.
func Relay(hub Publisher, logger *slog.Logger) func(ctx context.Context, key, value []byte) error {
	sink := NewHubSink(hub)
	return func(ctx context.Context, key, value []byte) error {
		var n domain.Notification
		if err := json.Unmarshal(value, &n); err != nil {
			logger.Warn("dropping malformed notification", "key", string(key), "error", err)
			return nil
		}
		if n.SessionID == "" {
			n.SessionID = string(key)
		}
		sink.Notify(ctx, n)
		return nil
	}
}
