package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind selects how a notification is displayed.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is an outbound display event. Delivery is fire-and-forget.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	SessionID string           `json:"session_id,omitempty"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification stamps a notification with an id and creation time.
func NewNotification(kind NotificationKind, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}
