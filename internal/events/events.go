// Package events publishes order lifecycle notifications. The database stays
// the source of truth; events are emitted after a transaction commits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeOrderPlaced        Type = "order.placed"
	TypeOrderCancelled     Type = "order.cancelled"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeUserSuspended      Type = "user.suspended"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	OrderID    string         `json:"orderId"`
	UserID     string         `json:"userId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func New(t Type, orderID, userID string, at time.Time, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    orderID,
		UserID:     userID,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// Key is the partition key; events for one order stay ordered.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.UserID
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
