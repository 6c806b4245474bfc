// Package events publishes order lifecycle events for downstream consumers
// (fulfillment, email, analytics). Publishing is fire-and-forget; a failed
// publish never fails the request that triggered it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
)

// Order event types. The type doubles as the NATS subject suffix:
// orders.created, orders.paid, orders.status_changed, orders.payment_failed.
const (
	OrderCreated       = "created"
	OrderPaid          = "paid"
	OrderStatusChanged = "status_changed"
	OrderPaymentFailed = "payment_failed"
)

// OrderEvent is the JSON payload published for every order change.
type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId,omitempty"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	Total         decimal.Decimal `json:"total"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewOrderEvent builds the payload for an order in its current state.
func NewOrderEvent(eventType string, order *domain.Order) OrderEvent {
	e := OrderEvent{
		Type:          eventType,
		OrderID:       order.ID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total,
		OccurredAt:    time.Now().UTC(),
	}
	if order.UserID != uuid.Nil {
		e.UserID = order.UserID.String()
	}
	return e
}

// Publisher emits order events.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close()
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

// PublishOrderEvent discards the event.
func (NoopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

// Close is a no-op.
func (NoopPublisher) Close() {}
