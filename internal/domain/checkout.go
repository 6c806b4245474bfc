package domain

import (
	"context"

	"github.com/google/uuid"
)

// CheckoutSession is the provider handle the client is redirected to.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// WebhookResult summarizes what a webhook delivery did, for logging.
type WebhookResult struct {
	EventID   string
	EventType string
	OrderID   uuid.UUID
	Duplicate bool
	Handled   bool
}

// CheckoutService drives the payment provider handoff and reconciles
// provider webhook events back onto orders.
type CheckoutService interface {
	// CreateCheckoutSession opens a provider checkout session for a pending
	// order and records the session id on the order.
	CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, identity *Identity) (*CheckoutSession, error)

	// HandleWebhookEvent verifies and applies a provider event. The raw
	// payload and signature header come straight off the request.
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}
