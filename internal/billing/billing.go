// Package billing abstracts the payment provider behind an interface so
// services and tests never touch the Stripe SDK directly.
package billing

import (
	"context"
	"time"
)

// Webhook event types the checkout flow reacts to. Values follow the
// provider's naming so logs line up with the provider dashboard.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventPaymentIntentFailed = "payment_intent.payment_failed"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout page for an order and
	// returns the session id and redirect URL.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// ConstructWebhookEvent verifies a webhook payload against its
	// signature and parses it into a provider-neutral event. Verification
	// failures return ErrInvalidWebhookSignature.
	ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// LineItem is one row on the hosted checkout page. Discounts appear as a
// line with a negative unit amount, mirroring the order breakdown.
type LineItem struct {
	// Name shown to the customer
	Name string

	// Description shown under the name (optional)
	Description string

	// Image URL for the line (optional)
	Image string

	// UnitAmountCents in smallest currency unit; may be negative for
	// discount lines
	UnitAmountCents int64

	// Quantity of this line item
	Quantity int64
}

// CreateCheckoutSessionParams contains parameters for opening a session.
type CreateCheckoutSessionParams struct {
	// OrderID is recorded in session metadata so the webhook can find the
	// order again
	OrderID string

	// LineItems: one per order item, plus the delivery option, plus an
	// optional negative discount line
	LineItems []LineItem

	// Currency code (ISO 4217 lowercase), e.g. "usd"
	Currency string

	// CustomerEmail prefills the checkout page
	CustomerEmail string

	// SuccessURL and CancelURL are where the provider redirects after
	// payment; SuccessURL carries the session id placeholder
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the created hosted session.
type CheckoutSession struct {
	// ID is the provider session id (cs_...)
	ID string

	// URL is the hosted checkout page to redirect the customer to
	URL string

	// ExpiresAt is when the session stops accepting payment
	ExpiresAt time.Time
}

// WebhookEvent is a verified, provider-neutral webhook delivery.
type WebhookEvent struct {
	// ID is the provider event id (evt_...), the dedup key
	ID string

	// Type is the provider event type string
	Type string

	// OrderID from session metadata, when present
	OrderID string

	// SessionID of the checkout session the event concerns, when present
	SessionID string

	// PaymentIntentID recorded on the order after payment, when present
	PaymentIntentID string
}
