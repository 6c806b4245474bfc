package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful checkout flows without calling the Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// ConstructWebhookEventFunc allows customizing webhook verification behavior
	ConstructWebhookEventFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores created sessions keyed by id for assertions
	Sessions map[string]*CheckoutSession

	// LastParams records the most recent session params for assertions
	LastParams *CreateCheckoutSessionParams

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(order=%s, lines=%d)", params.OrderID, len(params.LineItems)))
	p := params
	m.LastParams = &p

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	// Default mock behavior: successful session
	sess := &CheckoutSession{
		ID:        "cs_test_" + uuid.New().String(),
		URL:       "https://checkout.stripe.com/pay/cs_test_mock",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	m.Sessions[sess.ID] = sess
	return sess, nil
}

// ConstructWebhookEvent verifies nothing and echoes a parsed event.
func (m *MockProvider) ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ConstructWebhookEvent(sig=%s)", signature))

	if m.ConstructWebhookEventFunc != nil {
		return m.ConstructWebhookEventFunc(payload, signature)
	}

	if signature == "" {
		return nil, ErrInvalidWebhookSignature
	}
	return &WebhookEvent{ID: "evt_" + uuid.New().String(), Type: EventCheckoutCompleted}, nil
}
