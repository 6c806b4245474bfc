package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/billing"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/events"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/telemetry"
)

// CheckoutService implements domain.CheckoutService. It opens provider
// checkout sessions for pending orders and reconciles provider webhook
// deliveries back onto them. Webhook handling is idempotent: the event id
// is claimed before any state changes, so a redelivered event is a no-op.
// A failed apply releases the claim, keeping the provider's retries viable.
type CheckoutService struct {
	provider  billing.Provider
	orders    store.OrderStore
	carts     store.CartStore
	products  store.ProductStore
	webhooks  store.WebhookStore
	publisher events.Publisher
	baseURL   string
	logger    zerolog.Logger
	metrics   *telemetry.BusinessMetrics
}

// Compile-time check that CheckoutService implements domain.CheckoutService.
var _ domain.CheckoutService = (*CheckoutService)(nil)

// NewCheckoutService creates a new CheckoutService instance. baseURL is the
// storefront origin used to build the success and cancel redirect URLs.
func NewCheckoutService(
	provider billing.Provider,
	orders store.OrderStore,
	carts store.CartStore,
	products store.ProductStore,
	webhooks store.WebhookStore,
	publisher events.Publisher,
	baseURL string,
	logger zerolog.Logger,
	metrics *telemetry.BusinessMetrics,
) *CheckoutService {
	return &CheckoutService{
		provider:  provider,
		orders:    orders,
		carts:     carts,
		products:  products,
		webhooks:  webhooks,
		publisher: publisher,
		baseURL:   baseURL,
		logger:    logger.With().Str("service", "checkout").Logger(),
		metrics:   metrics,
	}
}

// CreateCheckoutSession opens a hosted checkout session for a pending order
// and records the session id on it. Line items mirror the order breakdown:
// one per product line, one for delivery, and a negative discount line when
// a promo code applies.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, identity *domain.Identity) (*domain.CheckoutSession, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "checkout.createSession", "failed to load order")
	}

	if !order.VisibleTo(identity) {
		return nil, domain.ErrOrderNotFound
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		return nil, domain.Errorf(domain.EINVALID, "checkout.createSession",
			"order payment is already %s", order.PaymentStatus)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		OrderID:       order.ID.String(),
		LineItems:     s.buildLineItems(order),
		Currency:      "usd",
		CustomerEmail: order.GuestEmail,
		SuccessURL:    fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}", s.baseURL),
		CancelURL:     fmt.Sprintf("%s/checkout/cancel?order_id=%s", s.baseURL, order.ID),
	})
	if err != nil {
		return nil, domain.Payment(err, "checkout.createSession", "failed to create checkout session")
	}

	order.StripeSessionID = session.ID
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, domain.Internal(err, "checkout.createSession", "failed to record session id")
	}

	if s.metrics != nil {
		s.metrics.RecordCheckoutStarted()
	}
	s.logger.Info().Str("order_id", order.ID.String()).Str("session_id", session.ID).
		Msg("checkout session created")

	return &domain.CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// buildLineItems flattens an order into provider line items.
func (s *CheckoutService) buildLineItems(order *domain.Order) []billing.LineItem {
	items := make([]billing.LineItem, 0, len(order.Items)+2)
	for _, item := range order.Items {
		items = append(items, billing.LineItem{
			Name:            item.Name,
			Image:           item.Image,
			UnitAmountCents: domain.MinorUnits(item.Price),
			Quantity:        int64(item.Quantity),
		})
	}

	items = append(items, billing.LineItem{
		Name:            order.DeliveryOption.Name,
		Description:     fmt.Sprintf("Delivery in %d days", order.DeliveryOption.EstimatedDays),
		UnitAmountCents: domain.MinorUnits(order.DeliveryOption.Price),
		Quantity:        1,
	})

	if order.Discount.IsPositive() {
		items = append(items, billing.LineItem{
			Name:            fmt.Sprintf("Discount (%s)", order.PromoCode),
			UnitAmountCents: -domain.MinorUnits(order.Discount),
			Quantity:        1,
		})
	}
	return items
}

// HandleWebhookEvent verifies a provider delivery and applies it. Signature
// failures surface as errors (the handler answers 400 so the provider
// retries); everything after verification is acked, including duplicates
// and event types we don't act on.
func (s *CheckoutService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (*domain.WebhookResult, error) {
	start := time.Now()

	event, err := s.provider.ConstructWebhookEvent(payload, signature)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWebhookFailed("signature")
		}
		return nil, domain.Unauthorized("checkout.webhook", "invalid webhook signature")
	}

	if s.metrics != nil {
		s.metrics.RecordWebhookReceived(event.Type)
	}
	result := &domain.WebhookResult{EventID: event.ID, EventType: event.Type}

	// Claim the event id before touching any state. Losing the claim means
	// another delivery of this event already ran (or is running).
	winner, err := s.webhooks.MarkProcessed(ctx, event.ID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWebhookFailed("dedup")
		}
		return nil, domain.Internal(err, "checkout.webhook", "failed to record webhook event")
	}
	if !winner {
		result.Duplicate = true
		s.logger.Info().Str("event_id", event.ID).Str("type", event.Type).
			Msg("duplicate webhook delivery ignored")
		return result, nil
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event, result)
	case billing.EventPaymentIntentFailed:
		err = s.handlePaymentFailed(ctx, event, result)
	default:
		s.logger.Debug().Str("event_id", event.ID).Str("type", event.Type).
			Msg("unhandled webhook event type")
	}
	if err != nil {
		// Release the claim so the provider's retry of this event id is not
		// swallowed as a duplicate.
		if uerr := s.webhooks.Unmark(ctx, event.ID); uerr != nil {
			s.logger.Error().Err(uerr).Str("event_id", event.ID).
				Msg("failed to release webhook claim")
		}
		if s.metrics != nil {
			s.metrics.RecordWebhookFailed("apply")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordWebhookProcessed(event.Type, time.Since(start))
	}
	return result, nil
}

// handleCheckoutCompleted marks the order paid, decrements stock for every
// line and clears the buyer's cart. Runs at most once per event id.
func (s *CheckoutService) handleCheckoutCompleted(ctx context.Context, event *billing.WebhookEvent, result *domain.WebhookResult) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	result.OrderID = order.ID

	if !domain.CanTransitionPayment(order.PaymentStatus, domain.PaymentStatusPaid) {
		// Already paid via another path; nothing to apply.
		s.logger.Warn().Str("order_id", order.ID.String()).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("checkout completed for non-pending payment")
		return nil
	}

	now := time.Now().UTC()
	order.PaymentStatus = domain.PaymentStatusPaid
	order.StripePaymentIntentID = event.PaymentIntentID
	if domain.CanTransition(order.Status, domain.OrderStatusProcessing) {
		order.Status = domain.OrderStatusProcessing
		order.Timeline = append(order.Timeline, domain.TimelineEntry{
			Status: domain.OrderStatusProcessing,
			Note:   "Payment confirmed",
			At:     now,
		})
	}
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		return domain.Internal(err, "checkout.webhook", "failed to save order")
	}

	for _, item := range order.Items {
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			// Stock drift is recoverable by hand; the payment is not.
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("failed to decrement stock")
		}
	}

	if order.OwnerKey != "" {
		if err := s.carts.DeleteByOwner(ctx, order.OwnerKey); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn().Err(err).Str("order_id", order.ID.String()).
				Msg("failed to clear cart after payment")
		}
	}

	s.publish(ctx, events.OrderPaid, order)
	if s.metrics != nil {
		s.metrics.RecordCheckoutCompleted(order.Total)
	}
	s.logger.Info().Str("order_id", order.ID.String()).Str("event_id", event.ID).
		Str("total", order.Total.String()).Msg("order paid")
	result.Handled = true
	return nil
}

// handlePaymentFailed records the failed payment attempt on the order.
func (s *CheckoutService) handlePaymentFailed(ctx context.Context, event *billing.WebhookEvent, result *domain.WebhookResult) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	result.OrderID = order.ID

	if !domain.CanTransitionPayment(order.PaymentStatus, domain.PaymentStatusFailed) {
		return nil
	}

	order.PaymentStatus = domain.PaymentStatusFailed
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return domain.Internal(err, "checkout.webhook", "failed to save order")
	}

	s.publish(ctx, events.OrderPaymentFailed, order)
	s.logger.Info().Str("order_id", order.ID.String()).Str("event_id", event.ID).
		Msg("order payment failed")
	result.Handled = true
	return nil
}

// resolveOrder finds the order an event refers to, preferring the metadata
// order id and falling back to the session id.
func (s *CheckoutService) resolveOrder(ctx context.Context, event *billing.WebhookEvent) (*domain.Order, error) {
	if event.OrderID != "" {
		id, err := uuid.Parse(event.OrderID)
		if err != nil {
			return nil, domain.Invalid("checkout.webhook", "malformed order id in event metadata")
		}
		order, err := s.orders.GetByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		if err != nil {
			return nil, domain.Internal(err, "checkout.webhook", "failed to load order")
		}
		return order, nil
	}

	if event.SessionID != "" {
		order, err := s.orders.GetBySessionID(ctx, event.SessionID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		if err != nil {
			return nil, domain.Internal(err, "checkout.webhook", "failed to load order")
		}
		return order, nil
	}

	return nil, domain.Invalid("checkout.webhook", "event carries no order reference")
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).
			Str("order_id", order.ID.String()).Msg("order event publish failed")
	}
}
