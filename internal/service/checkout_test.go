package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/billing"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/events"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/store/memory"
)

type checkoutFixture struct {
	svc       *CheckoutService
	orderSvc  *OrderService
	cartSvc   *CartService
	provider  *billing.MockProvider
	products  *memory.ProductStore
	carts     *memory.CartStore
	orders    *memory.OrderStore
	webhooks  *memory.WebhookStore
	published *capturePublisher
}

func newCheckoutFixture(t *testing.T, products ...domain.Product) *checkoutFixture {
	t.Helper()

	productStore := memory.NewProductStore()
	for i := range products {
		require.NoError(t, productStore.Put(context.Background(), &products[i]))
	}
	cartStore := memory.NewCartStore()
	orderStore := memory.NewOrderStore()
	webhookStore := memory.NewWebhookStore()
	provider := billing.NewMockProvider()
	published := &capturePublisher{}

	return &checkoutFixture{
		svc: NewCheckoutService(provider, orderStore, cartStore, productStore,
			webhookStore, published, "https://shop.example.com", zerolog.Nop(), nil),
		orderSvc:  NewOrderService(orderStore, cartStore, published, zerolog.Nop(), nil),
		cartSvc:   NewCartService(cartStore, productStore, zerolog.Nop(), nil),
		provider:  provider,
		products:  productStore,
		carts:     cartStore,
		orders:    orderStore,
		webhooks:  webhookStore,
		published: published,
	}
}

// flakyOrderStore fails the next failuresLeft Update calls, then delegates.
type flakyOrderStore struct {
	store.OrderStore
	failuresLeft int
}

func (s *flakyOrderStore) Update(ctx context.Context, order *domain.Order) error {
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return errors.New("store offline")
	}
	return s.OrderStore.Update(ctx, order)
}

// placeOrder runs the cart->order flow and returns the pending order.
func (f *checkoutFixture) placeOrder(t *testing.T, productID uuid.UUID, qty int, promo string) *domain.Order {
	t.Helper()
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, "guest:abc", productID, "", qty)
	require.NoError(t, err)
	if promo != "" {
		_, err = f.cartSvc.ApplyPromoCode(ctx, "guest:abc", promo)
		require.NoError(t, err)
	}

	order, err := f.orderSvc.CreateOrder(ctx, "guest:abc", uuid.Nil, "a@b.co", testAddress(), "standard")
	require.NoError(t, err)
	return order
}

func TestCheckoutService_CreateCheckoutSession(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	ctx := context.Background()
	order := f.placeOrder(t, p.ID, 2, "SAVE10")

	identity := &domain.Identity{GuestToken: "abc"}
	session, err := f.svc.CreateCheckoutSession(ctx, order.ID, identity)
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
	require.NotEmpty(t, session.URL)

	params := f.provider.LastParams
	require.NotNil(t, params)
	require.Equal(t, order.ID.String(), params.OrderID)
	require.Equal(t, "a@b.co", params.CustomerEmail)
	require.Contains(t, params.SuccessURL, "{CHECKOUT_SESSION_ID}")
	require.Contains(t, params.CancelURL, "order_id="+order.ID.String())

	// One line per item, one for delivery, one negative discount line.
	require.Len(t, params.LineItems, 3)
	require.Equal(t, int64(9999), params.LineItems[0].UnitAmountCents)
	require.Equal(t, int64(2), params.LineItems[0].Quantity)
	require.Equal(t, int64(599), params.LineItems[1].UnitAmountCents)
	require.Equal(t, "Discount (SAVE10)", params.LineItems[2].Name)
	require.Equal(t, int64(-2000), params.LineItems[2].UnitAmountCents)

	// The session id is recorded on the order.
	got, err := f.orderSvc.GetOrderBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
}

func TestCheckoutService_CreateCheckoutSession_NotOwner(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	order := f.placeOrder(t, p.ID, 1, "")

	_, err := f.svc.CreateCheckoutSession(context.Background(), order.ID, &domain.Identity{GuestToken: "someone-else"})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCheckoutService_CreateCheckoutSession_ProviderError(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	order := f.placeOrder(t, p.ID, 1, "")

	f.provider.CreateCheckoutSessionFunc = func(context.Context, billing.CreateCheckoutSessionParams) (*billing.CheckoutSession, error) {
		return nil, billing.ErrPaymentFailed
	}

	_, err := f.svc.CreateCheckoutSession(context.Background(), order.ID, &domain.Identity{GuestToken: "abc"})
	require.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
}

func TestCheckoutService_HandleWebhookEvent_CheckoutCompleted(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	ctx := context.Background()
	order := f.placeOrder(t, p.ID, 2, "")

	f.provider.ConstructWebhookEventFunc = func([]byte, string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:              "evt_1",
			Type:            billing.EventCheckoutCompleted,
			OrderID:         order.ID.String(),
			PaymentIntentID: "pi_1",
		}, nil
	}

	result, err := f.svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.True(t, result.Handled)
	require.False(t, result.Duplicate)
	require.Equal(t, order.ID, result.OrderID)

	got, err := f.orderSvc.GetOrder(ctx, order.ID, &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(t, domain.OrderStatusProcessing, got.Status)
	require.Equal(t, "pi_1", got.StripePaymentIntentID)

	// Stock is decremented once payment confirms.
	product, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 3, product.Stock)

	// The buyer's cart is cleared.
	count, err := f.cartSvc.ItemCount(ctx, "guest:abc")
	require.NoError(t, err)
	require.Zero(t, count)

	// A paid event went out.
	var sawPaid bool
	for _, e := range f.published.events {
		if e.Type == events.OrderPaid {
			sawPaid = true
		}
	}
	require.True(t, sawPaid)
}

func TestCheckoutService_HandleWebhookEvent_Duplicate(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	ctx := context.Background()
	order := f.placeOrder(t, p.ID, 2, "")

	f.provider.ConstructWebhookEventFunc = func([]byte, string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:      "evt_dup",
			Type:    billing.EventCheckoutCompleted,
			OrderID: order.ID.String(),
		}, nil
	}

	first, err := f.svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.True(t, first.Handled)

	second, err := f.svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.False(t, second.Handled)

	// The redelivery decremented nothing.
	product, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 3, product.Stock)
}

func TestCheckoutService_HandleWebhookEvent_RetryAfterApplyFailure(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	ctx := context.Background()
	order := f.placeOrder(t, p.ID, 1, "")

	flaky := &flakyOrderStore{OrderStore: f.orders, failuresLeft: 1}
	svc := NewCheckoutService(f.provider, flaky, f.carts, f.products,
		f.webhooks, f.published, "https://shop.example.com", zerolog.Nop(), nil)

	f.provider.ConstructWebhookEventFunc = func([]byte, string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:      "evt_retry",
			Type:    billing.EventCheckoutCompleted,
			OrderID: order.ID.String(),
		}, nil
	}

	_, err := svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.Error(t, err)

	// The provider redelivers the same event id; the failed apply must not
	// have burned the claim.
	result, err := svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.True(t, result.Handled)

	got, err := f.orderSvc.GetOrder(ctx, order.ID, &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
}

func TestCheckoutService_HandleWebhookEvent_InvalidSignature(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.HandleWebhookEvent(context.Background(), []byte("{}"), "")
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestCheckoutService_HandleWebhookEvent_PaymentFailed(t *testing.T) {
	p := testProduct("headphones", "99.99", 5)
	f := newCheckoutFixture(t, p)
	ctx := context.Background()
	order := f.placeOrder(t, p.ID, 1, "")

	f.provider.ConstructWebhookEventFunc = func([]byte, string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:      "evt_fail",
			Type:    billing.EventPaymentIntentFailed,
			OrderID: order.ID.String(),
		}, nil
	}

	result, err := f.svc.HandleWebhookEvent(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.True(t, result.Handled)

	got, err := f.orderSvc.GetOrder(ctx, order.ID, &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusFailed, got.PaymentStatus)
	require.Equal(t, domain.OrderStatusPending, got.Status)

	// Stock and cart are untouched on failure.
	product, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, product.Stock)
}

func TestCheckoutService_HandleWebhookEvent_UnhandledType(t *testing.T) {
	f := newCheckoutFixture(t)

	f.provider.ConstructWebhookEventFunc = func([]byte, string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{ID: "evt_other", Type: "charge.updated"}, nil
	}

	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	require.False(t, result.Handled)
	require.False(t, result.Duplicate)
}
