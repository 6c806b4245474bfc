package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/events"
	"github.com/copperline/storefront/internal/store/memory"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	events []events.OrderEvent
}

func (p *capturePublisher) PublishOrderEvent(_ context.Context, e events.OrderEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() {}

type orderFixture struct {
	svc       *OrderService
	cartSvc   *CartService
	orders    *memory.OrderStore
	carts     *memory.CartStore
	published *capturePublisher
}

func newOrderFixture(t *testing.T, products ...domain.Product) *orderFixture {
	t.Helper()

	productStore := memory.NewProductStore()
	for i := range products {
		require.NoError(t, productStore.Put(context.Background(), &products[i]))
	}
	cartStore := memory.NewCartStore()
	orderStore := memory.NewOrderStore()
	published := &capturePublisher{}

	return &orderFixture{
		svc:       NewOrderService(orderStore, cartStore, published, zerolog.Nop(), nil),
		cartSvc:   NewCartService(cartStore, productStore, zerolog.Nop(), nil),
		orders:    orderStore,
		carts:     cartStore,
		published: published,
	}
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "London",
		State:      "LDN",
		PostalCode: "EC1A",
		Country:    "GB",
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	p := testProduct("headphones", "100.00", 5)
	f := newOrderFixture(t, p)
	ctx := context.Background()

	userID := uuid.New()
	owner := "user:" + userID.String()
	_, err := f.cartSvc.AddItem(ctx, owner, p.ID, "", 2)
	require.NoError(t, err)
	_, err = f.cartSvc.ApplyPromoCode(ctx, owner, "SAVE10")
	require.NoError(t, err)

	order, err := f.svc.CreateOrder(ctx, owner, userID, "", testAddress(), "express")
	require.NoError(t, err)

	// subtotal 200 + tax 20 - discount 20 + shipping 12.99
	require.True(t, order.Subtotal.Equal(dec("200.00")), "subtotal = %s", order.Subtotal)
	require.True(t, order.Tax.Equal(dec("20.00")), "tax = %s", order.Tax)
	require.True(t, order.Discount.Equal(dec("20.00")), "discount = %s", order.Discount)
	require.True(t, order.Shipping.Equal(dec("12.99")), "shipping = %s", order.Shipping)
	require.True(t, order.Total.Equal(dec("212.99")), "total = %s", order.Total)

	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Timeline, 1)
	require.Equal(t, "SAVE10", order.PromoCode)

	// The cart survives until payment is confirmed.
	count, err := f.cartSvc.ItemCount(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.Len(t, f.published.events, 1)
	require.Equal(t, events.OrderCreated, f.published.events[0].Type)
	require.Equal(t, userID.String(), f.published.events[0].UserID)
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "guest:abc", uuid.Nil, "a@b.co", testAddress(), "standard")
	require.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestOrderService_CreateOrder_GuestNeedsEmail(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "guest:abc", uuid.Nil, "", testAddress(), "standard")
	require.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestOrderService_CreateOrder_UnknownDeliveryOption(t *testing.T) {
	p := testProduct("headphones", "100.00", 5)
	f := newOrderFixture(t, p)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, "guest:abc", p.ID, "", 1)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, "guest:abc", uuid.Nil, "a@b.co", testAddress(), "teleport")
	require.ErrorIs(t, err, domain.ErrDeliveryOptionUnknown)
}

func TestOrderService_GetOrder_Ownership(t *testing.T) {
	p := testProduct("headphones", "100.00", 5)
	f := newOrderFixture(t, p)
	ctx := context.Background()

	userID := uuid.New()
	owner := "user:" + userID.String()
	_, err := f.cartSvc.AddItem(ctx, owner, p.ID, "", 1)
	require.NoError(t, err)
	order, err := f.svc.CreateOrder(ctx, owner, userID, "", testAddress(), "standard")
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, order.ID, &domain.Identity{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	// Another user reads it as not found rather than forbidden.
	_, err = f.svc.GetOrder(ctx, order.ID, &domain.Identity{UserID: uuid.New()})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Admins see everything.
	_, err = f.svc.GetOrder(ctx, order.ID, &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
}

func TestOrderService_ListOrders(t *testing.T) {
	p := testProduct("headphones", "100.00", 10)
	f := newOrderFixture(t, p)
	ctx := context.Background()

	userID := uuid.New()
	owner := "user:" + userID.String()
	for i := 0; i < 3; i++ {
		_, err := f.cartSvc.AddItem(ctx, owner, p.ID, "", 1)
		require.NoError(t, err)
		_, err = f.svc.CreateOrder(ctx, owner, userID, "", testAddress(), "standard")
		require.NoError(t, err)
	}

	orders, page, err := f.svc.ListOrders(ctx, userID, 1, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.TotalPages)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	p := testProduct("headphones", "100.00", 5)
	f := newOrderFixture(t, p)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, "guest:abc", p.ID, "", 1)
	require.NoError(t, err)
	order, err := f.svc.CreateOrder(ctx, "guest:abc", uuid.Nil, "a@b.co", testAddress(), "standard")
	require.NoError(t, err)

	// pending -> shipped skips processing and is rejected.
	_, err = f.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped, "")
	require.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	order, err = f.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, "picked")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusProcessing, order.Status)
	require.Len(t, order.Timeline, 2)

	order, err = f.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, "customer request")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, order.Status)

	// Cancelled is terminal.
	_, err = f.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, "")
	require.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
