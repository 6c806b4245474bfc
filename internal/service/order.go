package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/events"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/telemetry"
)

// OrderService implements domain.OrderService. Orders snapshot the cart at
// creation; the cart itself is only cleared once payment is confirmed.
type OrderService struct {
	orders    store.OrderStore
	carts     store.CartStore
	publisher events.Publisher
	logger    zerolog.Logger
	metrics   *telemetry.BusinessMetrics
}

// Compile-time check that OrderService implements domain.OrderService.
var _ domain.OrderService = (*OrderService)(nil)

// NewOrderService creates a new OrderService instance.
func NewOrderService(orders store.OrderStore, carts store.CartStore, publisher events.Publisher, logger zerolog.Logger, metrics *telemetry.BusinessMetrics) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		publisher: publisher,
		logger:    logger.With().Str("service", "order").Logger(),
		metrics:   metrics,
	}
}

// CreateOrder snapshots the owner's cart into a pending order.
// The order total is subtotal + tax - discount + shipping, all copied from
// the cart and the selected delivery option; nothing is recomputed later.
func (s *OrderService) CreateOrder(ctx context.Context, ownerKey string, userID uuid.UUID, guestEmail string, address domain.ShippingAddress, deliveryOptionID string) (*domain.Order, error) {
	if userID == uuid.Nil && guestEmail == "" {
		return nil, domain.Invalid("order.create", "guest checkout requires an email address")
	}

	option, ok := domain.DeliveryOptionByID(deliveryOptionID)
	if !ok {
		return nil, domain.ErrDeliveryOptionUnknown
	}

	cart, err := s.carts.GetByOwner(ctx, ownerKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrCartEmpty
	}
	if err != nil {
		return nil, domain.Internal(err, "order.create", "failed to load cart")
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	items := make([]domain.OrderItem, len(cart.Items))
	for i, ci := range cart.Items {
		items[i] = domain.OrderItem{
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Name:      ci.Name,
			Price:     ci.Price,
			Image:     ci.Image,
			Quantity:  ci.Quantity,
		}
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		GuestEmail:      guestEmail,
		OwnerKey:        ownerKey,
		Items:           items,
		ShippingAddress: address,
		DeliveryOption:  option,
		Subtotal:        cart.Subtotal,
		Tax:             cart.Tax,
		Discount:        cart.Discount,
		Shipping:        option.Price,
		Total:           cart.Subtotal.Add(cart.Tax).Sub(cart.Discount).Add(option.Price),
		PromoCode:       cart.PromoCode,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Timeline: []domain.TimelineEntry{
			{Status: domain.OrderStatusPending, Note: "Order created", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, domain.Internal(err, "order.create", "failed to save order")
	}

	s.publish(ctx, events.OrderCreated, order)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.Info().Str("order_id", order.ID.String()).
		Str("total", order.Total.String()).Int("items", len(order.Items)).
		Msg("order created")
	return order, nil
}

// GetOrder retrieves an order, enforcing ownership.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID, identity *domain.Identity) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}

	if !order.VisibleTo(identity) {
		// Hide the order's existence from non-owners.
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// GetOrderBySessionID retrieves the order for a Stripe checkout session.
func (s *OrderService) GetOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	order, err := s.orders.GetBySessionID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.getBySession", "failed to load order")
	}
	return order, nil
}

// ListOrders returns a user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.Order, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, domain.Pagination{}, domain.Internal(err, "order.list", "failed to list orders")
	}
	return orders, domain.NewPagination(page, limit, total), nil
}

// UpdateStatus moves an order through the fulfillment transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "order.updateStatus", "failed to load order")
	}

	if !domain.CanTransition(order.Status, status) {
		return nil, domain.Errorf(domain.EINVALID, "order.updateStatus",
			"cannot move order from %s to %s", order.Status, status)
	}

	now := time.Now().UTC()
	order.Status = status
	order.Timeline = append(order.Timeline, domain.TimelineEntry{Status: status, Note: note, At: now})
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, domain.Internal(err, "order.updateStatus", "failed to save order")
	}

	s.publish(ctx, events.OrderStatusChanged, order)
	s.logger.Info().Str("order_id", order.ID.String()).Str("status", string(status)).
		Msg("order status updated")
	return order, nil
}

// publish emits an order event, logging instead of failing on error.
func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).
			Str("order_id", order.ID.String()).Msg("order event publish failed")
	}
}
