package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order-related domain errors.
var (
	ErrOrderNotFound         = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrDeliveryOptionUnknown = &Error{Code: EINVALID, Message: "Unknown delivery option"}
	ErrPaymentNotSucceeded   = &Error{Code: EPAYMENT, Message: "Payment has not succeeded"}
)

// =============================================================================
// ORDER STATUS
// =============================================================================

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order, driven by webhook events.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// orderTransitions is the allowed fulfillment transition table.
// Delivered and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// paymentTransitions is the allowed payment transition table.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether a payment status change is allowed.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// =============================================================================
// ORDER DOMAIN TYPES
// =============================================================================

// OrderItem is an immutable snapshot of a cart line at order creation.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// ShippingAddress is the destination snapshot stored on the order.
type ShippingAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// TimelineEntry records one status change on an order.
type TimelineEntry struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
	At     time.Time   `json:"at"`
}

// DeliveryOption is one of the static shipping tiers.
type DeliveryOption struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"estimatedDays"`
}

// deliveryOptions are the fixed shipping tiers offered at checkout.
var deliveryOptions = []DeliveryOption{
	{ID: "standard", Name: "Standard Shipping", Description: "Delivered in 5-7 business days", Price: decimal.NewFromFloat(5.99), EstimatedDays: 7},
	{ID: "express", Name: "Express Shipping", Description: "Delivered in 2-3 business days", Price: decimal.NewFromFloat(12.99), EstimatedDays: 3},
	{ID: "overnight", Name: "Overnight Shipping", Description: "Delivered next business day", Price: decimal.NewFromFloat(24.99), EstimatedDays: 1},
}

// DeliveryOptions returns the available shipping tiers.
func DeliveryOptions() []DeliveryOption {
	out := make([]DeliveryOption, len(deliveryOptions))
	copy(out, deliveryOptions)
	return out
}

// DeliveryOptionByID resolves a delivery option.
func DeliveryOptionByID(id string) (DeliveryOption, bool) {
	for _, opt := range deliveryOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return DeliveryOption{}, false
}

// Order is an immutable purchase snapshot plus mutable status fields.
// Amounts are copied from the cart at creation and never recomputed.
type Order struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId,omitempty"` // uuid.Nil for guest orders
	GuestEmail string    `json:"guestEmail,omitempty"`
	OwnerKey   string    `json:"-"` // cart owner key, used to clear the cart after payment

	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	DeliveryOption  DeliveryOption  `json:"deliveryOption"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	PromoCode string          `json:"promoCode,omitempty"`

	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Timeline      []TimelineEntry `json:"timeline"`

	StripeSessionID       string `json:"-"`
	StripePaymentIntentID string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VisibleTo reports whether the given identity may read this order.
func (o *Order) VisibleTo(id *Identity) bool {
	if id == nil {
		return false
	}
	if id.IsAdmin() {
		return true
	}
	if o.UserID != uuid.Nil {
		return o.UserID == id.UserID
	}
	return o.OwnerKey != "" && o.OwnerKey == id.OwnerKey()
}

// OrderService creates orders from carts and walks them through the
// fulfillment lifecycle.
type OrderService interface {
	// CreateOrder snapshots the owner's cart into a pending order. The cart
	// is left intact; it is cleared when payment is confirmed.
	CreateOrder(ctx context.Context, ownerKey string, userID uuid.UUID, guestEmail string, address ShippingAddress, deliveryOptionID string) (*Order, error)

	// GetOrder retrieves an order, enforcing ownership.
	GetOrder(ctx context.Context, id uuid.UUID, identity *Identity) (*Order, error)

	// GetOrderBySessionID retrieves the order for a Stripe checkout session.
	GetOrderBySessionID(ctx context.Context, sessionID string) (*Order, error)

	// ListOrders returns a user's orders, newest first.
	ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]Order, Pagination, error)

	// UpdateStatus moves an order through the fulfillment transition table
	// and appends a timeline entry. Illegal transitions are EINVALID.
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus, note string) (*Order, error)
}
