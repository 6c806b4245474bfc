package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// OrderHandler serves order creation, history and the checkout handoff.
type OrderHandler struct {
	orders   domain.OrderService
	checkout domain.CheckoutService
	logger   zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders domain.OrderService, checkout domain.CheckoutService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// DeliveryOptions handles GET /api/checkout/delivery-options.
func (h *OrderHandler) DeliveryOptions(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, r, http.StatusOK, domain.DeliveryOptions())
}

type createOrderRequest struct {
	GuestEmail       string                 `json:"guestEmail" validate:"omitempty,email"`
	ShippingAddress  domain.ShippingAddress `json:"shippingAddress"`
	DeliveryOptionID string                 `json:"deliveryOptionId" validate:"required"`
}

// Create handles POST /api/checkout/orders: snapshots the caller's cart into a
// pending order. Guests must supply guestEmail.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := domain.IdentityFromContext(r.Context())
	ownerKey := identity.OwnerKey()
	if ownerKey == "" {
		handler.ErrorResponse(w, r, domain.Unauthorized("order.create", "sign in or supply a guest token"))
		return
	}

	var req createOrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("order.create", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := validateShippingAddress(req.ShippingAddress); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), ownerKey, identity.UserID, req.GuestEmail,
		req.ShippingAddress, req.DeliveryOptionID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusCreated, order)
}

// Get handles GET /api/checkout/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id, domain.IdentityFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, order)
}

// GetBySession handles GET /api/checkout/session/{sessionId}, used by the
// checkout success page to show the order it just paid for.
func (h *OrderHandler) GetBySession(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrderBySessionID(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, order)
}

// List handles GET /api/checkout/orders and GET /api/account/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := domain.RequireUserID(r.Context())

	orders, page, err := h.orders.ListOrders(r.Context(), userID, queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSONPage(w, r, http.StatusOK, orders, page)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Note   string             `json:"note"`
}

// UpdateStatus handles PATCH /api/checkout/orders/{id}/status (admin only; the
// route is wired behind RequireAdmin).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("order.updateStatus", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status, req.Note)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, order)
}

type checkoutRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// CreateCheckoutSession handles POST /api/checkout/create-session: opens the
// hosted payment page for a pending order and returns its redirect URL.
func (h *OrderHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("checkout.createSession", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("checkout.createSession", "orderId", "must be a valid id"))
		return
	}

	session, err := h.checkout.CreateCheckoutSession(r.Context(), orderID, domain.IdentityFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusCreated, session)
}

func validateShippingAddress(addr domain.ShippingAddress) error {
	var err error
	if addr.FirstName == "" {
		err = domain.AddFieldError(err, "shippingAddress.firstName", "is required")
	}
	if addr.Street == "" {
		err = domain.AddFieldError(err, "shippingAddress.street", "is required")
	}
	if addr.City == "" {
		err = domain.AddFieldError(err, "shippingAddress.city", "is required")
	}
	if addr.PostalCode == "" {
		err = domain.AddFieldError(err, "shippingAddress.postalCode", "is required")
	}
	if addr.Country == "" {
		err = domain.AddFieldError(err, "shippingAddress.country", "is required")
	}
	return err
}
