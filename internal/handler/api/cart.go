package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// CartHandler serves the cart endpoints. Every route works for both
// authenticated users (JWT) and guests (X-Guest-Token header); ownership is
// resolved through the identity's owner key.
type CartHandler struct {
	carts  domain.CartService
	logger zerolog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts domain.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// ownerKey resolves the cart owner for the request, or writes a 401 when
// the caller has neither a session nor a guest token.
func (h *CartHandler) ownerKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := domain.IdentityFromContext(r.Context()).OwnerKey()
	if key == "" {
		handler.ErrorResponse(w, r, domain.Unauthorized("cart", "sign in or supply a guest token"))
		return "", false
	}
	return key, true
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Get(r.Context(), owner)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	VariantID string    `json:"variantId"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// AddItem handles POST /api/cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("cart.addItem", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), owner, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// UpdateItem handles PUT /api/cart/{itemId}. Quantity zero removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req updateQuantityRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), owner, itemID, req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/{itemId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), owner, itemID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Clear(r.Context(), owner)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

type promoRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyPromo handles POST /api/cart/promo.
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	var req promoRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("cart.applyPromoCode", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.ApplyPromoCode(r.Context(), owner, req.Code)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

// RemovePromo handles DELETE /api/cart/promo.
func (h *CartHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemovePromoCode(r.Context(), owner)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

// Merge handles POST /api/cart/merge: folds the guest cart named by
// X-Guest-Token into the signed-in user's cart. Login and register do this
// automatically; this endpoint covers clients that sign in on another tab
// and still hold a guest cart.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	guestToken := r.Header.Get(GuestTokenHeader)
	if guestToken == "" {
		handler.ErrorResponse(w, r, domain.Invalid("cart.merge", "missing X-Guest-Token header"))
		return
	}

	cart, err := h.carts.MergeGuestCart(r.Context(), guestToken, domain.RequireUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, cart)
}

// Count handles GET /api/cart/count, the badge endpoint.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerKey(w, r)
	if !ok {
		return
	}

	count, err := h.carts.ItemCount(r.Context(), owner)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, map[string]int{"count": count})
}
