package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound      = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound  = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrCartEmpty         = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrInsufficientStock = &Error{Code: EINVALID, Message: "Insufficient stock for requested quantity"}
	ErrUnknownPromoCode  = &Error{Code: EINVALID, Message: "Unknown promo code"}
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

// CartItem is one line in a cart. Name, price, image and stock are snapshots
// taken when the line was added; the product record stays the authority for
// stock checks at mutation time.
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

// Matches reports whether another line refers to the same product variant.
// Matching lines merge by summing quantities instead of appending.
func (ci *CartItem) Matches(productID uuid.UUID, variantID string) bool {
	return ci.ProductID == productID && ci.VariantID == variantID
}

// Cart holds a shopper's pending line items and derived totals. A cart is
// owned by exactly one key: an authenticated user or a guest token.
type Cart struct {
	ID       uuid.UUID  `json:"id"`
	OwnerKey string     `json:"-"`
	Items    []CartItem `json:"items"`

	PromoCode    string          `json:"promoCode,omitempty"`
	DiscountRate decimal.Decimal `json:"-"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemCount returns the total unit count across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// RecomputeTotals rederives every total from the line items and discount
// rate. Each derived amount is rounded to 2 places as it is computed, so
// total == subtotal + tax - discount holds exactly.
func (c *Cart) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(LineTotal(c.Items[i].Price, c.Items[i].Quantity))
	}
	c.Subtotal = Round2(subtotal)
	c.Tax = Round2(c.Subtotal.Mul(TaxRate))
	c.Discount = Round2(c.Subtotal.Mul(c.DiscountRate))
	c.Total = c.Subtotal.Add(c.Tax).Sub(c.Discount)
}

// =============================================================================
// PROMO CODES
// =============================================================================

// promoRates is the fixed promo table. Codes match case-insensitively.
var promoRates = map[string]decimal.Decimal{
	"SAVE10":   decimal.NewFromFloat(0.10),
	"SAVE20":   decimal.NewFromFloat(0.20),
	"FREESHIP": decimal.Zero,
}

// PromoRate resolves a promo code to its discount rate. The returned code is
// the canonical uppercase form stored on the cart.
func PromoRate(code string) (canonical string, rate decimal.Decimal, ok bool) {
	canonical = strings.ToUpper(strings.TrimSpace(code))
	rate, ok = promoRates[canonical]
	return canonical, rate, ok
}

// CartService provides business logic for shopping cart operations.
// Every mutation recomputes totals before returning.
type CartService interface {
	// Get retrieves the owner's cart, creating an empty one if none exists.
	Get(ctx context.Context, ownerKey string) (*Cart, error)

	// AddItem adds a product to the cart, merging into an existing line for
	// the same product+variant. Fails without mutating when stock is short.
	AddItem(ctx context.Context, ownerKey string, productID uuid.UUID, variantID string, quantity int) (*Cart, error)

	// UpdateItemQuantity sets a line's quantity. Zero removes the line.
	UpdateItemQuantity(ctx context.Context, ownerKey string, itemID uuid.UUID, quantity int) (*Cart, error)

	// RemoveItem deletes a line from the cart.
	RemoveItem(ctx context.Context, ownerKey string, itemID uuid.UUID) (*Cart, error)

	// Clear removes all lines and the promo code.
	Clear(ctx context.Context, ownerKey string) (*Cart, error)

	// ApplyPromoCode attaches a promo code; reapplying the same code is a
	// no-op, applying a different one replaces it.
	ApplyPromoCode(ctx context.Context, ownerKey, code string) (*Cart, error)

	// RemovePromoCode detaches the promo code, if any.
	RemovePromoCode(ctx context.Context, ownerKey string) (*Cart, error)

	// ItemCount returns the unit count for the cart badge.
	ItemCount(ctx context.Context, ownerKey string) (int, error)

	// MergeGuestCart folds a guest cart into the user's cart at login and
	// deletes the guest cart. Merged quantities are capped at current stock.
	MergeGuestCart(ctx context.Context, guestToken string, userID uuid.UUID) (*Cart, error)
}
