// Package service implements the business logic behind the HTTP handlers.
// Services are stateless; all state lives in the injected stores.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/telemetry"
)

// CartService implements domain.CartService on top of the cart and product
// stores. Every mutation re-validates stock against the product record and
// recomputes totals before saving.
type CartService struct {
	carts    store.CartStore
	products store.ProductStore
	logger   zerolog.Logger
	metrics  *telemetry.BusinessMetrics
}

// Compile-time check that CartService implements domain.CartService.
var _ domain.CartService = (*CartService)(nil)

// NewCartService creates a new CartService instance.
func NewCartService(carts store.CartStore, products store.ProductStore, logger zerolog.Logger, metrics *telemetry.BusinessMetrics) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger.With().Str("service", "cart").Logger(),
		metrics:  metrics,
	}
}

// Get retrieves the owner's cart, creating an empty one if none exists.
func (s *CartService) Get(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	if ownerKey == "" {
		return nil, domain.Invalid("cart.get", "cart owner required")
	}

	cart, err := s.carts.GetByOwner(ctx, ownerKey)
	if errors.Is(err, store.ErrNotFound) {
		now := time.Now().UTC()
		cart = &domain.Cart{
			ID:        uuid.New(),
			OwnerKey:  ownerKey,
			Items:     []domain.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		cart.RecomputeTotals()
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, domain.Internal(err, "cart.get", "failed to create cart")
		}
		return cart, nil
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	return cart, nil
}

// AddItem adds a product to the cart, merging into an existing line for the
// same product+variant. The stock check covers the merged quantity; on
// failure the cart is left untouched.
func (s *CartService) AddItem(ctx context.Context, ownerKey string, productID uuid.UUID, variantID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("cart.addItem", "product", productID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.addItem", "failed to load product")
	}

	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	requested := quantity
	lineIdx := -1
	for i := range cart.Items {
		if cart.Items[i].Matches(productID, variantID) {
			lineIdx = i
			requested += cart.Items[i].Quantity
			break
		}
	}

	if !product.InStock(requested) {
		return nil, domain.ErrInsufficientStock
	}

	if lineIdx >= 0 {
		cart.Items[lineIdx].Quantity = requested
		cart.Items[lineIdx].Stock = product.Stock
	} else {
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			VariantID: variantID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     image,
			Quantity:  quantity,
			Stock:     product.Stock,
		})
	}

	return s.commit(ctx, cart, "cart.addItem")
}

// UpdateItemQuantity sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, ownerKey string, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrCartItemNotFound
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.commit(ctx, cart, "cart.updateItemQuantity")
	}

	product, err := s.products.GetByID(ctx, cart.Items[idx].ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("cart.updateItemQuantity", "product", cart.Items[idx].ProductID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.updateItemQuantity", "failed to load product")
	}
	if !product.InStock(quantity) {
		return nil, domain.ErrInsufficientStock
	}

	cart.Items[idx].Quantity = quantity
	cart.Items[idx].Stock = product.Stock
	return s.commit(ctx, cart, "cart.updateItemQuantity")
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, ownerKey string, itemID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrCartItemNotFound
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.commit(ctx, cart, "cart.removeItem")
}

// Clear removes all lines and the promo code.
func (s *CartService) Clear(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	cart.Items = []domain.CartItem{}
	cart.PromoCode = ""
	cart.DiscountRate = decimal.Zero
	return s.commit(ctx, cart, "cart.clear")
}

// ApplyPromoCode attaches a promo code. Reapplying the same code is a
// no-op; a different code replaces the current one.
func (s *CartService) ApplyPromoCode(ctx context.Context, ownerKey, code string) (*domain.Cart, error) {
	canonical, rate, ok := domain.PromoRate(code)
	if !ok {
		return nil, domain.ErrUnknownPromoCode
	}

	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	if cart.PromoCode == canonical {
		return cart, nil
	}

	cart.PromoCode = canonical
	cart.DiscountRate = rate
	return s.commit(ctx, cart, "cart.applyPromoCode")
}

// RemovePromoCode detaches the promo code, if any.
func (s *CartService) RemovePromoCode(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	cart.PromoCode = ""
	cart.DiscountRate = decimal.Zero
	return s.commit(ctx, cart, "cart.removePromoCode")
}

// ItemCount returns the unit count for the cart badge.
func (s *CartService) ItemCount(ctx context.Context, ownerKey string) (int, error) {
	cart, err := s.carts.GetByOwner(ctx, ownerKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.Internal(err, "cart.itemCount", "failed to load cart")
	}
	return cart.ItemCount(), nil
}

// MergeGuestCart folds the guest cart into the user's cart at login.
// Matching lines sum quantities; others append with a fresh line id. Merged
// quantities are capped at current product stock. The guest cart is deleted
// even when it was empty.
func (s *CartService) MergeGuestCart(ctx context.Context, guestToken string, userID uuid.UUID) (*domain.Cart, error) {
	guestKey := (&domain.Identity{GuestToken: guestToken}).OwnerKey()
	userKey := (&domain.Identity{UserID: userID}).OwnerKey()

	guestCart, err := s.carts.GetByOwner(ctx, guestKey)
	if errors.Is(err, store.ErrNotFound) {
		return s.Get(ctx, userKey)
	}
	if err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to load guest cart")
	}

	userCart, err := s.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}

	for _, guestItem := range guestCart.Items {
		product, err := s.products.GetByID(ctx, guestItem.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue // product gone since the guest added it
		}
		if err != nil {
			return nil, domain.Internal(err, "cart.merge", "failed to load product")
		}

		merged := false
		for i := range userCart.Items {
			if userCart.Items[i].Matches(guestItem.ProductID, guestItem.VariantID) {
				userCart.Items[i].Quantity = capAtStock(userCart.Items[i].Quantity+guestItem.Quantity, product.Stock)
				userCart.Items[i].Stock = product.Stock
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		item := guestItem
		item.ID = uuid.New()
		item.Quantity = capAtStock(item.Quantity, product.Stock)
		item.Stock = product.Stock
		if item.Quantity > 0 {
			userCart.Items = append(userCart.Items, item)
		}
	}

	// Keep the user's promo code if set, otherwise inherit the guest's.
	if userCart.PromoCode == "" && guestCart.PromoCode != "" {
		userCart.PromoCode = guestCart.PromoCode
		userCart.DiscountRate = guestCart.DiscountRate
	}

	merged, err := s.commit(ctx, userCart, "cart.merge")
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteByOwner(ctx, guestKey); err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to delete guest cart")
	}
	return merged, nil
}

func capAtStock(quantity, stock int) int {
	if quantity > stock {
		return stock
	}
	return quantity
}

// commit recomputes totals, stamps the cart and saves it.
func (s *CartService) commit(ctx context.Context, cart *domain.Cart, op string) (*domain.Cart, error) {
	cart.RecomputeTotals()
	cart.UpdatedAt = time.Now().UTC()

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, domain.Internal(err, op, "failed to save cart")
	}

	if s.metrics != nil {
		s.metrics.RecordCartMutation(op)
	}
	s.logger.Debug().Str("op", op).Str("cart_id", cart.ID.String()).
		Int("items", len(cart.Items)).Str("total", cart.Total.String()).
		Msg("cart updated")
	return cart, nil
}
