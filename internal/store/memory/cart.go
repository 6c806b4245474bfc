package memory

import (
	"context"
	"sync"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// CartStore is an in-memory store.CartStore keyed by owner.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart // ownerKey -> cart
}

// NewCartStore creates an empty cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]domain.Cart)}
}

func cloneCart(c domain.Cart) domain.Cart {
	out := c
	out.Items = append([]domain.CartItem(nil), c.Items...)
	return out
}

// GetByOwner returns a copy of the owner's cart.
func (s *CartStore) GetByOwner(_ context.Context, ownerKey string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[ownerKey]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCart(c)
	return &out, nil
}

// Save upserts the cart under its owner key.
func (s *CartStore) Save(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[cart.OwnerKey] = cloneCart(*cart)
	return nil
}

// DeleteByOwner removes the owner's cart. Deleting a missing cart is a no-op.
func (s *CartStore) DeleteByOwner(_ context.Context, ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, ownerKey)
	return nil
}
