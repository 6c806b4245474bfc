package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// OrderStore is an in-memory store.OrderStore with session and user indexes.
type OrderStore struct {
	mu        sync.RWMutex
	orders    map[uuid.UUID]domain.Order
	bySession map[string]uuid.UUID
	byUser    map[uuid.UUID][]uuid.UUID
}

// NewOrderStore creates an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:    make(map[uuid.UUID]domain.Order),
		bySession: make(map[string]uuid.UUID),
		byUser:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	out.Timeline = append([]domain.TimelineEntry(nil), o.Timeline...)
	return out
}

// Create stores a new order.
func (s *OrderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = cloneOrder(*order)
	if order.StripeSessionID != "" {
		s.bySession[order.StripeSessionID] = order.ID
	}
	if order.UserID != uuid.Nil {
		s.byUser[order.UserID] = append(s.byUser[order.UserID], order.ID)
	}
	return nil
}

// GetByID returns a copy of the order.
func (s *OrderStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

// GetBySessionID returns the order created for a checkout session.
func (s *OrderStore) GetBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySession[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneOrder(s.orders[id])
	return &out, nil
}

// ListByUser returns the page newest first plus the unpaginated total.
func (s *OrderStore) ListByUser(_ context.Context, userID uuid.UUID, page, limit int) ([]domain.Order, int, error) {
	s.mu.RLock()
	ids := s.byUser[userID]
	all := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		all = append(all, cloneOrder(s.orders[id]))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Update replaces the stored order, keeping the session index current.
func (s *OrderStore) Update(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.orders[order.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.StripeSessionID != order.StripeSessionID {
		if existing.StripeSessionID != "" {
			delete(s.bySession, existing.StripeSessionID)
		}
		if order.StripeSessionID != "" {
			s.bySession[order.StripeSessionID] = order.ID
		}
	}
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}
