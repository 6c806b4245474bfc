package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// AddressStore is an in-memory store.AddressStore.
type AddressStore struct {
	mu        sync.RWMutex
	addresses map[uuid.UUID]domain.Address
	byUser    map[uuid.UUID][]uuid.UUID
}

// NewAddressStore creates an empty address store.
func NewAddressStore() *AddressStore {
	return &AddressStore{
		addresses: make(map[uuid.UUID]domain.Address),
		byUser:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// Create stores a new address.
func (s *AddressStore) Create(_ context.Context, addr *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses[addr.ID] = *addr
	s.byUser[addr.UserID] = append(s.byUser[addr.UserID], addr.ID)
	return nil
}

// GetByID returns a copy of the address.
func (s *AddressStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.addresses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

// ListByUser returns the user's addresses, defaults first then newest first.
func (s *AddressStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Address, error) {
	s.mu.RLock()
	ids := s.byUser[userID]
	out := make([]domain.Address, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.addresses[id])
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored address.
func (s *AddressStore) Update(_ context.Context, addr *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[addr.ID]; !ok {
		return store.ErrNotFound
	}
	s.addresses[addr.ID] = *addr
	return nil
}

// Delete removes an address.
func (s *AddressStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.addresses, id)
	s.byUser[a.UserID] = removeID(s.byUser[a.UserID], id)
	return nil
}

// ClearDefault drops the default flag from the user's addresses of a type.
func (s *AddressStore) ClearDefault(_ context.Context, userID uuid.UUID, addrType domain.AddressType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byUser[userID] {
		a := s.addresses[id]
		if a.Type == addrType && a.IsDefault {
			a.IsDefault = false
			s.addresses[id] = a
		}
	}
	return nil
}
