package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// ReviewStore is an in-memory store.ReviewStore with per-product and
// per-user indexes.
type ReviewStore struct {
	mu        sync.RWMutex
	reviews   map[uuid.UUID]domain.Review
	byProduct map[uuid.UUID][]uuid.UUID
	byUser    map[uuid.UUID][]uuid.UUID
}

// NewReviewStore creates an empty review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		reviews:   make(map[uuid.UUID]domain.Review),
		byProduct: make(map[uuid.UUID][]uuid.UUID),
		byUser:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// Create stores a new review.
func (s *ReviewStore) Create(_ context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews[review.ID] = *review
	s.byProduct[review.ProductID] = append(s.byProduct[review.ProductID], review.ID)
	s.byUser[review.UserID] = append(s.byUser[review.UserID], review.ID)
	return nil
}

// GetByID returns a copy of the review.
func (s *ReviewStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

// Update replaces a stored review.
func (s *ReviewStore) Update(_ context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ID]; !ok {
		return store.ErrNotFound
	}
	s.reviews[review.ID] = *review
	return nil
}

// Delete removes a review and its index entries.
func (s *ReviewStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, id)
	s.byProduct[r.ProductID] = removeID(s.byProduct[r.ProductID], id)
	s.byUser[r.UserID] = removeID(s.byUser[r.UserID], id)
	return nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// ListByProduct returns the page newest first plus the unpaginated total.
func (s *ReviewStore) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]domain.Review, int, error) {
	all, err := s.AllByProduct(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []domain.Review{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// AllByProduct returns every review for a product, newest first.
func (s *ReviewStore) AllByProduct(_ context.Context, productID uuid.UUID) ([]domain.Review, error) {
	s.mu.RLock()
	ids := s.byProduct[productID]
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.reviews[id])
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByUser returns a user's reviews, newest first.
func (s *ReviewStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Review, error) {
	s.mu.RLock()
	ids := s.byUser[userID]
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.reviews[id])
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
