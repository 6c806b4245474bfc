package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// ProductStore is an in-memory store.ProductStore holding the catalog and
// its categories.
type ProductStore struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]domain.Product
	bySlug     map[string]uuid.UUID
	categories map[uuid.UUID]domain.Category
}

// NewProductStore creates an empty product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products:   make(map[uuid.UUID]domain.Product),
		bySlug:     make(map[string]uuid.UUID),
		categories: make(map[uuid.UUID]domain.Category),
	}
}

func cloneProduct(p domain.Product) domain.Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Tags = append([]string(nil), p.Tags...)
	if p.ComparePrice != nil {
		cp := *p.ComparePrice
		out.ComparePrice = &cp
	}
	return out
}

// Put inserts or replaces a product. Used by seeding and admin tooling.
func (s *ProductStore) Put(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = cloneProduct(*product)
	s.bySlug[product.Slug] = product.ID
	return nil
}

// PutCategory inserts or replaces a category.
func (s *ProductStore) PutCategory(_ context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[category.ID] = *category
	return nil
}

// List applies the filter, sorts and paginates. Returns the page and the
// unpaginated match count.
func (s *ProductStore) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	filter.Normalize()

	s.mu.RLock()
	matched := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if s.matchesLocked(&p, &filter) {
			matched = append(matched, cloneProduct(p))
		}
	}
	s.mu.RUnlock()

	sortProducts(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []domain.Product{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// matchesLocked evaluates the filter; the caller holds at least a read lock.
func (s *ProductStore) matchesLocked(p *domain.Product, f *domain.ProductFilter) bool {
	if f.CategorySlug != "" && !s.inCategoryLocked(p.CategoryID, f.CategorySlug) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinRating != nil && p.Rating.LessThan(*f.MinRating) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(p.Tags, f.Tags) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// inCategoryLocked reports whether the product's category, or its parent,
// has the given slug.
func (s *ProductStore) inCategoryLocked(categoryID uuid.UUID, slug string) bool {
	cat, ok := s.categories[categoryID]
	if !ok {
		return false
	}
	if cat.Slug == slug {
		return true
	}
	if cat.ParentID != nil {
		if parent, ok := s.categories[*cat.ParentID]; ok && parent.Slug == slug {
			return true
		}
	}
	return false
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func sortProducts(products []domain.Product, sortBy, order string) {
	less := func(a, b *domain.Product) bool {
		switch sortBy {
		case domain.SortByPrice:
			return a.Price.LessThan(b.Price)
		case domain.SortByRating:
			return a.Rating.LessThan(b.Rating)
		case domain.SortByName:
			return a.Name < b.Name
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if order == domain.SortAsc {
			return less(&products[i], &products[j])
		}
		return less(&products[j], &products[i])
	})
}

// GetByID returns a copy of the product.
func (s *ProductStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

// GetBySlug returns a copy of the product with the given slug.
func (s *ProductStore) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneProduct(s.products[id])
	return &out, nil
}

// Featured returns up to limit featured products, newest first.
func (s *ProductStore) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.flagged(ctx, limit, func(p *domain.Product) bool { return p.Featured })
}

// Trending returns up to limit trending products, newest first.
func (s *ProductStore) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.flagged(ctx, limit, func(p *domain.Product) bool { return p.Trending })
}

func (s *ProductStore) flagged(_ context.Context, limit int, match func(*domain.Product) bool) ([]domain.Product, error) {
	s.mu.RLock()
	out := make([]domain.Product, 0, limit)
	for _, p := range s.products {
		if match(&p) {
			out = append(out, cloneProduct(p))
		}
	}
	s.mu.RUnlock()

	sortProducts(out, domain.SortByCreatedAt, domain.SortDesc)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Related returns products in the same category, excluding the product itself.
func (s *ProductStore) Related(_ context.Context, id uuid.UUID, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	self, ok := s.products[id]
	if !ok {
		s.mu.RUnlock()
		return nil, store.ErrNotFound
	}

	out := make([]domain.Product, 0, limit)
	for _, p := range s.products {
		if p.ID != id && p.CategoryID == self.CategoryID {
			out = append(out, cloneProduct(p))
		}
	}
	s.mu.RUnlock()

	sortProducts(out, domain.SortByRating, domain.SortDesc)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Categories returns all categories sorted by name.
func (s *ProductStore) Categories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update replaces a stored product.
func (s *ProductStore) Update(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Slug != product.Slug {
		delete(s.bySlug, existing.Slug)
		s.bySlug[product.Slug] = product.ID
	}
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

// AdjustStock changes stock by delta, flooring the result at zero.
func (s *ProductStore) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	s.products[id] = p
	return nil
}
