package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// ProductService implements domain.ProductService. Catalog reads are thin
// wrappers over the product store; the interesting work (filtering, sorting)
// lives there.
type ProductService struct {
	products store.ProductStore
	logger   zerolog.Logger
}

// Compile-time check that ProductService implements domain.ProductService.
var _ domain.ProductService = (*ProductService)(nil)

// NewProductService creates a new ProductService instance.
func NewProductService(products store.ProductStore, logger zerolog.Logger) *ProductService {
	return &ProductService{
		products: products,
		logger:   logger.With().Str("service", "product").Logger(),
	}
}

// List returns a filtered, sorted page of the catalog.
func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, domain.Pagination, error) {
	filter.Normalize()

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, domain.Internal(err, "product.list", "failed to list products")
	}
	return products, domain.NewPagination(filter.Page, filter.Limit, total), nil
}

// GetByID returns a single product.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("product.get", "product", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "product.get", "failed to load product")
	}
	return product, nil
}

// GetBySlug returns a single product by its URL slug.
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("product.getBySlug", "product", slug)
	}
	if err != nil {
		return nil, domain.Internal(err, "product.getBySlug", "failed to load product")
	}
	return product, nil
}

// Featured returns up to limit featured products.
func (s *ProductService) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.products.Featured(ctx, clampLimit(limit))
	if err != nil {
		return nil, domain.Internal(err, "product.featured", "failed to list featured products")
	}
	return products, nil
}

// Trending returns up to limit trending products.
func (s *ProductService) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.products.Trending(ctx, clampLimit(limit))
	if err != nil {
		return nil, domain.Internal(err, "product.trending", "failed to list trending products")
	}
	return products, nil
}

// Related returns products from the same category, best rated first.
func (s *ProductService) Related(ctx context.Context, id uuid.UUID, limit int) ([]domain.Product, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	products, err := s.products.Related(ctx, id, clampLimit(limit))
	if err != nil {
		return nil, domain.Internal(err, "product.related", "failed to list related products")
	}
	return products, nil
}

// Categories returns the category tree as a flat list.
func (s *ProductService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, domain.Internal(err, "product.categories", "failed to list categories")
	}
	return categories, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return domain.DefaultLimit
	}
	if limit > domain.MaxLimit {
		return domain.MaxLimit
	}
	return limit
}
