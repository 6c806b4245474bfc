package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG DOMAIN TYPES
// =============================================================================

// Category groups products; a category may have a parent (e.g. "Audio"
// under "Electronics"). Filtering by a parent category matches its children.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Image       string     `json:"image,omitempty"`
}

// Product represents a purchasable catalog item.
type Product struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty"`
	Stock        int              `json:"stock"`
	CategoryID   uuid.UUID        `json:"categoryId"`
	Images       []string         `json:"images"`
	Tags         []string         `json:"tags"`

	// Rating aggregate, recomputed over all reviews on every review write.
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount"`

	Featured  bool      `json:"featured"`
	Trending  bool      `json:"trending"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// Product list sorting.
const (
	SortByPrice     = "price"
	SortByRating    = "rating"
	SortByCreatedAt = "createdAt"
	SortByName      = "name"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Pagination defaults for product listings.
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// ProductFilter narrows and orders a product listing. Zero values mean
// "no constraint".
type ProductFilter struct {
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	MinRating    *decimal.Decimal
	Tags         []string
	Search       string // matched against name and description
	SortBy       string // price | rating | createdAt | name
	SortOrder    string // asc | desc
	Page         int
	Limit        int
}

// Normalize fills pagination defaults and clamps the limit.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		f.SortOrder = SortDesc
	}
	switch f.SortBy {
	case SortByPrice, SortByRating, SortByCreatedAt, SortByName:
	default:
		f.SortBy = SortByCreatedAt
	}
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for a result set.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// ProductService exposes catalog reads.
type ProductService interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, Pagination, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Trending(ctx context.Context, limit int) ([]Product, error)
	Related(ctx context.Context, id uuid.UUID, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
}
