// Package api implements the JSON API handlers.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// ProductHandler serves the public catalog endpoints.
type ProductHandler struct {
	products domain.ProductService
	reviews  domain.ReviewService
	logger   zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products domain.ProductService, reviews domain.ReviewService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		reviews:  reviews,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products.
// Filters come from query parameters: category, minPrice, maxPrice,
// minRating, tags (comma-separated), search, sortBy, order, page, limit.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	products, page, err := h.products.List(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSONPage(w, r, http.StatusOK, products, page)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, product)
}

// GetBySlug handles GET /api/products/slug/{slug}.
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, product)
}

// Featured handles GET /api/products/featured.
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Featured(r.Context(), queryInt(r, "limit", 8))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, products)
}

// Trending handles GET /api/products/trending.
func (h *ProductHandler) Trending(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Trending(r.Context(), queryInt(r, "limit", 8))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, products)
}

// Related handles GET /api/products/{id}/related.
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	products, err := h.products.Related(r.Context(), id, queryInt(r, "limit", 4))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, products)
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, categories)
}

// ListReviews handles GET /api/products/{id}/reviews.
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	reviews, page, err := h.reviews.ListByProduct(r.Context(), id, queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSONPage(w, r, http.StatusOK, reviews, page)
}

// ReviewDistribution handles GET /api/products/{id}/reviews/distribution.
func (h *ProductHandler) ReviewDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	dist, err := h.reviews.Distribution(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, dist)
}

// parseProductFilter reads the listing filter from query parameters.
func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       q.Get("search"),
		SortBy:       q.Get("sortBy"),
		SortOrder:    q.Get("order"),
		Page:         queryInt(r, "page", 0),
		Limit:        queryInt(r, "limit", 0),
	}

	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	for name, dst := range map[string]**decimal.Decimal{
		"minPrice":  &filter.MinPrice,
		"maxPrice":  &filter.MaxPrice,
		"minRating": &filter.MinRating,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, domain.NewValidationError("product.list", name, "must be a number")
		}
		*dst = &d
	}

	return filter, nil
}

// pathUUID parses a UUID path segment.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("request.path", name, "must be a valid id")
	}
	return id, nil
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
