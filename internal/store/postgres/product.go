package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// ProductStore is a pgx-backed store.ProductStore.
type ProductStore struct {
	pool *pgxpool.Pool
}

// Compile-time check.
var _ store.ProductStore = (*ProductStore)(nil)

// NewProductStore creates a postgres product store.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.compare_price,
	p.stock, p.category_id, p.images, p.tags, p.rating, p.review_count,
	p.featured, p.trending, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.ComparePrice,
		&p.Stock, &p.CategoryID, &p.Images, &p.Tags, &p.Rating, &p.ReviewCount,
		&p.Featured, &p.Trending, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// List applies the filter with a dynamically built WHERE clause and returns
// the page plus the unpaginated total.
func (s *ProductStore) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	filter.Normalize()

	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.CategorySlug != "" {
		where = append(where, fmt.Sprintf(`p.category_id IN (
			SELECT c.id FROM categories c
			LEFT JOIN categories parent ON parent.id = c.parent_id
			WHERE c.slug = %[1]s OR parent.slug = %[1]s)`, arg(filter.CategorySlug)))
	}
	if filter.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*filter.MaxPrice))
	}
	if filter.MinRating != nil {
		where = append(where, "p.rating >= "+arg(*filter.MinRating))
	}
	if len(filter.Tags) > 0 {
		where = append(where, "p.tags && "+arg(filter.Tags))
	}
	if filter.Search != "" {
		needle := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %[1]s OR p.description ILIKE %[1]s)", needle))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM products p WHERE "+whereClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	orderBy := map[string]string{
		domain.SortByPrice:     "p.price",
		domain.SortByRating:    "p.rating",
		domain.SortByName:      "p.name",
		domain.SortByCreatedAt: "p.created_at",
	}[filter.SortBy]
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM products p WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s",
		productColumns, whereClause, orderBy, direction,
		arg(filter.Limit), arg((filter.Page-1)*filter.Limit),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a product by id.
func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.id = $1", id)
	return scanProduct(row)
}

// GetBySlug returns a product by slug.
func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.slug = $1", slug)
	return scanProduct(row)
}

// Featured returns up to limit featured products, newest first.
func (s *ProductStore) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.featured ORDER BY p.created_at DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}
	return scanProducts(rows)
}

// Trending returns up to limit trending products, newest first.
func (s *ProductStore) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.trending ORDER BY p.created_at DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	return scanProducts(rows)
}

// Related returns products sharing the category, excluding the product.
func (s *ProductStore) Related(ctx context.Context, id uuid.UUID, limit int) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.category_id = (SELECT category_id FROM products WHERE id = $1)
			AND p.id <> $1
		ORDER BY p.rating DESC
		LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list related: %w", err)
	}
	return scanProducts(rows)
}

// Categories returns all categories sorted by name.
func (s *ProductStore) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, slug, description, parent_id, image
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.Image); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update replaces the mutable product fields.
func (s *ProductStore) Update(ctx context.Context, product *domain.Product) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, compare_price = $6,
			stock = $7, category_id = $8, images = $9, tags = $10, rating = $11,
			review_count = $12, featured = $13, trending = $14, updated_at = $15
		WHERE id = $1`,
		product.ID, product.Name, product.Slug, product.Description, product.Price,
		product.ComparePrice, product.Stock, product.CategoryID, product.Images,
		product.Tags, product.Rating, product.ReviewCount, product.Featured,
		product.Trending, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustStock changes stock by delta, flooring at zero.
func (s *ProductStore) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET stock = GREATEST(stock + $2, 0), updated_at = now() WHERE id = $1",
		id, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
