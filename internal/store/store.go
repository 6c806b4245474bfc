// Package store defines the repository interfaces the services depend on.
// Implementations live in the memory and postgres subpackages; services
// never know which one they were handed.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
)

var (
	// ErrNotFound is returned by any store when the requested record does
	// not exist. Services translate it into the matching domain error.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a uniqueness constraint would be broken
	// (duplicate email, duplicate webhook event).
	ErrConflict = errors.New("store: conflict")
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// ProductStore persists the catalog.
type ProductStore interface {
	// List applies the filter and returns the page plus the unpaginated total.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	Trending(ctx context.Context, limit int) ([]domain.Product, error)
	// Related returns products sharing the given product's category,
	// excluding the product itself.
	Related(ctx context.Context, id uuid.UUID, limit int) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, product *domain.Product) error
	// AdjustStock changes stock by delta (negative to decrement). The result
	// is floored at zero.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// ReviewStore persists product reviews.
type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByProduct returns the page newest first plus the unpaginated total.
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]domain.Review, int, error)
	// AllByProduct returns every review for rating re-aggregation.
	AllByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, error)
}

// CartStore persists carts keyed by owner.
type CartStore interface {
	GetByOwner(ctx context.Context, ownerKey string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	DeleteByOwner(ctx context.Context, ownerKey string) error
}

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	// ListByUser returns the page newest first plus the unpaginated total.
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.Order, int, error)
	Update(ctx context.Context, order *domain.Order) error
}

// AddressStore persists saved account addresses.
type AddressStore interface {
	Create(ctx context.Context, addr *domain.Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	Update(ctx context.Context, addr *domain.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault drops the default flag from the user's addresses of the
	// given type, so a new default can be set.
	ClearDefault(ctx context.Context, userID uuid.UUID, addrType domain.AddressType) error
}

// AuditStore appends and reads the account security log.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error)
}

// WebhookStore deduplicates provider webhook deliveries.
type WebhookStore interface {
	// MarkProcessed records the event id. Returns false when the event was
	// already recorded, in which case the caller must skip side effects.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Unmark releases a recorded event id so a retried delivery can claim
	// it again. Called when applying the event failed.
	Unmark(ctx context.Context, eventID string) error
}
