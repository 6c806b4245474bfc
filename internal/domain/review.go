package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review-related domain errors.
var (
	ErrReviewNotFound = &Error{Code: ENOTFOUND, Message: "Review not found"}
)

// Review is a customer rating attached to a product.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"` // 1..5
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingDistribution counts reviews per star bucket, 1 through 5.
type RatingDistribution map[int]int

// ReviewUpdate carries the editable review fields. Nil means unchanged.
type ReviewUpdate struct {
	Rating  *int
	Title   *string
	Comment *string
}

// ReviewService manages product reviews. Every write re-aggregates the
// product's rating and review count over all of its reviews.
type ReviewService interface {
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]Review, Pagination, error)
	Distribution(ctx context.Context, productID uuid.UUID) (RatingDistribution, error)
	Create(ctx context.Context, productID, userID uuid.UUID, rating int, title, comment string) (*Review, error)
	Update(ctx context.Context, reviewID, userID uuid.UUID, update ReviewUpdate) (*Review, error)
	Delete(ctx context.Context, reviewID, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Review, error)
}
