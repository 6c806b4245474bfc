package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// ReviewService implements domain.ReviewService. Every write re-aggregates
// the product's rating and review count from all of its reviews, so the
// catalog never drifts from the review table.
type ReviewService struct {
	reviews  store.ReviewStore
	products store.ProductStore
	users    store.UserStore
	logger   zerolog.Logger
}

// Compile-time check that ReviewService implements domain.ReviewService.
var _ domain.ReviewService = (*ReviewService)(nil)

// NewReviewService creates a new ReviewService instance.
func NewReviewService(reviews store.ReviewStore, products store.ProductStore, users store.UserStore, logger zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		users:    users,
		logger:   logger.With().Str("service", "review").Logger(),
	}
}

// ListByProduct returns a product's reviews, newest first.
func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]domain.Review, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, domain.Pagination{}, domain.Internal(err, "review.list", "failed to list reviews")
	}
	return reviews, domain.NewPagination(page, limit, total), nil
}

// Distribution returns the count of reviews per star, 1 through 5. Buckets
// with no reviews are present with a zero count.
func (s *ReviewService) Distribution(ctx context.Context, productID uuid.UUID) (domain.RatingDistribution, error) {
	reviews, err := s.reviews.AllByProduct(ctx, productID)
	if err != nil {
		return nil, domain.Internal(err, "review.distribution", "failed to load reviews")
	}

	dist := domain.RatingDistribution{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range reviews {
		dist[r.Rating]++
	}
	return dist, nil
}

// Create adds a review and re-aggregates the product rating.
func (s *ReviewService) Create(ctx context.Context, productID, userID uuid.UUID, rating int, title, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.NewValidationError("review.create", "rating", "must be between 1 and 5")
	}
	if comment == "" {
		return nil, domain.NewValidationError("review.create", "comment", "is required")
	}

	if _, err := s.products.GetByID(ctx, productID); errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("review.create", "product", productID.String())
	} else if err != nil {
		return nil, domain.Internal(err, "review.create", "failed to load product")
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.Unauthorized("review.create", "account not found")
	}
	if err != nil {
		return nil, domain.Internal(err, "review.create", "failed to load user")
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		UserName:  user.FullName(),
		Rating:    rating,
		Title:     title,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, domain.Internal(err, "review.create", "failed to save review")
	}
	if err := s.reaggregate(ctx, productID); err != nil {
		return nil, err
	}

	s.logger.Info().Str("review_id", review.ID.String()).
		Str("product_id", productID.String()).Int("rating", rating).
		Msg("review created")
	return review, nil
}

// Update edits the caller's own review and re-aggregates the product rating.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID uuid.UUID, update domain.ReviewUpdate) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "review.update", "failed to load review")
	}

	if review.UserID != userID {
		return nil, domain.Forbidden("review.update", "you can only edit your own reviews")
	}

	if update.Rating != nil {
		if *update.Rating < 1 || *update.Rating > 5 {
			return nil, domain.NewValidationError("review.update", "rating", "must be between 1 and 5")
		}
		review.Rating = *update.Rating
	}
	if update.Title != nil {
		review.Title = *update.Title
	}
	if update.Comment != nil {
		if *update.Comment == "" {
			return nil, domain.NewValidationError("review.update", "comment", "is required")
		}
		review.Comment = *update.Comment
	}
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, domain.Internal(err, "review.update", "failed to save review")
	}
	if err := s.reaggregate(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the caller's own review and re-aggregates the product rating.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uuid.UUID) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrReviewNotFound
	}
	if err != nil {
		return domain.Internal(err, "review.delete", "failed to load review")
	}

	if review.UserID != userID {
		return domain.Forbidden("review.delete", "you can only delete your own reviews")
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return domain.Internal(err, "review.delete", "failed to delete review")
	}
	return s.reaggregate(ctx, review.ProductID)
}

// ListByUser returns the caller's reviews, newest first.
func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "review.listByUser", "failed to list reviews")
	}
	return reviews, nil
}

// reaggregate recomputes the product's rating average and review count from
// every review on record.
func (s *ReviewService) reaggregate(ctx context.Context, productID uuid.UUID) error {
	reviews, err := s.reviews.AllByProduct(ctx, productID)
	if err != nil {
		return domain.Internal(err, "review.reaggregate", "failed to load reviews")
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		// Product deleted underneath us; nothing to update.
		return nil
	}
	if err != nil {
		return domain.Internal(err, "review.reaggregate", "failed to load product")
	}

	if len(reviews) == 0 {
		product.Rating = decimal.Zero
		product.ReviewCount = 0
	} else {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews))))
		product.Rating = domain.Round2(avg)
		product.ReviewCount = len(reviews)
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Internal(err, "review.reaggregate", "failed to save product rating")
	}
	return nil
}
