package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// Policy selects which reviews count towards a product's rating
type Policy struct {
	// ApprovedOnly counts only approved reviews when moderation is enabled
	ApprovedOnly bool
}

// Aggregator keeps Product.AverageRating and Product.RatingCount in step with reviews
type Aggregator struct {
	reviews  domain.ReviewRepository
	products domain.ProductRepository
	policy   Policy
	logger   *logger.Logger
}

// NewAggregator creates a new rating aggregator
func NewAggregator(reviews domain.ReviewRepository, products domain.ProductRepository, policy Policy, log *logger.Logger) *Aggregator {
	return &Aggregator{
		reviews:  reviews,
		products: products,
		policy:   policy,
		logger:   log,
	}
}

// Recompute rewrites the product's aggregate from its current reviews.
// A product that no longer exists is skipped.
func (a *Aggregator) Recompute(ctx context.Context, productID uuid.UUID) error {
	ratings, err := a.reviews.Ratings(ctx, productID, a.policy.ApprovedOnly)
	if err != nil {
		return fmt.Errorf("load ratings for product %s: %w", productID, err)
	}

	average := Mean(ratings)

	if err := a.products.UpdateRating(ctx, productID, average, len(ratings)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.logger.WithFields(map[string]interface{}{
				"product_id": productID.String(),
			}).Info("Product not found or deleted, skipping rating update")
			return nil
		}
		return fmt.Errorf("update rating for product %s: %w", productID, err)
	}

	a.logger.WithFields(map[string]interface{}{
		"product_id":     productID.String(),
		"average_rating": average,
		"rating_count":   len(ratings),
	}).Info("Successfully updated product rating")

	return nil
}

// Mean is the arithmetic mean of ratings, or 0 for none
func Mean(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
