package review

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/pkg/validator"
	"github.com/Pesokrava/storefront/internal/usecase/rating"
)

const reviewsSubject = "reviews.events"

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Recomputer rewrites a product's rating aggregate
type Recomputer interface {
	Recompute(ctx context.Context, productID uuid.UUID) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	ProductID uuid.UUID      `json:"product_id"`
	Review    *domain.Review `json:"review"`
}

// UpdateInput holds the fields an author may change
type UpdateInput struct {
	Rating  int    `validate:"required,min=1,max=5"`
	Title   string `validate:"max=255"`
	Comment string `validate:"required,min=1,max=5000"`
}

// Service handles review business logic with caching, rating recompute and event publishing
type Service struct {
	repo       domain.ReviewRepository
	cache      domain.ReviewCache
	aggregator Recomputer
	publisher  EventPublisher
	policy     rating.Policy
	logger     *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	cache domain.ReviewCache,
	aggregator Recomputer,
	publisher EventPublisher,
	policy rating.Policy,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		aggregator: aggregator,
		publisher:  publisher,
		policy:     policy,
		logger:     log,
	}
}

// Create creates a new review. With moderation on it starts pending.
func (s *Service) Create(ctx context.Context, review *domain.Review) error {
	if err := validator.Struct(review); err != nil {
		s.logger.Debugf("Review validation failed: %v", err)
		return err
	}

	review.Status = s.initialStatus()

	if err := s.repo.Create(ctx, review); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to create review", err)
		}
		return err
	}

	s.afterChange(ctx, "review.created", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
		"status":     review.Status,
	}).Info("Review created successfully")

	return nil
}

func (s *Service) initialStatus() domain.ReviewStatus {
	if s.policy.ApprovedOnly {
		return domain.ReviewStatusPending
	}
	return domain.ReviewStatusApproved
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	return review, nil
}

// GetByProductID retrieves the publicly visible reviews for a product with caching
func (s *Service) GetByProductID(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*domain.Review, int, error) {
	limit, offset = normalizePage(limit, offset)

	reviews, total, err := s.cache.GetReviewsList(ctx, productID, limit, offset)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s reviews (limit=%d, offset=%d)", productID, limit, offset)
		return reviews, total, nil
	}

	s.logger.Debugf("Cache miss for product %s reviews (limit=%d, offset=%d)", productID, limit, offset)

	filter := domain.ReviewFilter{ProductID: &productID, Limit: limit, Offset: offset}
	if s.policy.ApprovedOnly {
		filter.Status = domain.ReviewStatusApproved
	}

	reviews, total, err = s.list(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.SetReviewsList(ctx, productID, limit, offset, reviews, total); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s (limit=%d, offset=%d): %v", productID, limit, offset, err)
	}

	return reviews, total, nil
}

// List returns reviews across products for moderation
func (s *Service) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "must be one of pending, approved, rejected")
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	return reviews, total, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Update lets the author edit a review. Edited reviews go back to moderation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, requester domain.Identity, in UpdateInput) (*domain.Review, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Review validation failed: %v", err)
		return nil, err
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get existing review", err)
		}
		return nil, err
	}

	if review.UserID != requester.UserID {
		return nil, domain.ErrForbidden
	}

	review.Rating = in.Rating
	review.Title = in.Title
	review.Comment = in.Comment
	review.Status = s.initialStatus()

	if err := s.repo.Update(ctx, review); err != nil {
		s.logger.Error("Failed to update review", err)
		return nil, err
	}

	s.afterChange(ctx, "review.updated", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review updated successfully")

	return review, nil
}

// Delete soft-deletes a review on behalf of its author or an admin
func (s *Service) Delete(ctx context.Context, id uuid.UUID, requester domain.Identity) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get review for deletion", err)
		}
		return err
	}

	if !requester.CanAccess(review.UserID) {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete review", err)
		return err
	}

	s.afterChange(ctx, "review.deleted", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"product_id": review.ProductID,
	}).Info("Review deleted successfully")

	return nil
}

// Moderate approves or rejects a review
func (s *Service) Moderate(ctx context.Context, id uuid.UUID, moderator domain.Identity, status domain.ReviewStatus, comment *string) (*domain.Review, error) {
	if status != domain.ReviewStatusApproved && status != domain.ReviewStatusRejected {
		return nil, domain.NewValidationError("status", "must be approved or rejected")
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get review for moderation", err)
		}
		return nil, err
	}

	now := time.Now().UTC()
	moderatorID := moderator.UserID
	review.Status = status
	review.AdminComment = comment
	review.ModeratedAt = &now
	review.ModeratedBy = &moderatorID

	if err := s.repo.Moderate(ctx, review); err != nil {
		s.logger.Error("Failed to moderate review", err)
		return nil, err
	}

	s.afterChange(ctx, "review.moderated", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":    review.ID,
		"product_id":   review.ProductID,
		"status":       review.Status,
		"moderated_by": moderatorID,
	}).Info("Review moderated")

	return review, nil
}

// afterChange keeps derived state in step with the review table. A failed recompute
// is repaired by the rating worker consuming the published event.
func (s *Service) afterChange(ctx context.Context, eventType string, review *domain.Review) {
	detached := context.WithoutCancel(ctx)

	if err := s.aggregator.Recompute(detached, review.ProductID); err != nil {
		s.logger.Errorf(err, "Failed to recompute rating for product %s", review.ProductID)
	}

	if err := s.cache.InvalidateAllProductCache(detached, review.ProductID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", review.ProductID, err)
	}

	s.publishEvent(eventType, review)
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(eventType string, review *domain.Review) {
	event := ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: review.ProductID,
		Review:    review,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), reviewsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
