package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository in memory
type ReviewRepository struct {
	store *Store
}

// NewReviewRepository creates a review repository over the store
func NewReviewRepository(store *Store) *ReviewRepository {
	return &ReviewRepository{store: store}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.liveProduct(review.ProductID); !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.store.reviews {
		if existing.DeletedAt == nil && existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return domain.ErrAlreadyExists
		}
	}

	now := time.Now()
	review.ID = uuid.New()
	review.CreatedAt = now
	review.UpdatedAt = now

	stored := *review
	r.store.reviews[review.ID] = &stored
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	review, ok := r.store.liveReview(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *review
	return &out, nil
}

func (r *ReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return paginate(r.matching(filter), filter.Limit, filter.Offset), nil
}

func (r *ReviewRepository) Count(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.matching(filter)), nil
}

// matching must be called with the lock held
func (r *ReviewRepository) matching(filter domain.ReviewFilter) []*domain.Review {
	reviews := []*domain.Review{}
	for _, review := range r.store.reviews {
		if review.DeletedAt != nil {
			continue
		}
		if filter.ProductID != nil && review.ProductID != *filter.ProductID {
			continue
		}
		if filter.Status != "" && review.Status != filter.Status {
			continue
		}
		out := *review
		reviews = append(reviews, &out)
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.liveReview(review.ID)
	if !ok {
		return domain.ErrNotFound
	}

	stored.Rating = review.Rating
	stored.Title = review.Title
	stored.Comment = review.Comment
	stored.Status = review.Status
	stored.UpdatedAt = time.Now()
	review.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ReviewRepository) Moderate(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.liveReview(review.ID)
	if !ok {
		return domain.ErrNotFound
	}

	stored.Status = review.Status
	stored.AdminComment = review.AdminComment
	stored.ModeratedAt = review.ModeratedAt
	stored.ModeratedBy = review.ModeratedBy
	stored.UpdatedAt = time.Now()
	review.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	review, ok := r.store.liveReview(id)
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	review.DeletedAt = &now
	return nil
}

func (r *ReviewRepository) DeleteByProductID(ctx context.Context, productID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	for _, review := range r.store.reviews {
		if review.ProductID == productID && review.DeletedAt == nil {
			review.DeletedAt = &now
		}
	}
	return nil
}

func (r *ReviewRepository) Ratings(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ratings := []int{}
	for _, review := range r.store.reviews {
		if review.DeletedAt != nil || review.ProductID != productID {
			continue
		}
		if approvedOnly && review.Status != domain.ReviewStatusApproved {
			continue
		}
		ratings = append(ratings, review.Rating)
	}
	return ratings, nil
}

// liveReview must be called with the lock held
func (s *Store) liveReview(id uuid.UUID) (*domain.Review, bool) {
	review, ok := s.reviews[id]
	if !ok || review.DeletedAt != nil {
		return nil, false
	}
	return review, true
}
