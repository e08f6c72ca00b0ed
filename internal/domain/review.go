package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known moderation state
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Review represents a product review in the system
type Review struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	ProductID    uuid.UUID    `json:"product_id" db:"product_id" validate:"required"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id" validate:"required"`
	Rating       int          `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Title        string       `json:"title,omitempty" db:"title" validate:"max=255"`
	Comment      string       `json:"comment" db:"comment" validate:"required,min=1,max=5000"`
	Status       ReviewStatus `json:"status" db:"status"`
	AdminComment *string      `json:"admin_comment,omitempty" db:"admin_comment"`
	ModeratedAt  *time.Time   `json:"moderated_at,omitempty" db:"moderated_at"`
	ModeratedBy  *uuid.UUID   `json:"moderated_by,omitempty" db:"moderated_by"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ReviewFilter narrows review listings
type ReviewFilter struct {
	ProductID *uuid.UUID
	Status    ReviewStatus
	Limit     int
	Offset    int
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create creates a new review; ErrNotFound when the product is missing,
	// ErrAlreadyExists when the user already reviewed the product
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID (excludes soft-deleted)
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// List retrieves reviews matching the filter (excludes soft-deleted)
	List(ctx context.Context, filter ReviewFilter) ([]*Review, error)

	// Count returns the number of reviews matching the filter (limit/offset ignored)
	Count(ctx context.Context, filter ReviewFilter) (int, error)

	// Update updates rating, title and comment
	Update(ctx context.Context, review *Review) error

	// Moderate writes status and moderation fields
	Moderate(ctx context.Context, review *Review) error

	// Delete soft-deletes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByProductID soft-deletes all reviews for a product (cascade delete)
	DeleteByProductID(ctx context.Context, productID uuid.UUID) error

	// Ratings returns the ratings counted for a product's aggregate
	Ratings(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]int, error)
}

// ReviewCache caches paginated review lists per product
type ReviewCache interface {
	GetReviewsList(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Review, int, error)
	SetReviewsList(ctx context.Context, productID uuid.UUID, limit, offset int, reviews []*Review, total int) error
	InvalidateAllProductCache(ctx context.Context, productID uuid.UUID) error
}
