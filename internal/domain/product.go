package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog product together with its stock counter and rating aggregate
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Name              string          `json:"name" db:"name" validate:"required,min=1,max=255"`
	Description       *string         `json:"description,omitempty" db:"description"`
	Price             decimal.Decimal `json:"price" db:"price"`
	AvailableQuantity int             `json:"available_quantity" db:"available_quantity" validate:"gte=0"`
	AverageRating     float64         `json:"average_rating" db:"average_rating"`
	RatingCount       int             `json:"rating_count" db:"rating_count"`
	Version           int             `json:"version" db:"version"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ProductRepository defines the interface for product data access.
// Stock and rating columns are never written by Update; they have their own narrow writers.
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID (excludes soft-deleted)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves a paginated list of products (excludes soft-deleted)
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// Update updates name, description and price using the version for optimistic locking
	Update(ctx context.Context, product *Product) error

	// Delete soft-deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of products (excludes soft-deleted)
	Count(ctx context.Context) (int, error)

	// UpdateRating overwrites the derived rating aggregate
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error
}

// StockRepository owns the per-product available quantity counter.
// Every method is a single atomic operation on one product.
type StockRepository interface {
	// Reserve decrements available quantity by qty if and only if qty <= available.
	// Returns *InsufficientStockError without mutating otherwise, ErrNotFound for unknown products.
	Reserve(ctx context.Context, productID uuid.UUID, qty int) (remaining int, err error)

	// Release increments available quantity by qty
	Release(ctx context.Context, productID uuid.UUID, qty int) (remaining int, err error)

	// Peek returns the current available quantity
	Peek(ctx context.Context, productID uuid.UUID) (int, error)
}
