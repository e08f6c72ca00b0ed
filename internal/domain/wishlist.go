package domain

import (
	"context"

	"github.com/google/uuid"
)

// WishlistRepository stores a per-user set of product ids
type WishlistRepository interface {
	// ProductIDs returns the user's wishlist in insertion order (empty when none)
	ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Add appends a product; ErrAlreadyExists when it is already present
	Add(ctx context.Context, userID, productID uuid.UUID) error

	// Remove drops a product; ErrNotFound when it is not present
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}
