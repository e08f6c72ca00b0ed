package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// WishlistRepository implements domain.WishlistRepository in memory
type WishlistRepository struct {
	store *Store
}

// NewWishlistRepository creates a wishlist repository over the store
func NewWishlistRepository(store *Store) *WishlistRepository {
	return &WishlistRepository{store: store}
}

func (r *WishlistRepository) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]uuid.UUID{}, r.store.wishlists[userID]...), nil
}

func (r *WishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, id := range r.store.wishlists[userID] {
		if id == productID {
			return domain.ErrAlreadyExists
		}
	}
	r.store.wishlists[userID] = append(r.store.wishlists[userID], productID)
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := r.store.wishlists[userID]
	for i, id := range ids {
		if id == productID {
			r.store.wishlists[userID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
