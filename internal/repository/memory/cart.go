package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// CartRepository implements domain.CartRepository in memory, keyed by user
type CartRepository struct {
	store *Store
}

// NewCartRepository creates a cart repository over the store
func NewCartRepository(store *Store) *CartRepository {
	return &CartRepository{store: store}
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartLine{}, c.Items...)
	return &out
}

func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cart, ok := r.store.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCart(cart), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	if existing, ok := r.store.carts[cart.UserID]; ok {
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
	} else {
		cart.ID = uuid.New()
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}

	r.store.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (r *CartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.carts[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.carts, userID)
	return nil
}
