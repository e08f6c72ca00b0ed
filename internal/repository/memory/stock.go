package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// StockRepository implements domain.StockRepository on the stored products.
// The check and the decrement happen under the same write lock.
type StockRepository struct {
	store *Store
}

// NewStockRepository creates a stock repository over the store
func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

func (r *StockRepository) Reserve(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.liveProduct(productID)
	if !ok {
		return 0, domain.ErrNotFound
	}
	if qty > product.AvailableQuantity {
		return 0, &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.AvailableQuantity,
		}
	}

	product.AvailableQuantity -= qty
	return product.AvailableQuantity, nil
}

// Release credits stock back even to soft-deleted products so compensation never fails on them
func (r *StockRepository) Release(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}

	product.AvailableQuantity += qty
	return product.AvailableQuantity, nil
}

func (r *StockRepository) Peek(ctx context.Context, productID uuid.UUID) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.liveProduct(productID)
	if !ok {
		return 0, domain.ErrNotFound
	}
	return product.AvailableQuantity, nil
}
