package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// ProductRepository implements domain.ProductRepository in memory
type ProductRepository struct {
	store *Store
}

// NewProductRepository creates a product repository over the store
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	product.ID = uuid.New()
	product.Version = 1
	product.AverageRating = 0
	product.RatingCount = 0
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := *product
	r.store.products[product.ID] = &stored
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.liveProduct(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *product
	return &out, nil
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if p.DeletedAt == nil {
			out := *p
			products = append(products, &out)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})

	return paginate(products, limit, offset), nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.liveProduct(product.ID)
	if !ok || stored.Version != product.Version {
		return domain.ErrConflict
	}

	stored.Name = product.Name
	stored.Description = product.Description
	stored.Price = product.Price
	stored.Version++
	stored.UpdatedAt = time.Now()

	product.Version = stored.Version
	product.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.liveProduct(id)
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	product.DeletedAt = &now
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, p := range r.store.products {
		if p.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.liveProduct(id)
	if !ok {
		return domain.ErrNotFound
	}
	product.AverageRating = average
	product.RatingCount = count
	product.UpdatedAt = time.Now()
	return nil
}

// liveProduct must be called with the lock held
func (s *Store) liveProduct(id uuid.UUID) (*domain.Product, bool) {
	product, ok := s.products[id]
	if !ok || product.DeletedAt != nil {
		return nil, false
	}
	return product, true
}
