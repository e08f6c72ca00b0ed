package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// OrderRepository implements domain.OrderRepository in memory
type OrderRepository struct {
	store *Store
}

// NewOrderRepository creates an order repository over the store
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderLine{}, o.Items...)
	if o.PaymentResult != nil {
		out.PaymentResult = append([]byte{}, o.PaymentResult...)
	}
	return &out
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.orders {
		if existing.OrderNumber == order.OrderNumber {
			return domain.ErrAlreadyExists
		}
	}

	now := time.Now()
	order.ID = uuid.New()
	order.CreatedAt = now
	order.UpdatedAt = now

	r.store.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(order), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.collect(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orders := r.collect(func(o *domain.Order) bool {
		return filter.Status == "" || o.Status == filter.Status
	})
	return paginate(orders, filter.Limit, filter.Offset), nil
}

func (r *OrderRepository) Count(ctx context.Context, status domain.OrderStatus) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.collect(func(o *domain.Order) bool {
		return status == "" || o.Status == status
	})), nil
}

// collect must be called with the lock held
func (r *OrderRepository) collect(match func(*domain.Order) bool) []*domain.Order {
	orders := []*domain.Order{}
	for _, o := range r.store.orders {
		if match(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != expected {
		return domain.ErrConflict
	}

	stored.Status = order.Status
	stored.IsDelivered = order.IsDelivered
	stored.DeliveredAt = order.DeliveredAt
	stored.UpdatedAt = time.Now()
	order.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}

	stored.IsPaid = order.IsPaid
	stored.PaidAt = order.PaidAt
	stored.PaymentResult = append([]byte(nil), order.PaymentResult...)
	stored.UpdatedAt = time.Now()
	order.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.orders, id)
	return nil
}
