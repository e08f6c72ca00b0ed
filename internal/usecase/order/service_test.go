package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/repository/cache"
	"github.com/Pesokrava/storefront/internal/repository/memory"
	"github.com/Pesokrava/storefront/internal/usecase/cart"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
	"github.com/Pesokrava/storefront/internal/usecase/stock"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []domain.LeadEventType
}

func (d *recordingDispatcher) Dispatch(_ uuid.UUID, event domain.LeadEventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) count(event domain.LeadEventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e == event {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// failingOrderRepository refuses to persist new orders
type failingOrderRepository struct {
	*memory.OrderRepository
}

func (r failingOrderRepository) Create(context.Context, *domain.Order) error {
	return errors.New("connection reset")
}

type fixture struct {
	service    *Service
	products   *memory.ProductRepository
	stock      *memory.StockRepository
	orders     domain.OrderRepository
	carts      *cart.Service
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
}

func newFixture(t *testing.T, wrap func(*memory.OrderRepository) domain.OrderRepository) *fixture {
	store := memory.NewStore()
	log := logger.New("test")
	products := memory.NewProductRepository(store)
	stockRepo := memory.NewStockRepository(store)
	dispatcher := &recordingDispatcher{}
	publisher := &recordingPublisher{}

	var orders domain.OrderRepository = memory.NewOrderRepository(store)
	if wrap != nil {
		orders = wrap(memory.NewOrderRepository(store))
	}

	carts := cart.NewService(memory.NewCartRepository(store), cache.NopCache{}, products, stockRepo, dispatcher, log)
	pricing := domain.Pricing{TaxRate: decimal.Zero, ShippingFee: decimal.Zero}

	return &fixture{
		service:    NewService(orders, products, stock.NewLedger(stockRepo, log), carts, dispatcher, publisher, pricing, log),
		products:   products,
		stock:      stockRepo,
		orders:     orders,
		carts:      carts,
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

func (f *fixture) product(t *testing.T, name, price string, qty int) *domain.Product {
	p := &domain.Product{Name: name, Price: decimal.RequireFromString(price), AvailableQuantity: qty}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) available(t *testing.T, productID uuid.UUID) int {
	qty, err := f.stock.Peek(context.Background(), productID)
	require.NoError(t, err)
	return qty
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 St James's Square",
		City:         "London",
		State:        "London",
		PostalCode:   "SW1Y 4JH",
		Country:      "UK",
		Phone:        "+44 20 7946 0000",
	}
}

func input(userID uuid.UUID, items ...ItemInput) CreateInput {
	return CreateInput{
		UserID:          userID,
		Items:           items,
		PaymentMethod:   domain.PaymentCOD,
		ShippingAddress: address(),
	}
}

func TestService_Create_LastUnitGoesToExactlyOneBuyer(t *testing.T) {
	f := newFixture(t, nil)
	lamp := f.product(t, "Lamp", "25.00", 1)

	var (
		mu        sync.Mutex
		successes int
		rejected  int
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := f.service.Create(ctx, input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, f.available(t, lamp.ID))

	total, err := f.orders.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestService_Create_FromCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	shoe := f.product(t, "Shoe", "10.00", 5)

	_, err := f.carts.AddLine(ctx, userID, shoe.ID, 2, domain.Variant{})
	require.NoError(t, err)

	in := input(userID)
	in.FromCart = true
	order, err := f.service.Create(ctx, in)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(order.Items[0].Price))
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.TotalPrice))
	assert.True(t, order.GrandTotalConsistent())
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD-\d{4}-\d{2}-\d{2}-[0-9a-f]{8}$`, order.OrderNumber)

	assert.Equal(t, 3, f.available(t, shoe.ID))

	cleared, err := f.carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)

	assert.Equal(t, 1, f.dispatcher.count(domain.LeadEventPlaceOrder))
	assert.Eventually(t, func() bool {
		types := f.publisher.types()
		return len(types) == 1 && types[0] == "order.created"
	}, time.Second, 10*time.Millisecond)
}

func TestService_Create_AllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.product(t, "A", "5.00", 5)
	b := f.product(t, "B", "7.00", 1)

	_, err := f.service.Create(ctx, input(uuid.New(),
		ItemInput{ProductID: a.ID, Quantity: 2},
		ItemInput{ProductID: b.ID, Quantity: 3},
	))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, b.ID, stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 5, f.available(t, a.ID))
	assert.Equal(t, 1, f.available(t, b.ID))
	assert.Zero(t, f.dispatcher.count(domain.LeadEventPlaceOrder))

	total, err := f.orders.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestService_Create_PersistFailureRestoresStock(t *testing.T) {
	f := newFixture(t, func(r *memory.OrderRepository) domain.OrderRepository {
		return failingOrderRepository{r}
	})
	lamp := f.product(t, "Lamp", "25.00", 4)

	_, err := f.service.Create(context.Background(), input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 3}))

	assert.Error(t, err)
	assert.Equal(t, 4, f.available(t, lamp.ID))
	assert.Zero(t, f.dispatcher.count(domain.LeadEventPlaceOrder))
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t, nil)
	lamp := f.product(t, "Lamp", "25.00", 4)
	userID := uuid.New()

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		target error
	}{
		{
			name:   "no items",
			mutate: func(in *CreateInput) { in.Items = nil },
			target: domain.ErrInvalidInput,
		},
		{
			name:   "empty cart",
			mutate: func(in *CreateInput) { in.Items = nil; in.FromCart = true },
			target: domain.ErrInvalidInput,
		},
		{
			name:   "zero quantity",
			mutate: func(in *CreateInput) { in.Items[0].Quantity = 0 },
			target: domain.ErrInvalidInput,
		},
		{
			name:   "unknown payment method",
			mutate: func(in *CreateInput) { in.PaymentMethod = "barter" },
			target: domain.ErrInvalidInput,
		},
		{
			name:   "missing city",
			mutate: func(in *CreateInput) { in.ShippingAddress.City = "" },
			target: domain.ErrInvalidInput,
		},
		{
			name:   "unknown product",
			mutate: func(in *CreateInput) { in.Items[0].ProductID = uuid.New() },
			target: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(userID, ItemInput{ProductID: lamp.ID, Quantity: 1})
			tt.mutate(&in)

			_, err := f.service.Create(context.Background(), in)

			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, 4, f.available(t, lamp.ID))
		})
	}
}

func TestService_Cancel_RestoresStockOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, 1, f.available(t, lamp.ID))

	owner := domain.Identity{UserID: userID, Role: domain.RoleUser}

	cancelled, err := f.service.Cancel(ctx, order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 4, f.available(t, lamp.ID))

	_, err = f.service.Cancel(ctx, order.ID, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 4, f.available(t, lamp.ID))
}

func TestService_Cancel_ConcurrentCallsCreditOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 2}))
	require.NoError(t, err)

	owner := domain.Identity{UserID: userID, Role: domain.RoleUser}

	var (
		mu        sync.Mutex
		successes int
	)
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := f.service.Cancel(ctx, order.ID, owner)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return nil
			}
			if errors.Is(err, domain.ErrInvalidState) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, f.available(t, lamp.ID))
}

func TestService_Cancel_Rules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, order.ID, domain.Identity{UserID: uuid.New(), Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.Cancel(ctx, uuid.New(), domain.Identity{UserID: userID})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, status := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		_, err = f.service.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
	}

	_, err = f.service.Cancel(ctx, order.ID, domain.Identity{UserID: userID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 3, f.available(t, lamp.ID))
}

func TestService_UpdateStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 2}))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.service.UpdateStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)

	delivered, err := f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.NotNil(t, delivered.DeliveredAt)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	assert.True(t, stored.IsDelivered)

	assert.Equal(t, 2, f.available(t, lamp.ID))
}

func TestService_UpdateStatus_AdminCancelReleasesStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, 4, f.available(t, lamp.ID))
	assert.Eventually(t, func() bool {
		for _, eventType := range f.publisher.types() {
			if eventType == "order.cancelled" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestService_UpdatePayment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 1}))
	require.NoError(t, err)

	result := json.RawMessage(`{"id":"pay_123","status":"COMPLETED"}`)

	_, err = f.service.UpdatePayment(ctx, order.ID, domain.Identity{UserID: uuid.New()}, result)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.UpdatePayment(ctx, order.ID, domain.Identity{UserID: userID}, json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	paid, err := f.service.UpdatePayment(ctx, order.ID, domain.Identity{UserID: userID}, result)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, domain.OrderStatusPending, paid.Status)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.JSONEq(t, string(result), string(stored.PaymentResult))
}

func TestService_GetAndList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", "25.00", 10)

	first, err := f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, input(userID, ItemInput{ProductID: lamp.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 1}))
	require.NoError(t, err)

	got, err := f.service.Get(ctx, first.ID, domain.Identity{UserID: userID, Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, got.OrderNumber)

	_, err = f.service.Get(ctx, first.ID, domain.Identity{UserID: uuid.New(), Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.Get(ctx, first.ID, domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin})
	assert.NoError(t, err)

	mine, err := f.service.ListForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, total, err := f.service.ListAll(ctx, domain.OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 3, total)

	_, _, err = f.service.ListAll(ctx, domain.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_Delete_LeavesStockAlone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	lamp := f.product(t, "Lamp", "25.00", 4)

	order, err := f.service.Create(ctx, input(uuid.New(), ItemInput{ProductID: lamp.ID, Quantity: 2}))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, order.ID))
	assert.Equal(t, 2, f.available(t, lamp.ID))

	assert.ErrorIs(t, f.service.Delete(ctx, order.ID), domain.ErrNotFound)
}

var _ leadscore.Dispatcher = (*recordingDispatcher)(nil)
