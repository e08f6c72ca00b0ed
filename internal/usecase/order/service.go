package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/pkg/validator"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
	"github.com/Pesokrava/storefront/internal/usecase/stock"
)

const (
	ordersSubject = "orders.events"

	// orderNumberAttempts bounds regeneration after a unique index collision
	orderNumberAttempts = 3
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// CartStore is the part of the cart aggregate checkout needs
type CartStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Event is published on every order lifecycle change
type Event struct {
	EventType   string             `json:"event_type"`
	Timestamp   time.Time          `json:"timestamp"`
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      uuid.UUID          `json:"user_id"`
	Status      domain.OrderStatus `json:"status"`
	GrandTotal  string             `json:"grand_total"`
}

// ItemInput is one requested order line
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Variant   domain.Variant
}

// CreateInput carries everything needed to place an order
type CreateInput struct {
	UserID          uuid.UUID
	Items           []ItemInput
	PaymentMethod   domain.PaymentMethod
	ShippingAddress domain.ShippingAddress
	FromCart        bool
	Notes           string
}

// Service is the order fulfillment engine
type Service struct {
	orders     domain.OrderRepository
	products   domain.ProductRepository
	ledger     *stock.Ledger
	carts      CartStore
	dispatcher leadscore.Dispatcher
	publisher  EventPublisher
	pricing    domain.Pricing
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new order service
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	ledger *stock.Ledger,
	carts CartStore,
	dispatcher leadscore.Dispatcher,
	publisher EventPublisher,
	pricing domain.Pricing,
	log *logger.Logger,
) *Service {
	return &Service{
		orders:     orders,
		products:   products,
		ledger:     ledger,
		carts:      carts,
		dispatcher: dispatcher,
		publisher:  publisher,
		pricing:    pricing,
		logger:     log,
		now:        time.Now,
	}
}

// Create reserves stock for every line and persists a pending order.
// Either the order is stored with all stock debited, or no stock moves.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if err := validatePaymentMethod(in.PaymentMethod); err != nil {
		return nil, err
	}
	if err := validator.Struct(in.ShippingAddress); err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}

	items, err := s.resolveItems(ctx, in)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLine, 0, len(items))
	reserve := make([]stock.Line, 0, len(items))
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Variant:   item.Variant,
		})
		reserve = append(reserve, stock.Line{ProductID: product.ID, Quantity: item.Quantity})
	}

	reservation, err := s.ledger.ReserveAll(ctx, reserve)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.logger.WithFields(map[string]interface{}{
				"user_id":    in.UserID,
				"product_id": stockErr.ProductID,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			}).Info("Order rejected, insufficient stock")
			return nil, stockErr
		}
		s.logger.Error("Failed to reserve stock", err)
		return nil, err
	}

	order := &domain.Order{
		UserID:          in.UserID,
		Items:           lines,
		PaymentMethod:   in.PaymentMethod,
		Status:          domain.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
	}
	order.ApplyTotals(s.pricing)

	if err := s.persist(ctx, order); err != nil {
		s.logger.Error("Failed to persist order, releasing stock", err)
		reservation.Rollback(ctx)
		return nil, err
	}

	if in.FromCart {
		if err := s.carts.Clear(ctx, in.UserID); err != nil {
			s.logger.Warnf("Order %s placed but cart for user %s was not cleared: %v", order.OrderNumber, in.UserID, err)
		}
	}

	s.dispatcher.Dispatch(in.UserID, domain.LeadEventPlaceOrder)
	s.publishEvent("order.created", order)

	s.logger.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"grand_total":  order.GrandTotal.String(),
	}).Info("Order created successfully")

	return order, nil
}

func (s *Service) resolveItems(ctx context.Context, in CreateInput) ([]ItemInput, error) {
	items := in.Items
	if len(items) == 0 && in.FromCart {
		cart, err := s.carts.Get(ctx, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		for _, line := range cart.Items {
			items = append(items, ItemInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Variant:   line.Variant,
			})
		}
	}

	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "order must contain at least one item")
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.NewValidationError("quantity", "must be at least 1")
		}
	}

	return items, nil
}

// persist stores the order, regenerating the order number on collision
func (s *Service) persist(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = domain.GenerateOrderNumber(s.now())
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		s.logger.Warnf("Order number %s collided, regenerating", order.OrderNumber)
	}
	return fmt.Errorf("generate unique order number: %w", err)
}

// Cancel lets the owner cancel an order that is not delivered or already cancelled.
// The status flips first so a concurrent second cancel cannot credit stock twice.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, requester domain.Identity) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requester.UserID {
		return nil, domain.ErrForbidden
	}

	if err := s.transition(ctx, order, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  requester.UserID,
	}).Info("Order cancelled")

	return order, nil
}

// UpdateStatus moves an order along the transition table on behalf of an admin
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown order status")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, order, status); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status updated")

	return order, nil
}

func (s *Service) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus) error {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrInvalidState, from, to)
	}

	order.Status = to
	if to == domain.OrderStatusDelivered {
		now := s.now().UTC()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.orders.UpdateStatus(ctx, order, from); err != nil {
		order.Status = from
		if errors.Is(err, domain.ErrConflict) {
			return s.conflict(ctx, order.ID, to)
		}
		s.logger.Error("Failed to update order status", err)
		return err
	}

	if to == domain.OrderStatusCancelled {
		s.ledger.ReleaseAll(ctx, releaseLines(order))
		s.publishEvent("order.cancelled", order)
		return nil
	}

	s.publishEvent("order.status_changed", order)
	return nil
}

// conflict explains a lost compare-and-set using the status that won
func (s *Service) conflict(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) error {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: order is already %s", domain.ErrInvalidState, current.Status)
	}
	return domain.ErrConflict
}

func releaseLines(order *domain.Order) []stock.Line {
	lines := make([]stock.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, stock.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// UpdatePayment records the opaque payment result. Status is not changed.
func (s *Service) UpdatePayment(ctx context.Context, orderID uuid.UUID, requester domain.Identity, result json.RawMessage) (*domain.Order, error) {
	if len(result) > 0 && !json.Valid(result) {
		return nil, domain.NewValidationError("payment_result", "must be valid JSON")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requester.UserID {
		return nil, domain.ErrForbidden
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", domain.ErrInvalidState)
	}

	now := s.now().UTC()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = result

	if err := s.orders.UpdatePayment(ctx, order); err != nil {
		s.logger.Error("Failed to update order payment", err)
		return nil, err
	}

	s.publishEvent("order.paid", order)

	s.logger.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	}).Info("Order marked as paid")

	return order, nil
}

// Get returns an order to its owner or an admin
func (s *Service) Get(ctx context.Context, orderID uuid.UUID, requester domain.Identity) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Order not found: %s", orderID)
		} else {
			s.logger.Error("Failed to get order", err)
		}
		return nil, err
	}

	if !requester.CanAccess(order.UserID) {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

// ListForUser returns the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list user orders", err)
		return nil, err
	}
	return orders, nil
}

// ListAll returns a page of all orders for admins, optionally narrowed by status
func (s *Service) ListAll(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "unknown order status")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list orders", err)
		return nil, 0, err
	}

	total, err := s.orders.Count(ctx, filter.Status)
	if err != nil {
		s.logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	return orders, total, nil
}

// Delete removes an order record. Stock is not touched.
func (s *Service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger.Error("Failed to delete order", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"order_id": orderID,
	}).Info("Order deleted")

	return nil
}

func validatePaymentMethod(method domain.PaymentMethod) error {
	switch method {
	case domain.PaymentCreditCard, domain.PaymentPayPal, domain.PaymentCOD, domain.PaymentUPI:
		return nil
	}
	return domain.NewValidationError("payment_method", "must be one of credit_card, paypal, cod, upi")
}

// publishEvent publishes an order event (non-blocking)
func (s *Service) publishEvent(eventType string, order *domain.Order) {
	event := Event{
		EventType:   eventType,
		Timestamp:   s.now().UTC(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
		GrandTotal:  order.GrandTotal.String(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for order %s", order.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), ordersSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for order %s", order.ID)
		}
	}()
}
