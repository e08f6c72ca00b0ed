package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether from → to is in the transition table
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentPayPal     PaymentMethod = "paypal"
	PaymentCOD        PaymentMethod = "cod"
	PaymentUPI        PaymentMethod = "upi"
)

// ShippingAddress is stored verbatim on the order
type ShippingAddress struct {
	FullName     string `json:"full_name" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
}

// OrderLine is immutable once the order is created
type OrderLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Variant
}

// Subtotal returns frozen price × quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.UUID       `json:"user_id"`
	Items           []OrderLine     `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Discount        decimal.Decimal `json:"discount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentResult   json.RawMessage `json:"payment_result,omitempty"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Status          OrderStatus     `json:"status"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Pricing holds the flat tax rate and shipping fee applied at order creation
type Pricing struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

// ApplyTotals derives total, tax, shipping and grand total from the lines
func (o *Order) ApplyTotals(p Pricing) {
	total := decimal.Zero
	for _, line := range o.Items {
		total = total.Add(line.Subtotal())
	}
	o.TotalPrice = total
	o.Tax = total.Mul(p.TaxRate).Round(2)
	o.ShippingFee = p.ShippingFee
	o.GrandTotal = o.computeGrandTotal()
}

func (o *Order) computeGrandTotal() decimal.Decimal {
	return o.TotalPrice.Add(o.Tax).Add(o.ShippingFee).Sub(o.Discount)
}

// GrandTotalConsistent reports whether grand_total = total + tax + shipping - discount
func (o *Order) GrandTotalConsistent() bool {
	return o.GrandTotal.Equal(o.computeGrandTotal())
}

// GenerateOrderNumber builds ORD-<YYYY-MM-DD>-<8hex>
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("2006-01-02"), suffix)
}

// OrderFilter narrows admin listings
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}

// OrderRepository defines the interface for order documents
type OrderRepository interface {
	// Create persists a new order; ErrAlreadyExists on order number collision
	Create(ctx context.Context, order *Order) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// ListByUser returns a user's orders, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// List returns orders matching the filter, newest first
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)

	// Count returns the number of orders matching the filter status
	Count(ctx context.Context, status OrderStatus) (int, error)

	// UpdateStatus writes status and delivery fields if the stored status still equals expected.
	// Returns ErrConflict when another writer changed the status first.
	UpdateStatus(ctx context.Context, order *Order, expected OrderStatus) error

	// UpdatePayment writes payment fields
	UpdatePayment(ctx context.Context, order *Order) error

	// Delete removes an order
	Delete(ctx context.Context, id uuid.UUID) error
}
