package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant selects a size/color flavour of a product
type Variant struct {
	Size  *int   `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Equal reports whether two variants select the same flavour
func (v Variant) Equal(other Variant) bool {
	if v.Color != other.Color {
		return false
	}
	if v.Size == nil || other.Size == nil {
		return v.Size == nil && other.Size == nil
	}
	return *v.Size == *other.Size
}

// CartLine is a single product line in a user's cart
type CartLine struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Price     decimal.Decimal `json:"price"`
	Variant
	AddedAt time.Time `json:"added_at"`
}

// Subtotal returns price × quantity for the line
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the per-user mutable collection of lines. The total is always derived.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty, unsaved cart for the user
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartLine{},
	}
}

// TotalPrice sums price × quantity over all lines
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Items {
		total = total.Add(line.Subtotal())
	}
	return total
}

// FindLine returns the index of the line with the given id, or -1
func (c *Cart) FindLine(lineID uuid.UUID) int {
	for i, line := range c.Items {
		if line.ID == lineID {
			return i
		}
	}
	return -1
}

// FindProductLine returns the index of the line for product+variant, or -1
func (c *Cart) FindProductLine(productID uuid.UUID, variant Variant) int {
	for i, line := range c.Items {
		if line.ProductID == productID && line.Variant.Equal(variant) {
			return i
		}
	}
	return -1
}

// RemoveLine deletes the line at index i preserving order
func (c *Cart) RemoveLine(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// MarshalJSON adds the derived total_price to the serialized cart
func (c Cart) MarshalJSON() ([]byte, error) {
	type cartAlias Cart
	items := c.Items
	if items == nil {
		items = []CartLine{}
	}
	alias := cartAlias(c)
	alias.Items = items
	return json.Marshal(struct {
		cartAlias
		TotalPrice decimal.Decimal `json:"total_price"`
	}{
		cartAlias:  alias,
		TotalPrice: c.TotalPrice(),
	})
}

// CartRepository defines the interface for cart documents, one per user
type CartRepository interface {
	// GetByUserID returns the user's cart or ErrNotFound
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save inserts or replaces the user's cart document
	Save(ctx context.Context, cart *Cart) error

	// DeleteByUserID removes the user's cart; ErrNotFound when there is none
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// CartCache caches cart documents per user
type CartCache interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	SetCart(ctx context.Context, cart *Cart) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}
