package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Pesokrava/storefront/internal/domain"
)

const orderColumns = `id, order_number, user_id, items, total_price, tax, shipping_fee, discount, grand_total,
	payment_method, payment_result, is_paid, paid_at, status, is_delivered, delivered_at,
	shipping_address, notes, created_at, updated_at`

// OrderRepository implements domain.OrderRepository for PostgreSQL
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderRow struct {
	ID              uuid.UUID                     `db:"id"`
	OrderNumber     string                        `db:"order_number"`
	UserID          uuid.UUID                     `db:"user_id"`
	Items           jsonb[[]domain.OrderLine]     `db:"items"`
	TotalPrice      decimal.Decimal               `db:"total_price"`
	Tax             decimal.Decimal               `db:"tax"`
	ShippingFee     decimal.Decimal               `db:"shipping_fee"`
	Discount        decimal.Decimal               `db:"discount"`
	GrandTotal      decimal.Decimal               `db:"grand_total"`
	PaymentMethod   string                        `db:"payment_method"`
	PaymentResult   []byte                        `db:"payment_result"`
	IsPaid          bool                          `db:"is_paid"`
	PaidAt          *time.Time                    `db:"paid_at"`
	Status          string                        `db:"status"`
	IsDelivered     bool                          `db:"is_delivered"`
	DeliveredAt     *time.Time                    `db:"delivered_at"`
	ShippingAddress jsonb[domain.ShippingAddress] `db:"shipping_address"`
	Notes           string                        `db:"notes"`
	CreatedAt       time.Time                     `db:"created_at"`
	UpdatedAt       time.Time                     `db:"updated_at"`
}

func (row orderRow) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              row.ID,
		OrderNumber:     row.OrderNumber,
		UserID:          row.UserID,
		Items:           row.Items.V,
		TotalPrice:      row.TotalPrice,
		Tax:             row.Tax,
		ShippingFee:     row.ShippingFee,
		Discount:        row.Discount,
		GrandTotal:      row.GrandTotal,
		PaymentMethod:   domain.PaymentMethod(row.PaymentMethod),
		IsPaid:          row.IsPaid,
		PaidAt:          row.PaidAt,
		Status:          domain.OrderStatus(row.Status),
		IsDelivered:     row.IsDelivered,
		DeliveredAt:     row.DeliveredAt,
		ShippingAddress: row.ShippingAddress.V,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if len(row.PaymentResult) > 0 {
		order.PaymentResult = json.RawMessage(row.PaymentResult)
	}
	return order
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// Create persists a new order
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (order_number, user_id, items, total_price, tax, shipping_fee, discount, grand_total,
			payment_method, payment_result, is_paid, paid_at, status, is_delivered, delivered_at,
			shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		order.OrderNumber,
		order.UserID,
		jsonb[[]domain.OrderLine]{V: order.Items},
		order.TotalPrice,
		order.Tax,
		order.ShippingFee,
		order.Discount,
		order.GrandTotal,
		order.PaymentMethod,
		nullableJSON(order.PaymentResult),
		order.IsPaid,
		order.PaidAt,
		order.Status,
		order.IsDelivered,
		order.DeliveredAt,
		jsonb[domain.ShippingAddress]{V: order.ShippingAddress},
		order.Notes,
		time.Now(),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// ListByUser returns the user's orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.selectOrders(ctx, query, userID)
}

// List returns orders matching the filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	if filter.Status != "" {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		return r.selectOrders(ctx, query, filter.Status, filter.Limit, filter.Offset)
	}

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.selectOrders(ctx, query, filter.Limit, filter.Offset)
}

func (r *OrderRepository) selectOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}

	return orders, nil
}

// Count returns the number of orders, optionally narrowed to one status
func (r *OrderRepository) Count(ctx context.Context, status domain.OrderStatus) (int, error) {
	var count int
	var err error
	if status != "" {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders WHERE status = $1`, status)
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`)
	}
	if err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateStatus compares-and-sets the status column
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, is_delivered = $2, delivered_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		order.Status,
		order.IsDelivered,
		order.DeliveredAt,
		time.Now(),
		order.ID,
		expected,
	).Scan(&order.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, order.ID); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	return domain.ErrConflict
}

// UpdatePayment records the payment outcome
func (r *OrderRepository) UpdatePayment(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET is_paid = $1, paid_at = $2, payment_result = $3, updated_at = $4
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		order.IsPaid,
		order.PaidAt,
		nullableJSON(order.PaymentResult),
		time.Now(),
		order.ID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	return nil
}

// Delete removes an order
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
