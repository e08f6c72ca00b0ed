package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront/internal/domain"
)

// StockRepository implements domain.StockRepository on the products.available_quantity column.
// Each call is one conditional UPDATE so concurrent reservations never oversell.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new PostgreSQL stock repository
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Reserve decrements available quantity when enough stock is on hand
func (r *StockRepository) Reserve(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	query := `
		UPDATE products
		SET available_quantity = available_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND available_quantity >= $2
		RETURNING available_quantity
	`

	var remaining int
	err := r.db.QueryRowxContext(ctx, query, productID, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// Nothing matched: either the product is gone or stock is short.
	var product struct {
		Name              string `db:"name"`
		AvailableQuantity int    `db:"available_quantity"`
	}
	err = r.db.GetContext(ctx, &product,
		`SELECT name, available_quantity FROM products WHERE id = $1 AND deleted_at IS NULL`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return 0, &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: product.Name,
		Requested:   qty,
		Available:   product.AvailableQuantity,
	}
}

// Release returns qty units to available stock
func (r *StockRepository) Release(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	query := `
		UPDATE products
		SET available_quantity = available_quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING available_quantity
	`

	var remaining int
	err := r.db.QueryRowxContext(ctx, query, productID, qty).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return remaining, nil
}

// Peek returns the current available quantity
func (r *StockRepository) Peek(ctx context.Context, productID uuid.UUID) (int, error) {
	var available int
	err := r.db.GetContext(ctx, &available,
		`SELECT available_quantity FROM products WHERE id = $1 AND deleted_at IS NULL`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return available, nil
}
