package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront/internal/domain"
)

// CartRepository implements domain.CartRepository with one row per user and the lines in JSONB
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository creates a new PostgreSQL cart repository
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

type cartRow struct {
	ID        uuid.UUID                `db:"id"`
	UserID    uuid.UUID                `db:"user_id"`
	Items     jsonb[[]domain.CartLine] `db:"items"`
	CreatedAt time.Time                `db:"created_at"`
	UpdatedAt time.Time                `db:"updated_at"`
}

func (row cartRow) toDomain() *domain.Cart {
	items := row.Items.V
	if items == nil {
		items = []domain.CartLine{}
	}
	return &domain.Cart{
		ID:        row.ID,
		UserID:    row.UserID,
		Items:     items,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// GetByUserID retrieves the user's cart
func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `SELECT id, user_id, items, created_at, updated_at FROM carts WHERE user_id = $1`

	var row cartRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// Save upserts the cart document keyed by user
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (user_id, items, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}

	return r.db.QueryRowxContext(
		ctx,
		query,
		cart.UserID,
		jsonb[[]domain.CartLine]{V: cart.Items},
		time.Now(),
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
}

// DeleteByUserID removes the user's cart
func (r *CartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
