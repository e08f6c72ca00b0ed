package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/storefront/internal/domain"
)

// WishlistRepository implements domain.WishlistRepository as a UUID[] column per user
type WishlistRepository struct {
	db *sqlx.DB
}

// NewWishlistRepository creates a new PostgreSQL wishlist repository
func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// ProductIDs returns the wishlist in insertion order
func (r *WishlistRepository) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var raw []string
	err := r.db.QueryRowxContext(ctx,
		`SELECT product_ids FROM wishlists WHERE user_id = $1`, userID,
	).Scan(pq.Array(&raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []uuid.UUID{}, nil
		}
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Add appends productID unless it is already present
func (r *WishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	query := `
		INSERT INTO wishlists (user_id, product_ids, updated_at)
		VALUES ($1, ARRAY[$2::uuid], NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET product_ids = array_append(wishlists.product_ids, $2::uuid), updated_at = NOW()
		WHERE NOT ($2::uuid = ANY(wishlists.product_ids))
	`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrAlreadyExists
	}

	return nil
}

// Remove drops productID from the wishlist
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `
		UPDATE wishlists
		SET product_ids = array_remove(product_ids, $2::uuid), updated_at = NOW()
		WHERE user_id = $1 AND $2::uuid = ANY(product_ids)
	`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
