package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// NopCache always misses. It stands in for Redis when caching is disabled.
type NopCache struct{}

func (NopCache) GetCart(context.Context, uuid.UUID) (*domain.Cart, error) {
	return nil, domain.ErrNotFound
}

func (NopCache) SetCart(context.Context, *domain.Cart) error { return nil }

func (NopCache) DeleteCart(context.Context, uuid.UUID) error { return nil }

func (NopCache) GetReviewsList(context.Context, uuid.UUID, int, int) ([]*domain.Review, int, error) {
	return nil, 0, domain.ErrNotFound
}

func (NopCache) SetReviewsList(context.Context, uuid.UUID, int, int, []*domain.Review, int) error {
	return nil
}

func (NopCache) InvalidateAllProductCache(context.Context, uuid.UUID) error { return nil }
