package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/storefront/internal/domain"
)

// RedisCache implements caching for carts and review lists
type RedisCache struct {
	client         *redis.Client
	cartTTL        time.Duration
	reviewsListTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, cartTTL, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		cartTTL:        cartTTL,
		reviewsListTTL: reviewsListTTL,
	}
}

// Cart cache keys and methods

func (c *RedisCache) cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID.String())
}

// GetCart retrieves a cached cart; domain.ErrNotFound on miss
func (c *RedisCache) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	data, err := c.client.Get(ctx, c.cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}

	return &cart, nil
}

// SetCart stores a cart with a jittered TTL so user carts do not expire together
func (c *RedisCache) SetCart(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := c.cartTTL
	if ttl > time.Minute {
		ttl += time.Duration(rand.Int63n(int64(ttl / 5)))
	}

	if err := c.client.Set(ctx, c.cartKey(cart.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// DeleteCart removes a cached cart
func (c *RedisCache) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, c.cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Product reviews list cache keys and methods

type reviewsPage struct {
	Reviews []*domain.Review `json:"reviews"`
	Total   int              `json:"total"`
}

func (c *RedisCache) reviewsListKey(productID uuid.UUID, limit, offset int) string {
	return fmt.Sprintf("product:%s:reviews:limit:%d:offset:%d", productID.String(), limit, offset)
}

func (c *RedisCache) productCacheKeysSet(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:cache_keys", productID.String())
}

// GetReviewsList retrieves a cached page of public reviews and the total count
func (c *RedisCache) GetReviewsList(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*domain.Review, int, error) {
	val, err := c.client.Get(ctx, c.reviewsListKey(productID, limit, offset)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, err
	}

	var page reviewsPage
	if err := json.Unmarshal(val, &page); err != nil {
		return nil, 0, err
	}

	return page.Reviews, page.Total, nil
}

// SetReviewsList stores a page of reviews and tracks the key in a SET
func (c *RedisCache) SetReviewsList(ctx context.Context, productID uuid.UUID, limit, offset int, reviews []*domain.Review, total int) error {
	key := c.reviewsListKey(productID, limit, offset)
	trackingKey := c.productCacheKeysSet(productID)

	data, err := json.Marshal(reviewsPage{Reviews: reviews, Total: total})
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.reviewsListTTL)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, c.reviewsListTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateAllProductCache removes every cached review page for a product using SET-based tracking
func (c *RedisCache) InvalidateAllProductCache(ctx context.Context, productID uuid.UUID) error {
	trackingKey := c.productCacheKeysSet(productID)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if len(keys) > 0 {
		keys = append(keys, trackingKey)
		return c.client.Unlink(ctx, keys...).Err()
	}

	return nil
}
