// Package memory provides mutex-guarded implementations of the domain repositories
// for local runs and tests. All repositories built from one Store share its state.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
)

// Store holds every collection behind a single lock
type Store struct {
	mu        sync.RWMutex
	products  map[uuid.UUID]*domain.Product
	carts     map[uuid.UUID]*domain.Cart
	orders    map[uuid.UUID]*domain.Order
	reviews   map[uuid.UUID]*domain.Review
	users     map[uuid.UUID]*domain.User
	wishlists map[uuid.UUID][]uuid.UUID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:  make(map[uuid.UUID]*domain.Product),
		carts:     make(map[uuid.UUID]*domain.Cart),
		orders:    make(map[uuid.UUID]*domain.Order),
		reviews:   make(map[uuid.UUID]*domain.Review),
		users:     make(map[uuid.UUID]*domain.User),
		wishlists: make(map[uuid.UUID][]uuid.UUID),
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
