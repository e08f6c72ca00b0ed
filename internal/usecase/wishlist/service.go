package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

// Service handles wishlist business logic
type Service struct {
	repo       domain.WishlistRepository
	products   domain.ProductRepository
	dispatcher leadscore.Dispatcher
	logger     *logger.Logger
}

// NewService creates a new wishlist service
func NewService(repo domain.WishlistRepository, products domain.ProductRepository, dispatcher leadscore.Dispatcher, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		products:   products,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// List returns the wishlisted products that still exist, in the order they were added
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error) {
	ids, err := s.repo.ProductIDs(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load wishlist", err)
		return nil, err
	}

	products := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.products.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to load wishlisted product", err)
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

// Add puts a product on the user's wishlist
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to add product to wishlist", err)
		}
		return err
	}

	s.dispatcher.Dispatch(userID, domain.LeadEventAddToWishlist)

	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	}).Info("Product added to wishlist")

	return nil
}

// Remove takes a product off the user's wishlist
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to remove product from wishlist", err)
		}
		return err
	}
	return nil
}
