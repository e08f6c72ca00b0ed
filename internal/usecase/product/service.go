package product

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/pkg/validator"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

// Restocker credits new inventory to a product
type Restocker interface {
	Restock(ctx context.Context, productID uuid.UUID, qty int) (int, error)
}

// Service handles product business logic
type Service struct {
	repo       domain.ProductRepository
	reviews    domain.ReviewRepository
	cache      domain.ReviewCache
	stock      Restocker
	dispatcher leadscore.Dispatcher
	logger     *logger.Logger
}

// NewService creates a new product service
func NewService(
	repo domain.ProductRepository,
	reviews domain.ReviewRepository,
	cache domain.ReviewCache,
	stock Restocker,
	dispatcher leadscore.Dispatcher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		reviews:    reviews,
		cache:      cache,
		stock:      stock,
		dispatcher: dispatcher,
		logger:     log,
	}
}

func validate(product *domain.Product) error {
	if err := validator.Struct(product); err != nil {
		return err
	}
	if product.Price.IsNegative() {
		return domain.NewValidationError("price", "must not be negative")
	}
	return nil
}

// Create creates a new product
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	if err := validate(product); err != nil {
		s.logger.Debugf("Product validation failed: %v", err)
		return err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"available":  product.AvailableQuantity,
	}).Info("Product created successfully")

	return nil
}

// GetByID retrieves a product by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// View returns a product detail page and scores the view for identified callers
func (s *Service) View(ctx context.Context, id uuid.UUID, viewer uuid.UUID) (*domain.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewer != uuid.Nil {
		s.dispatcher.Dispatch(viewer, domain.LeadEventViewProduct)
	}

	return product, nil
}

// List retrieves a paginated list of products
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates name, description and price. product.Version must match the stored version.
func (s *Service) Update(ctx context.Context, product *domain.Product) error {
	if err := validate(product); err != nil {
		s.logger.Debugf("Product validation failed: %v", err)
		return err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Warnf("Product %s was modified concurrently", product.ID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update product", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"version":    product.Version,
	}).Info("Product updated successfully")

	return nil
}

// Delete soft-deletes a product together with its reviews
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete product", err)
		}
		return err
	}

	if err := s.reviews.DeleteByProductID(ctx, id); err != nil {
		s.logger.Errorf(err, "Failed to delete reviews of product %s", id)
	}

	if err := s.cache.InvalidateAllProductCache(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", id, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

// Restock adds qty units to the product's available quantity
func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error) {
	if _, err := s.stock.Restock(ctx, id, qty); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}
