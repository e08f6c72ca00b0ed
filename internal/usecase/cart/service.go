package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

// StockChecker reports available quantity without holding it
type StockChecker interface {
	Peek(ctx context.Context, productID uuid.UUID) (int, error)
}

// Service handles cart business logic
type Service struct {
	repo       domain.CartRepository
	cache      domain.CartCache
	products   domain.ProductRepository
	stock      StockChecker
	dispatcher leadscore.Dispatcher
	logger     *logger.Logger
	sfg        singleflight.Group
}

// NewService creates a new cart service
func NewService(
	repo domain.CartRepository,
	cache domain.CartCache,
	products domain.ProductRepository,
	stock StockChecker,
	dispatcher leadscore.Dispatcher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		products:   products,
		stock:      stock,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Get returns the user's cart, or an empty unsaved cart when there is none
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID.String(), func() (interface{}, error) {
		cart, err := s.cache.GetCart(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Cart cache read failed for user %s: %v", userID, err)
		}

		cart, err = s.repo.GetByUserID(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewCart(userID), nil
		}
		if err != nil {
			s.logger.Error("Failed to get cart", err)
			return nil, err
		}

		if err := s.cache.SetCart(ctx, cart); err != nil {
			s.logger.Warnf("Failed to cache cart for user %s: %v", userID, err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a singleflight result must not see each other's mutations.
	shared := v.(*domain.Cart)
	out := *shared
	out.Items = append([]domain.CartLine{}, shared.Items...)
	return &out, nil
}

// AddLine adds qty units of a product variant, merging with an existing line
func (s *Service) AddLine(ctx context.Context, userID, productID uuid.UUID, qty int, variant domain.Variant) (*domain.Cart, error) {
	if qty < 1 {
		return nil, domain.NewValidationError("quantity", "must be at least 1")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.checkStock(ctx, product, qty); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i := cart.FindProductLine(productID, variant); i >= 0 {
		cart.Items[i].Quantity += qty
		cart.Items[i].Price = product.Price
	} else {
		cart.Items = append(cart.Items, domain.CartLine{
			ID:        uuid.New(),
			ProductID: productID,
			Quantity:  qty,
			Price:     product.Price,
			Variant:   variant,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(userID, domain.LeadEventAddToCart)

	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   qty,
	}).Info("Item added to cart")

	return cart, nil
}

// SetQuantity overwrites a line's quantity and refreshes its price
func (s *Service) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.NewValidationError("quantity", "must be at least 1")
	}

	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}

	product, err := s.products.GetByID(ctx, cart.Items[i].ProductID)
	if err != nil {
		return nil, err
	}

	if err := s.checkStock(ctx, product, qty); err != nil {
		return nil, err
	}

	cart.Items[i].Quantity = qty
	cart.Items[i].Price = product.Price

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveLine deletes one line from the cart
func (s *Service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	cart.RemoveLine(i)

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// Clear deletes the user's cart. A missing cart is not an error.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Failed to clear cart", err)
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) checkStock(ctx context.Context, product *domain.Product, qty int) error {
	available, err := s.stock.Peek(ctx, product.ID)
	if err != nil {
		return err
	}
	if available < qty {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   available,
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCart(userID), nil
	}
	return cart, err
}

func (s *Service) save(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", err)
		return err
	}
	s.invalidate(ctx, cart.UserID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.DeleteCart(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Warnf("Failed to invalidate cart cache for user %s: %v", userID, err)
	}
}
