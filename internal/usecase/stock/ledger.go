package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// compensationTimeout bounds releases that run after the caller's context is gone
const compensationTimeout = 10 * time.Second

// Line is a quantity of one product to reserve or release
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Ledger owns the available quantity of every product
type Ledger struct {
	repo   domain.StockRepository
	logger *logger.Logger
}

// NewLedger creates a new stock ledger
func NewLedger(repo domain.StockRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		repo:   repo,
		logger: log,
	}
}

// Reserve atomically debits qty units. It fails with *domain.InsufficientStockError
// and leaves stock untouched when fewer than qty units are available.
func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	remaining, err := l.repo.Reserve(ctx, productID, qty)
	if err != nil {
		return err
	}

	l.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"quantity":   qty,
		"remaining":  remaining,
	}).Debug("Stock reserved")

	return nil
}

// Release credits qty units back
func (l *Ledger) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	remaining, err := l.repo.Release(ctx, productID, qty)
	if err != nil {
		return err
	}

	l.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"quantity":   qty,
		"remaining":  remaining,
	}).Debug("Stock released")

	return nil
}

// Restock is the admin credit of new inventory and returns the new available quantity
func (l *Ledger) Restock(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.NewValidationError("quantity", "must be at least 1")
	}

	if _, err := l.repo.Peek(ctx, productID); err != nil {
		return 0, err
	}

	remaining, err := l.repo.Release(ctx, productID, qty)
	if err != nil {
		l.logger.Error("Failed to restock product", err)
		return 0, err
	}

	l.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"quantity":   qty,
		"available":  remaining,
	}).Info("Product restocked")

	return remaining, nil
}

// Peek returns the current available quantity without holding it
func (l *Ledger) Peek(ctx context.Context, productID uuid.UUID) (int, error) {
	return l.repo.Peek(ctx, productID)
}

// Reservation records the lines that were successfully debited
type Reservation struct {
	ledger *Ledger
	lines  []Line
}

// Lines returns the reserved lines in reservation order
func (r *Reservation) Lines() []Line {
	return append([]Line(nil), r.lines...)
}

// ReserveAll reserves every line in order. On the first failure the lines already
// reserved are released and the original error is returned.
func (l *Ledger) ReserveAll(ctx context.Context, lines []Line) (*Reservation, error) {
	reservation := &Reservation{ledger: l}

	for _, line := range lines {
		if err := l.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
			reservation.Rollback(ctx)
			return nil, fmt.Errorf("reserve product %s: %w", line.ProductID, err)
		}
		reservation.lines = append(reservation.lines, line)
	}

	return reservation, nil
}

// Rollback releases every reserved line. Failures are logged and never returned,
// and the releases still run when ctx is already cancelled.
func (r *Reservation) Rollback(ctx context.Context) {
	if len(r.lines) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(r.lines) - 1; i >= 0; i-- {
		line := r.lines[i]
		if err := r.ledger.Release(ctx, line.ProductID, line.Quantity); err != nil {
			r.ledger.logger.WithFields(map[string]interface{}{
				"product_id": line.ProductID,
				"quantity":   line.Quantity,
			}).Error("Failed to release reserved stock", err)
		}
	}
	r.lines = nil
}

// ReleaseAll credits every line back, skipping products that no longer exist
func (l *Ledger) ReleaseAll(ctx context.Context, lines []Line) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for _, line := range lines {
		err := l.Release(ctx, line.ProductID, line.Quantity)
		if err == nil {
			continue
		}
		fields := map[string]interface{}{
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
		}
		if errors.Is(err, domain.ErrNotFound) {
			l.logger.WithFields(fields).Warn("Product missing, skipping stock release")
			continue
		}
		l.logger.WithFields(fields).Error("Failed to release stock", err)
	}
}
