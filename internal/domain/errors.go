package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a product, order, cart, review or user is missing
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a conditional write lost a race (e.g., status compare-and-set)
	ErrConflict = errors.New("conflict occurred")

	// ErrForbidden is returned on ownership or role mismatch
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned for illegal order status transitions
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInsufficientStock is matched by every *InsufficientStockError
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)

// InsufficientStockError reports a rejected debit together with the quantity that was available.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("not enough stock for %s. Available: %d", e.ProductName, e.Available)
	}
	return fmt.Sprintf("not enough stock for product %s. Available: %d", e.ProductID, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError wraps ErrInvalidInput with a human readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
