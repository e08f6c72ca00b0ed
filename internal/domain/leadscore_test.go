package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestScoreDelta(t *testing.T) {
	tests := []struct {
		event  LeadEventType
		source Source
		delta  int
		ok     bool
	}{
		{LeadEventRegister, SourceReferral, 10, true},
		{LeadEventRegister, SourceWeb, 5, true},
		{LeadEventLogin, "", 2, true},
		{LeadEventViewProduct, "", 3, true},
		{LeadEventAddToCart, "", 5, true},
		{LeadEventAddToWishlist, "", 3, true},
		{LeadEventPlaceOrder, "", 10, true},
		{LeadEventAbandonedCart, "", -5, true},
		{LeadEventNoPurchaseAfterViews, "", -5, true},
		{LeadEventType("share_product"), "", 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			delta, ok := ScoreDelta(tt.event, tt.source)
			assert.Equal(t, tt.delta, delta)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ok, tt.event.Known())
		})
	}
}

func TestInsufficientStockError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create order: %w", &InsufficientStockError{
		ProductID:   uuid.New(),
		ProductName: "Lamp",
		Requested:   3,
		Available:   1,
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	assert.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 1, stockErr.Available)
	assert.Contains(t, err.Error(), "not enough stock for Lamp. Available: 1")
}

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := NewValidationError("quantity", "must be at least 1")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "quantity: must be at least 1", err.Error())
}
