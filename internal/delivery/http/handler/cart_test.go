package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
)

type cartBody struct {
	Items      []domain.CartLine `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

func TestCartHandler_Lifecycle(t *testing.T) {
	a := newApp(t)
	p := a.seedProduct(t, "25", 4)
	who := shopper()
	size := 42

	w := call(t, a.cart.Get, http.MethodGet, "/api/v1/cart", nil, who, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c cartBody
	decode(t, w, &c)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalPrice.IsZero())

	w = call(t, a.cart.AddItem, http.MethodPost, "/api/v1/cart", AddCartItemRequest{
		ProductID: p.ID.String(),
		Quantity:  2,
		Size:      &size,
		Color:     "black",
	}, who, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &c)
	require.Len(t, c.Items, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(c.TotalPrice))
	lineID := c.Items[0].ID.String()

	w = call(t, a.cart.UpdateItem, http.MethodPut, "/", UpdateCartItemRequest{Quantity: 3}, who, map[string]string{"itemId": lineID})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &c)
	assert.Equal(t, 3, c.Items[0].Quantity)

	assert.Equal(t, 4, a.available(t, p.ID), "the cart never holds stock")

	w = call(t, a.cart.RemoveItem, http.MethodDelete, "/", nil, who, map[string]string{"itemId": lineID})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &c)
	assert.Empty(t, c.Items)

	w = call(t, a.cart.Clear, http.MethodDelete, "/api/v1/cart", nil, who, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCartHandler_AddItem_InsufficientStock(t *testing.T) {
	a := newApp(t)
	p := a.seedProduct(t, "25", 1)

	w := call(t, a.cart.AddItem, http.MethodPost, "/", AddCartItemRequest{ProductID: p.ID.String(), Quantity: 2}, shopper(), nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Contains(t, env.Error, "Available: 1")
	assert.Equal(t, p.ID.String(), env.Details["product_id"])
	assert.EqualValues(t, 2, env.Details["requested"])
	assert.EqualValues(t, 1, env.Details["available"])
}

func TestCartHandler_Errors(t *testing.T) {
	a := newApp(t)
	p := a.seedProduct(t, "25", 1)
	who := shopper()

	tests := []struct {
		name     string
		run      func() int
		wantCode int
	}{
		{"malformed product id", func() int {
			return call(t, a.cart.AddItem, http.MethodPost, "/", AddCartItemRequest{ProductID: "x", Quantity: 1}, who, nil).Code
		}, http.StatusBadRequest},
		{"zero quantity", func() int {
			return call(t, a.cart.AddItem, http.MethodPost, "/", AddCartItemRequest{ProductID: p.ID.String()}, who, nil).Code
		}, http.StatusBadRequest},
		{"unknown product", func() int {
			return call(t, a.cart.AddItem, http.MethodPost, "/", AddCartItemRequest{ProductID: uuid.NewString(), Quantity: 1}, who, nil).Code
		}, http.StatusNotFound},
		{"unknown line", func() int {
			return call(t, a.cart.RemoveItem, http.MethodDelete, "/", nil, who, map[string]string{"itemId": uuid.NewString()}).Code
		}, http.StatusNotFound},
		{"malformed line id", func() int {
			return call(t, a.cart.UpdateItem, http.MethodPut, "/", UpdateCartItemRequest{Quantity: 1}, who, map[string]string{"itemId": "x"}).Code
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.run())
		})
	}
}
