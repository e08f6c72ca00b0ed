package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", 20, 0},
		{"?limit=abc&offset=-4", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders"+tt.query, nil)
			limit, offset := GetPaginationParams(req)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestGetUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	rctx.URLParams.Add("bad", "nope")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := GetUUIDParam(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = GetUUIDParam(req, "bad")
	assert.Error(t, err)

	_, err = GetUUIDParam(req, "missing")
	assert.Error(t, err)
}

func TestGetOptionalUUIDQuery(t *testing.T) {
	id := uuid.New()

	got, err := GetOptionalUUIDQuery(httptest.NewRequest(http.MethodGet, "/reviews?product_id="+id.String(), nil), "product_id")
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	got, err = GetOptionalUUIDQuery(httptest.NewRequest(http.MethodGet, "/reviews", nil), "product_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = GetOptionalUUIDQuery(httptest.NewRequest(http.MethodGet, "/reviews?product_id=x", nil), "product_id")
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Quantity int `json:"quantity"`
	}

	req := httptest.NewRequest(http.MethodPut, "/cart/1", strings.NewReader(`{"quantity":3}`))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, 3, body.Quantity)

	req = httptest.NewRequest(http.MethodPut, "/cart/1", strings.NewReader(`{"quantity":`))
	assert.Error(t, DecodeJSON(req, &body))

	req = httptest.NewRequest(http.MethodPut, "/cart/1", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &body), errEmptyBody)

	req = httptest.NewRequest(http.MethodPut, "/cart/1", strings.NewReader(`{"quantity":1}{"quantity":2}`))
	assert.Error(t, DecodeJSON(req, &body))

	req = httptest.NewRequest(http.MethodPut, "/cart/1", strings.NewReader("{\"quantity\":4}\n"))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, 4, body.Quantity)
}
