package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/delivery/events"
	"github.com/Pesokrava/storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/repository/cache"
	"github.com/Pesokrava/storefront/internal/repository/memory"
	"github.com/Pesokrava/storefront/internal/usecase/cart"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
	"github.com/Pesokrava/storefront/internal/usecase/order"
	"github.com/Pesokrava/storefront/internal/usecase/product"
	"github.com/Pesokrava/storefront/internal/usecase/rating"
	"github.com/Pesokrava/storefront/internal/usecase/review"
	"github.com/Pesokrava/storefront/internal/usecase/stock"
	"github.com/Pesokrava/storefront/internal/usecase/user"
	"github.com/Pesokrava/storefront/internal/usecase/wishlist"
)

// app wires every handler over one in-memory store
type app struct {
	products  *memory.ProductRepository
	users     *memory.UserRepository
	stockRepo *memory.StockRepository

	product  *ProductHandler
	review   *ReviewHandler
	cart     *CartHandler
	order    *OrderHandler
	wishlist *WishlistHandler
	user     *UserHandler
}

func newApp(t *testing.T) *app {
	t.Helper()

	store := memory.NewStore()
	log := logger.New("test")

	products := memory.NewProductRepository(store)
	reviews := memory.NewReviewRepository(store)
	users := memory.NewUserRepository(store)
	stockRepo := memory.NewStockRepository(store)
	ledger := stock.NewLedger(stockRepo, log)
	dispatcher := leadscore.NewInlineDispatcher(leadscore.NewService(users, log))
	policy := rating.Policy{}

	carts := cart.NewService(memory.NewCartRepository(store), cache.NopCache{}, products, ledger, dispatcher, log)
	orders := order.NewService(
		memory.NewOrderRepository(store), products, ledger, carts, dispatcher, events.NopPublisher{},
		domain.Pricing{TaxRate: decimal.RequireFromString("0.1"), ShippingFee: decimal.NewFromInt(5)}, log,
	)

	return &app{
		products:  products,
		users:     users,
		stockRepo: stockRepo,
		product:   NewProductHandler(product.NewService(products, reviews, cache.NopCache{}, ledger, dispatcher, log), log),
		review: NewReviewHandler(review.NewService(
			reviews, cache.NopCache{}, rating.NewAggregator(reviews, products, policy, log), events.NopPublisher{}, policy, log,
		), log),
		cart:     NewCartHandler(carts, log),
		order:    NewOrderHandler(orders, log),
		wishlist: NewWishlistHandler(wishlist.NewService(memory.NewWishlistRepository(store), products, dispatcher, log), log),
		user:     NewUserHandler(user.NewService(users, dispatcher, log), log),
	}
}

func (a *app) seedProduct(t *testing.T, price string, qty int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: "Runner", Price: decimal.RequireFromString(price), AvailableQuantity: qty}
	require.NoError(t, a.products.Create(context.Background(), p))
	return p
}

func (a *app) available(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	qty, err := a.stockRepo.Peek(context.Background(), productID)
	require.NoError(t, err)
	return qty
}

// call builds a request with the given identity and chi URL params and runs h on it
func call(t *testing.T, h http.HandlerFunc, method, target string, body interface{}, who *domain.Identity, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if who != nil {
		ctx = middleware.WithIdentity(ctx, *who)
	}

	w := httptest.NewRecorder()
	h(w, req.WithContext(ctx))
	return w
}

func shopper() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), Role: domain.RoleUser}
}

func admin() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
}

// envelope is the success response body
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    map[string]interface{}  `json:"details"`
	Pagination map[string]int  `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}
