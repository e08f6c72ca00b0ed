package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/storefront/internal/config"
	"github.com/Pesokrava/storefront/internal/delivery/http/handler"
	"github.com/Pesokrava/storefront/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront/internal/delivery/http/response"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Product  *handler.ProductHandler
	Review   *handler.ReviewHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Wishlist *handler.WishlistHandler
	User     *handler.UserHandler
}

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(handlers Handlers, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderUserID, middleware.HeaderUserRole},
		ExposedHeaders:   []string{"Link", chimw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Identity)

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	h := rt.handlers

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/{id}", h.Product.GetByID)
			r.Get("/{id}/reviews", h.Review.GetByProductID)

			r.With(middleware.RequireUser).Post("/{id}/reviews", h.Review.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", h.Product.Create)
				r.Put("/{id}", h.Product.Update)
				r.Delete("/{id}", h.Product.Delete)
				r.Post("/{id}/restock", h.Product.Restock)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Put("/{reviewId}", h.Review.Update)
				r.Delete("/{reviewId}", h.Review.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.Review.List)
				r.Put("/{reviewId}/moderate", h.Review.Moderate)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", h.Cart.Get)
			r.Post("/", h.Cart.AddItem)
			r.Delete("/", h.Cart.Clear)
			r.Put("/{itemId}", h.Cart.UpdateItem)
			r.Delete("/{itemId}", h.Cart.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/all", h.Order.ListAll)
				r.Put("/{orderId}", h.Order.UpdateStatus)
				r.Delete("/{orderId}", h.Order.Delete)
			})

			r.Post("/", h.Order.Create)
			r.Get("/", h.Order.ListMine)
			r.Get("/{orderId}", h.Order.Get)
			r.Put("/{orderId}/pay", h.Order.Pay)
			r.Put("/{orderId}/cancel", h.Order.Cancel)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", h.Wishlist.Get)
			r.Post("/", h.Wishlist.Add)
			r.Delete("/{productId}", h.Wishlist.Remove)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Post("/", h.User.Register)
			r.Get("/me", h.User.Me)
			r.Post("/me/events", h.User.RecordEvent)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
