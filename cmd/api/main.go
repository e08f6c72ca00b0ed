package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/storefront/internal/config"
	"github.com/Pesokrava/storefront/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/storefront/internal/delivery/http"
	"github.com/Pesokrava/storefront/internal/delivery/http/handler"
	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/cache"
	"github.com/Pesokrava/storefront/internal/pkg/database"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/storefront/internal/repository/cache"
	"github.com/Pesokrava/storefront/internal/repository/memory"
	"github.com/Pesokrava/storefront/internal/repository/mongodb"
	"github.com/Pesokrava/storefront/internal/repository/postgres"
	"github.com/Pesokrava/storefront/internal/usecase/cart"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
	"github.com/Pesokrava/storefront/internal/usecase/order"
	"github.com/Pesokrava/storefront/internal/usecase/product"
	"github.com/Pesokrava/storefront/internal/usecase/rating"
	"github.com/Pesokrava/storefront/internal/usecase/review"
	"github.com/Pesokrava/storefront/internal/usecase/stock"
	"github.com/Pesokrava/storefront/internal/usecase/user"
	"github.com/Pesokrava/storefront/internal/usecase/wishlist"
	"github.com/Pesokrava/storefront/internal/worker"

	_ "github.com/Pesokrava/storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Inventory-consistent cart and order fulfillment with lead scoring and review-driven ratings.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/storefront
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @tag.name Products
// @tag.description Catalog and stock administration

// @tag.name Reviews
// @tag.description Product reviews and moderation

// @tag.name Cart
// @tag.description The caller's cart

// @tag.name Orders
// @tag.description Order placement and fulfillment

// @tag.name Wishlist
// @tag.description Saved products

// @tag.name Users
// @tag.description Profiles and lead events

// repositories is the storage backend selected by STORAGE_DRIVER
type repositories struct {
	products  domain.ProductRepository
	reviews   domain.ReviewRepository
	users     domain.UserRepository
	stock     domain.StockRepository
	carts     domain.CartRepository
	orders    domain.OrderRepository
	wishlists domain.WishlistRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env, cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Storefront API...")

	repos, err := openRepositories(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open storage", err)
	}
	defer repos.close()

	if cfg.Storage.CartDriver == config.StorageDriverMongo {
		closeMongo, err := useMongoCarts(cfg, repos, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to open MongoDB cart store", err)
		}
		defer closeMongo()
	}

	caches, closeCache := openCache(cfg, appLogger)
	defer closeCache()

	var publisher events.EventPublisher = events.NopPublisher{}
	var natsPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		appLogger.Info("Connecting to NATS...")
		nc, err := events.Connect(cfg.NATS.URL, "storefront-api", appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", err)
		}
		natsPublisher, err = events.NewPublisher(nc, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create NATS publisher", err)
		}
		defer natsPublisher.Close()

		if err := events.NewStreamConfig(natsPublisher.JetStream(), appLogger).EnsureAll(); err != nil {
			appLogger.Fatal("Failed to ensure JetStream streams", err)
		}
		publisher = natsPublisher
	} else {
		appLogger.Warn("NATS_URL is empty, order and review events are not published")
	}

	leadService := leadscore.NewService(repos.users, appLogger)
	leadWorker := worker.NewLeadScoreWorker(leadService, worker.DefaultRetryPolicy(), appLogger)
	async := leadscore.NewAsyncDispatcher(leadWorker, cfg.LeadScore.Workers, cfg.LeadScore.QueueSize, appLogger)

	var dispatcher leadscore.Dispatcher = async
	if cfg.LeadScore.Dispatch == config.LeadDispatchNATS {
		if natsPublisher == nil {
			appLogger.Fatal("Invalid lead score dispatch", errors.New("LEAD_SCORE_DISPATCH=nats requires NATS_URL"))
		}
		dispatcher = events.NewLeadPublisher(natsPublisher, async, appLogger)
	}

	policy := rating.Policy{ApprovedOnly: cfg.Review.ModerationEnabled}
	ledger := stock.NewLedger(repos.stock, appLogger)
	aggregator := rating.NewAggregator(repos.reviews, repos.products, policy, appLogger)

	productService := product.NewService(repos.products, repos.reviews, caches, ledger, dispatcher, appLogger)
	reviewService := review.NewService(repos.reviews, caches, aggregator, publisher, policy, appLogger)
	cartService := cart.NewService(repos.carts, caches, repos.products, ledger, dispatcher, appLogger)
	orderService := order.NewService(
		repos.orders,
		repos.products,
		ledger,
		cartService,
		dispatcher,
		publisher,
		domain.Pricing{TaxRate: cfg.Order.TaxRate, ShippingFee: cfg.Order.ShippingFee},
		appLogger,
	)
	wishlistService := wishlist.NewService(repos.wishlists, repos.products, dispatcher, appLogger)
	userService := user.NewService(repos.users, dispatcher, appLogger)

	router := httpDelivery.NewRouter(httpDelivery.Handlers{
		Product:  handler.NewProductHandler(productService, appLogger),
		Review:   handler.NewReviewHandler(reviewService, appLogger),
		Cart:     handler.NewCartHandler(cartService, appLogger),
		Order:    handler.NewOrderHandler(orderService, appLogger),
		Wishlist: handler.NewWishlistHandler(wishlistService, appLogger),
		User:     handler.NewUserHandler(userService, appLogger),
	}, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}

	if err := async.Close(ctx); err != nil {
		appLogger.Error("Lead dispatcher did not drain", err)
	}

	appLogger.Info("Server stopped gracefully")
}

func openRepositories(cfg *config.Config, appLogger *logger.Logger) (*repositories, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		appLogger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			products:  memory.NewProductRepository(store),
			reviews:   memory.NewReviewRepository(store),
			users:     memory.NewUserRepository(store),
			stock:     memory.NewStockRepository(store),
			carts:     memory.NewCartRepository(store),
			orders:    memory.NewOrderRepository(store),
			wishlists: memory.NewWishlistRepository(store),
			close:     func() {},
		}, nil
	}

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(context.Background(), cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		return nil, err
	}
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}
	appLogger.Info("Database migrations applied")

	return &repositories{
		products:  postgres.NewProductRepository(db),
		reviews:   postgres.NewReviewRepository(db),
		users:     postgres.NewUserRepository(db),
		stock:     postgres.NewStockRepository(db),
		carts:     postgres.NewCartRepository(db),
		orders:    postgres.NewOrderRepository(db),
		wishlists: postgres.NewWishlistRepository(db),
		close: func() {
			if err := db.Close(); err != nil {
				appLogger.Error("Failed to close database", err)
			}
		},
	}, nil
}

// useMongoCarts moves cart documents to MongoDB, keeping everything else on the main driver
func useMongoCarts(cfg *config.Config, repos *repositories, appLogger *logger.Logger) (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	appLogger.Info("Connecting to MongoDB...")
	db, err := database.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	carts := mongodb.NewCartRepository(db)
	if err := carts.CreateIndexes(ctx); err != nil {
		_ = db.Client().Disconnect(ctx)
		return nil, err
	}
	appLogger.Info("Using MongoDB for carts")
	repos.carts = carts

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(ctx); err != nil {
			appLogger.Error("Failed to close MongoDB", err)
		}
	}, nil
}

// cacheStore serves both cart and review-list caching
type cacheStore interface {
	domain.CartCache
	domain.ReviewCache
}

func openCache(cfg *config.Config, appLogger *logger.Logger) (cacheStore, func()) {
	if !cfg.Redis.Enabled {
		appLogger.Info("Redis disabled, caching is off")
		return cacheRepo.NopCache{}, func() {}
	}

	appLogger.Info("Connecting to Redis...")
	client, err := cache.WaitForRedis(context.Background(), cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	appLogger.Info("Connected to Redis successfully")

	return cacheRepo.NewRedisCache(client, cfg.Cache.CartTTL, cfg.Cache.ReviewsListTTL), func() {
		closeRedis(client, appLogger)
	}
}

func closeRedis(client *redis.Client, appLogger *logger.Logger) {
	if err := client.Close(); err != nil {
		appLogger.Error("Failed to close Redis", err)
	}
}
