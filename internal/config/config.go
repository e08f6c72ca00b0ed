package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Pesokrava/storefront/internal/domain"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
	StorageDriverMongo    = "mongo"

	LeadDispatchInline = "inline"
	LeadDispatchNATS   = "nats"
)

// Config holds all configuration for the application
type Config struct {
	Env       string
	LogLevel  string
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Cache     CacheConfig
	Order     OrderConfig
	Review    ReviewConfig
	LeadScore LeadScoreConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
}

// StorageConfig selects the persistence backend. CartDriver may move carts to MongoDB.
type StorageConfig struct {
	Driver     string
	CartDriver string
}

// MongoConfig holds the MongoDB cart store configuration
type MongoConfig struct {
	URI      string
	Database string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	CartTTL        time.Duration
	ReviewsListTTL time.Duration
}

// OrderConfig holds flat pricing applied at order creation
type OrderConfig struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

// ReviewConfig controls which reviews count towards a product's rating
type ReviewConfig struct {
	ModerationEnabled bool
}

// LeadScoreConfig controls how lead events leave the request path
type LeadScoreConfig struct {
	Dispatch  string
	Workers   int
	QueueSize int
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"SERVER_REQUEST_TIMEOUT",
		"DB_CONN_MAX_LIFETIME",
		"CACHE_TTL_CART",
		"CACHE_TTL_REVIEWS_LIST",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = d
	}

	taxRate, err := decimal.NewFromString(v.GetString("ORDER_TAX_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_TAX_RATE: %w", err)
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("invalid ORDER_TAX_RATE: must not be negative")
	}

	shippingFee, err := decimal.NewFromString(v.GetString("ORDER_SHIPPING_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_SHIPPING_FEE: %w", err)
	}
	if shippingFee.IsNegative() {
		return nil, fmt.Errorf("invalid ORDER_SHIPPING_FEE: must not be negative")
	}

	driver := strings.ToLower(v.GetString("STORAGE_DRIVER"))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: expected %s or %s", driver, StorageDriverPostgres, StorageDriverMemory)
	}

	cartDriver := strings.ToLower(v.GetString("CART_STORE"))
	if cartDriver == "" {
		cartDriver = driver
	}
	if cartDriver != driver && cartDriver != StorageDriverMongo {
		return nil, fmt.Errorf("invalid CART_STORE %q: expected %s or %s", cartDriver, driver, StorageDriverMongo)
	}

	dispatch := strings.ToLower(v.GetString("LEAD_SCORE_DISPATCH"))
	if dispatch != LeadDispatchInline && dispatch != LeadDispatchNATS {
		return nil, fmt.Errorf("invalid LEAD_SCORE_DISPATCH %q: expected %s or %s", dispatch, LeadDispatchInline, LeadDispatchNATS)
	}

	allowedOrigins := strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
			RequestTimeout:  durations["SERVER_REQUEST_TIMEOUT"],
			AllowedOrigins:  allowedOrigins,
		},
		Storage: StorageConfig{
			Driver:     driver,
			CartDriver: cartDriver,
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			MigrationsPath:  v.GetString("DB_MIGRATIONS_PATH"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: v.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			CartTTL:        durations["CACHE_TTL_CART"],
			ReviewsListTTL: durations["CACHE_TTL_REVIEWS_LIST"],
		},
		Order: OrderConfig{
			TaxRate:     taxRate,
			ShippingFee: shippingFee,
		},
		Review: ReviewConfig{
			ModerationEnabled: v.GetBool("REVIEW_MODERATION_ENABLED"),
		},
		LeadScore: LeadScoreConfig{
			Dispatch:  dispatch,
			Workers:   v.GetInt("LEAD_SCORE_WORKERS"),
			QueueSize: v.GetInt("LEAD_SCORE_QUEUE_SIZE"),
		},
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_MIGRATIONS_PATH", "migrations")

	v.SetDefault("CART_STORE", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "storefront")

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.SetDefault("CACHE_TTL_CART", "15m")
	v.SetDefault("CACHE_TTL_REVIEWS_LIST", "120s")

	v.SetDefault("ORDER_TAX_RATE", "0")
	v.SetDefault("ORDER_SHIPPING_FEE", "0")

	v.SetDefault("REVIEW_MODERATION_ENABLED", true)

	v.SetDefault("LEAD_SCORE_DISPATCH", LeadDispatchInline)
	v.SetDefault("LEAD_SCORE_WORKERS", 4)
	v.SetDefault("LEAD_SCORE_QUEUE_SIZE", 1024)
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Pricing converts the order config into domain pricing
func (c *Config) Pricing() domain.Pricing {
	return domain.Pricing{
		TaxRate:     c.Order.TaxRate,
		ShippingFee: c.Order.ShippingFee,
	}
}
