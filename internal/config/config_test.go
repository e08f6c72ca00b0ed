package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.CartDriver, "carts follow the storage driver")
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Equal(t, LeadDispatchInline, cfg.LeadScore.Dispatch)
	assert.True(t, cfg.Review.ModerationEnabled)
	assert.True(t, cfg.Order.TaxRate.IsZero())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("ORDER_TAX_RATE", "0.08")
	t.Setenv("ORDER_SHIPPING_FEE", "4.99")
	t.Setenv("REVIEW_MODERATION_ENABLED", "false")
	t.Setenv("LEAD_SCORE_DISPATCH", "nats")
	t.Setenv("CACHE_TTL_CART", "1m")
	t.Setenv("CART_STORE", "mongo")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, LeadDispatchNATS, cfg.LeadScore.Dispatch)
	assert.False(t, cfg.Review.ModerationEnabled)
	assert.Equal(t, time.Minute, cfg.Cache.CartTTL)
	assert.Equal(t, StorageDriverMongo, cfg.Storage.CartDriver)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)

	pricing := cfg.Pricing()
	assert.True(t, decimal.RequireFromString("0.08").Equal(pricing.TaxRate))
	assert.True(t, decimal.RequireFromString("4.99").Equal(pricing.ShippingFee))
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_READ_TIMEOUT", "soon"},
		{"ORDER_TAX_RATE", "-0.1"},
		{"ORDER_SHIPPING_FEE", "free"},
		{"STORAGE_DRIVER", "mongo"},
		{"LEAD_SCORE_DISPATCH", "kafka"},
		{"CART_STORE", "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
