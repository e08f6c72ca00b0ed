package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/storefront/internal/config"
)

// ConnectMongo opens a MongoDB client and returns the configured database
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	return ConnectMongoURI(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
}

// ConnectMongoURI opens a MongoDB client from a raw connection string
func ConnectMongoURI(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
