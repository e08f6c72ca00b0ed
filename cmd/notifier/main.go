package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Pesokrava/storefront/internal/config"
	"github.com/Pesokrava/storefront/internal/delivery/events"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env, cfg.LogLevel)
	appLogger.Info("Starting notifier service...")

	if cfg.NATS.URL == "" {
		log.Fatal("NATS_URL is required for the notifier")
	}

	nc, err := events.Connect(cfg.NATS.URL, "storefront-notifier", appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	handler := events.NotificationHandler(appLogger)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	for _, sub := range []struct {
		spec    events.StreamSpec
		durable string
	}{
		{events.OrdersStream, events.NotifierOrdersConsumer},
		{events.ReviewsStream, events.NotifierReviewsConsumer},
	} {
		consumer, err := events.NewConsumer(js, sub.spec, sub.durable, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to subscribe to "+sub.spec.Subject, err)
		}
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx, handler)
		}()
	}

	appLogger.Info("Notifier service started and listening for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down notifier service...")
	cancel()
	wg.Wait()
}
