package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/storefront/internal/config"
	"github.com/Pesokrava/storefront/internal/delivery/events"
	"github.com/Pesokrava/storefront/internal/pkg/database"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/repository/postgres"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
	"github.com/Pesokrava/storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env, cfg.LogLevel)
	appLogger.Info("Starting lead score worker...")

	if cfg.NATS.URL == "" {
		log.Fatal("NATS_URL is required for the lead score worker")
	}

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(context.Background(), cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	leadService := leadscore.NewService(postgres.NewUserRepository(db), appLogger)
	leadWorker := worker.NewLeadScoreWorker(leadService, worker.DefaultRetryPolicy(), appLogger)

	appLogger.Info("Connecting to NATS JetStream...")
	nc, err := events.Connect(cfg.NATS.URL, "storefront-lead-worker", appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	consumer, err := events.NewConsumer(js, events.LeadsStream, events.LeadWorkerConsumer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create lead consumer", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx, leadWorker.HandleMessage)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")

	cancel()
	<-done

	appLogger.Info("Lead score worker stopped")
}
