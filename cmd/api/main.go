// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/config"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/lifecycle"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/infrastructure/database/mongo"
	"github.com/your-org/forms-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/forms-backend/internal/infrastructure/database/redis"
	"github.com/your-org/forms-backend/internal/infrastructure/memory"
	"github.com/your-org/forms-backend/internal/infrastructure/messaging/rabbitmq"
	"github.com/your-org/forms-backend/internal/interfaces/http"
	"github.com/your-org/forms-backend/internal/interfaces/http/handlers"
	"github.com/your-org/forms-backend/internal/pkg/logger"
	"github.com/your-org/forms-backend/internal/pkg/notify"
	"github.com/your-org/forms-backend/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if cfg.Database.AutoMigrate {
		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.Warnf("Index creation failed: %v", err)
		}
		if cfg.IsDevelopment() {
			if err := migration.GetTableInfo(); err != nil {
				log.Warnf("Table info failed: %v", err)
			}
		}
	}

	healthChecks := map[string]handlers.HealthCheck{
		"database": func(context.Context) error { return db.Health() },
	}

	// Connect to Redis
	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = redis.NewConnection(cfg, log)
		switch {
		case err == nil:
			defer redisClient.Close()
			healthChecks["redis"] = func(context.Context) error { return redisClient.Health() }
		case cfg.Numbering.Backend == "redis":
			log.Fatalf("Failed to connect to Redis: %v", err)
		default:
			log.Warnf("Redis unavailable, continuing without rate limiting and shared alert dedupe: %v", err)
			redisClient = nil
		}
	}

	// Document number counters
	var counters sequence.CounterStore
	switch cfg.Numbering.Backend {
	case "redis":
		counters = redis.NewCounterStore(redisClient.GetClient(), "seq")
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		mongoCounters, err := mongo.NewCounterStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoCounters.Close(ctx)
		}()
		healthChecks["mongo"] = mongoCounters.Health
		counters = mongoCounters
	case "memory":
		log.Warn("Using in-memory number counters; numbers restart with the process")
		counters = memory.New()
	default:
		counters = postgres.NewCounterStore(db.GetDB())
	}
	numbers := sequence.NewService(counters, sequence.Config{
		MaxRetries:   cfg.Numbering.MaxRetries,
		RetryBackoff: cfg.Numbering.RetryBackoff,
	}, log)

	// Lifecycle events
	var events lifecycle.EventPublisher = lifecycle.NopPublisher{}
	if cfg.Broker.Enabled {
		publisher, err := rabbitmq.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		events = publisher
	}

	ledger := inventory.NewService(postgres.NewInventoryStore(db.GetDB()), log)
	documents := lifecycle.NewService(numbers, ledger, postgres.NewDocumentStore(db.GetDB()), events, log)

	// Low stock sweep
	var channels notify.Multi
	if cfg.Inventory.AlertWebhookURL != "" {
		channels = append(channels, notify.NewWebhookNotifier(cfg.Inventory.AlertWebhookURL, cfg.Inventory.AlertTimeout))
	}
	if len(cfg.Inventory.AlertEmailTo) > 0 {
		channels = append(channels, notify.NewEmailNotifier(cfg.SMTP, cfg.Inventory.AlertEmailTo))
	}
	var notifier notify.Notifier
	if len(channels) > 0 {
		notifier = channels
	}
	var dedupe scheduler.Deduper
	if redisClient != nil {
		dedupe = redis.NewDeduper(redisClient.GetClient(), "alert:")
	}
	jobs := scheduler.NewScheduler(cfg.Inventory, ledger, dedupe, notifier, events, log)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create and start HTTP server
	deps := http.Dependencies{
		Lifecycle:    documents,
		Inventory:    ledger,
		HealthChecks: healthChecks,
	}
	if redisClient != nil {
		deps.Redis = redisClient.GetClient()
	}
	server := http.NewServer(cfg, deps, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	jobs.Stop()

	log.Info("Server shutdown completed")
}
