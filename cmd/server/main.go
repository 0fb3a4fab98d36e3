package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/api"
	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/discovery"
	"github.com/example/shopcore/pkg/notify"
	"github.com/example/shopcore/pkg/orders"
	"github.com/example/shopcore/pkg/payments"
	"github.com/example/shopcore/pkg/repository"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// MySQL
	db, err := repository.OpenMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate", zap.Error(err))
	}
	store := repository.NewStore(db)

	ctx := context.Background()

	// Redis order cache
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// MongoDB audit trail
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoRepo.Close(ctx)

	// Kafka order events for the notification subsystem
	publisher := notify.NewPublisher(&cfg.Kafka)
	defer publisher.Close()

	// Domain services
	checkout := orders.NewCheckoutService(store, cfg.Shipping, publisher, mongoRepo, logger)
	lifecycle := orders.NewLifecycleService(store, redisRepo, mongoRepo, publisher, logger)

	// Payment providers, constructed once and injected
	var providers []payments.Provider
	if cfg.Payments.FastPay.Enabled {
		providers = append(providers, payments.NewFastPay(cfg.Payments.FastPay))
	}
	if cfg.Payments.QPay.Enabled {
		providers = append(providers, payments.NewQPay(cfg.Payments.QPay))
	}
	gateway := payments.NewGateway(store, lifecycle, providers, cfg.Payments.AdvanceOnPaid, mongoRepo, logger)

	// HTTP server
	server := api.NewServer(cfg, logger, checkout, lifecycle, gateway, store, redisRepo)
	server.SetupRoutes()

	// Register in etcd; the service still serves traffic without it
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	registry, err := discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		registry = nil
	} else {
		defer registry.Close()
		if err := registry.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", cfg.Server.Name),
				zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		}
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if registry != nil {
		if err := registry.Deregister(ctx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
	}

	logger.Info("Service stopped")
}
