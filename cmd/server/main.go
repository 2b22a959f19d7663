package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/mycelium/receivables/internal/adapter/http"
	"github.com/mycelium/receivables/internal/adapter/http/handler"
	"github.com/mycelium/receivables/internal/adapter/http/middleware"
	postgresRepo "github.com/mycelium/receivables/internal/adapter/repository/postgres"
	redisRepo "github.com/mycelium/receivables/internal/adapter/repository/redis"
	"github.com/mycelium/receivables/internal/infrastructure/config"
	"github.com/mycelium/receivables/internal/infrastructure/eventpublisher"
	"github.com/mycelium/receivables/internal/infrastructure/logger"
	"github.com/mycelium/receivables/internal/infrastructure/metrics"
	"github.com/mycelium/receivables/internal/infrastructure/postgres"
	"github.com/mycelium/receivables/internal/infrastructure/redis"
	"github.com/mycelium/receivables/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Migrate, then connect
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	balanceRepo := postgresRepo.NewCustomerBalanceRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	retrier := postgresRepo.NewRetrier()
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize services
	ledgerSvc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		TxManager:   txManager,
		EntryRepo:   entryRepo,
		BalanceRepo: balanceRepo,
		OutboxRepo:  outboxRepo,
		AuditRepo:   auditRepo,
		IDGen:       idGen,
		Retrier:     retrier,
		Cache:       cache,
		Logger:      appLogger,
	})
	debtorSvc := usecase.NewDebtorService(balanceRepo, entryRepo, cache, appLogger)

	// Initialize handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, appMetrics)
	workflowHandler := handler.NewWorkflowHandler(ledgerSvc, appMetrics)
	debtorHandler := handler.NewDebtorHandler(debtorSvc, appMetrics)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LedgerHandler:    ledgerHandler,
		WorkflowHandler:  workflowHandler,
		DebtorHandler:    debtorHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logging:          middleware.NewLoggingMiddleware(appLogger),
	})

	// Start the outbox relay
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	if cfg.PublisherEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewLogPublisher(nil),
			Metrics:    appMetrics,
			BatchSize:  cfg.PublisherBatchSize,
			Interval:   cfg.PublisherInterval,
		})
		go func() {
			if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
