package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/nmarks/payflow/internal/adapter/http"
	"github.com/nmarks/payflow/internal/adapter/http/handler"
	"github.com/nmarks/payflow/internal/adapter/http/middleware"
	postgresRepo "github.com/nmarks/payflow/internal/adapter/repository/postgres"
	redisRepo "github.com/nmarks/payflow/internal/adapter/repository/redis"
	"github.com/nmarks/payflow/internal/infrastructure/auth"
	"github.com/nmarks/payflow/internal/infrastructure/config"
	"github.com/nmarks/payflow/internal/infrastructure/dispatcher"
	"github.com/nmarks/payflow/internal/infrastructure/eventbus"
	"github.com/nmarks/payflow/internal/infrastructure/logger"
	"github.com/nmarks/payflow/internal/infrastructure/metrics"
	"github.com/nmarks/payflow/internal/infrastructure/postgres"
	"github.com/nmarks/payflow/internal/infrastructure/redis"
	"github.com/nmarks/payflow/internal/notifier"
	"github.com/nmarks/payflow/internal/scheduler"
	"github.com/nmarks/payflow/internal/settlement"
	"github.com/nmarks/payflow/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers: zerolog for the request path, slog for background
	// workers.
	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zl
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	consistencyRepo := postgresRepo.NewConsistencyRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	dedupeStore := redisRepo.NewDedupeStore(redisClient, cfg.IdempotencyTTL)

	// Risk scoring
	largeAmount, err := decimal.NewFromString(cfg.RiskLargeAmountThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid risk threshold")
	}

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, outboxRepo, cache, idGen, m)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen, m)
	riskScorer := usecase.NewRiskScorer(usecase.RiskConfig{
		LargeAmountThreshold: largeAmount,
		VelocityLimit:        cfg.RiskVelocityLimit,
		VelocityWindow:       cfg.RiskVelocityWindow,
	}, ledgerUC)
	settlementGW := settlement.NewSimulator(slog.Default())
	paymentUC := usecase.NewPaymentUseCase(txManager, accountRepo, paymentRepo, outboxRepo,
		ledgerUC, riskScorer, settlementGW, idGen, retrier, m)
	consistencyUC := usecase.NewConsistencyUseCase(consistencyRepo)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// HTTP surface
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, ledgerUC),
		TransferHandler:    handler.NewTransferHandler(paymentUC),
		PaymentHandler:     handler.NewPaymentHandler(paymentUC),
		EntryHandler:       handler.NewEntryHandler(ledgerUC, accountUC),
		EventHandler:       handler.NewEventHandler(outboxRepo),
		ConsistencyHandler: handler.NewConsistencyHandler(consistencyUC),
		AuthHandler:        handler.NewAuthHandler(jwtManager),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Metrics:            m,
		Logger:             zl,
	})

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	bus := eventbus.New(eventbus.Config{
		Client:      redisClient,
		TopicPrefix: cfg.EventStreamPrefix,
		MaxQueue:    cfg.EventQueueSize,
		Metrics:     m,
	})

	outboxDispatcher := dispatcher.New(outboxRepo, bus, slog.Default(), dispatcher.Config{
		Interval:  cfg.DispatcherInterval,
		BatchSize: cfg.DispatcherBatchSize,
		Retention: cfg.OutboxRetention,
	})
	go func() { _ = outboxDispatcher.Start(workerCtx) }()

	paymentScheduler := scheduler.New(paymentRepo, paymentUC, slog.Default(), m, scheduler.Config{
		Interval:  cfg.SchedulerInterval,
		BatchSize: cfg.SchedulerBatchSize,
	})
	go func() { _ = paymentScheduler.Start(workerCtx) }()

	hostname, _ := os.Hostname()
	subscriber := eventbus.NewSubscriber(eventbus.SubscriberConfig{
		Client:   redisClient,
		Group:    "notifications",
		Consumer: hostname,
		Topics: []string{
			bus.Topic("account"),
			bus.Topic("transfer"),
			bus.Topic("payment"),
		},
		Handler: notifier.New(slog.Default()),
		Dedupe:  dedupeStore,
		Metrics: m,
	})
	go func() { _ = subscriber.Start(workerCtx) }()

	// HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

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

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
