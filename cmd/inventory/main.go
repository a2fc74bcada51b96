package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/tair/supply-ledger/docs"
	"github.com/tair/supply-ledger/internal/inventory"
	grpcDelivery "github.com/tair/supply-ledger/internal/inventory/delivery/grpc"
	httpDelivery "github.com/tair/supply-ledger/internal/inventory/delivery/http"
	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/internal/inventory/repository"
	"github.com/tair/supply-ledger/kafka"
	"github.com/tair/supply-ledger/pkg/auth"
	"github.com/tair/supply-ledger/pkg/config"
	"github.com/tair/supply-ledger/pkg/database"
	"github.com/tair/supply-ledger/pkg/logger"
	"github.com/tair/supply-ledger/pkg/tracing"
)

var version = "dev"

func main() {
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("store", cfg.StoreDriver).
		Str("lock", cfg.LockDriver).
		Msg("Starting inventory service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName: cfg.ServiceName,
			Version:     version,
			Environment: cfg.Environment,
			Endpoint:    cfg.JaegerEndpoint,
			SampleRatio: cfg.SampleRatio,
		})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Tracing disabled")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
					logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
				}
			}()
		}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()
	repo := repository.NewTracingRepository(store)

	logger.Logger.Info().Msg("Store initialized successfully")

	// Redis backs the distributed lock and the idempotency guard
	var (
		locker      lock.Locker = lock.NewLocalLocker()
		idempotency httpDelivery.IdempotencyStore
		limiter     httpDelivery.RateLimiter
		dedup       kafka.Deduplicator
	)
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	switch {
	case err == nil:
		defer redisClient.Close()
		guard := lock.NewIdempotencyGuard(redisClient, cfg.IdempotencyTTL)
		idempotency, dedup = guard, guard
		if cfg.LockDriver == config.LockDriverRedis {
			locker = lock.NewRedisLocker(redisClient, cfg.LockTTL, 25*time.Millisecond)
		}
		if cfg.RateLimit.Requests > 0 {
			limiter = lock.NewRedisRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	case cfg.LockDriver == config.LockDriverRedis:
		logger.Logger.Fatal().Err(err).Msg("Redis lock driver configured but Redis is unreachable")
	default:
		logger.Logger.Warn().Err(err).Msg("Redis unavailable, idempotency keys and rate limiting disabled")
	}

	var (
		publisher ledger.Publisher
		events    *kafka.Publisher
	)
	if cfg.Kafka.Enabled() {
		events, err = kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer events.Close()
		publisher = kafka.NewGuardedPublisher(events, kafka.NewCircuitBreaker("kafka-publisher", 5, 30*time.Second))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)

	// Initialize handlers with Wire DI
	svc, err := inventory.InitializeService(repo, locker, publisher, idempotency, limiter, tokens, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize service")
	}

	if cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicStockMovements})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		consumer.RegisterHandler(kafka.EventTypeStockMovementRequested,
			kafka.NewStockMovementHandler(svc.ApplyTransaction, dedup))
		if err := consumer.Start(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
		defer consumer.Close()
	}

	httpServer := newHTTPServer(cfg, svc.HTTP, repo)
	grpcServer := newGRPCServer(svc.GRPC, svc.Interceptors)

	errCh := make(chan error, 2)
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			errCh <- fmt.Errorf("failed to listen on gRPC port: %w", err)
			return
		}
		logger.Logger.Info().
			Str("port", cfg.GRPCPort).
			Msg("gRPC server started")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Logger.Error().Err(err).Msg("Server failed")
	}

	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	grpcServer.GracefulStop()
	stop()
}

// openStore connects the configured store and prepares its schema
func openStore(ctx context.Context, cfg *config.Config) (domain.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewGormConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		repo := repository.NewGormRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repo, func() { sqlDB.Close() }, nil

	case config.StoreDriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(client, cfg.Mongo.Database)
		if err := repo.Migrate(ctx); err != nil {
			disconnect(client)
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return repo, func() { disconnect(client) }, nil

	case config.StoreDriverMemory:
		logger.Logger.Warn().Msg("Using in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to disconnect from mongo")
	}
}

func newHTTPServer(cfg *config.Config, handler *httpDelivery.InventoryHandler, store httpDelivery.Pinger) *http.Server {
	// Setup router
	router := mux.NewRouter()

	middlewareConfig := httpDelivery.DefaultMiddlewareConfig(cfg.RequestTimeout)
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router, store)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	docs.SwaggerInfo.Version = version
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.WrapHandler)

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpDelivery.SetupCORS(middlewareConfig)(router),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newGRPCServer(server *grpcDelivery.LedgerGRPCServer, interceptors *grpcDelivery.Interceptors) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		interceptors.Chain(),
	)
	grpcDelivery.RegisterLedgerServiceServer(grpcServer, server)

	// Register reflection service (for grpcurl and grpc tools)
	reflection.Register(grpcServer)
	return grpcServer
}
