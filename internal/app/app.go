package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Tago-F/onsen-review/internal/config"
	"github.com/Tago-F/onsen-review/internal/event"
	handler "github.com/Tago-F/onsen-review/internal/handler/http"
	"github.com/Tago-F/onsen-review/internal/repository/postgres"
	"github.com/Tago-F/onsen-review/internal/service"
	"github.com/Tago-F/onsen-review/internal/storage"
	"github.com/Tago-F/onsen-review/internal/storage/azure"
	"github.com/Tago-F/onsen-review/internal/storage/memory"
	"github.com/Tago-F/onsen-review/migrations"
	"github.com/Tago-F/onsen-review/pkg/database"
	"github.com/Tago-F/onsen-review/pkg/health"
	pkgkafka "github.com/Tago-F/onsen-review/pkg/kafka"
	"github.com/Tago-F/onsen-review/pkg/middleware"
)

// App wires together all dependencies and runs the review API.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates the application, connecting to PostgreSQL, Redis, Kafka,
// and blob storage according to configuration. Redis and Kafka are optional:
// the API degrades to uncached, event-less operation without them.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	var (
		redisClient *redis.Client
		cache       service.Cache
	)
	if redisClient, err = database.NewRedisClient(ctx, cfg.RedisConfig()); err != nil {
		logger.Warn("redis unavailable, review list cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		cache = service.NewRedisCache(redisClient)
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisConfig().Addr()))
	}

	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.KafkaEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events will not be published")
	}

	var signer storage.Signer
	if cfg.AzureEnabled() {
		signer, err = azure.NewSigner(azure.DefaultConfig(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create azure signer: %w", err)
		}
		logger.Info("azure blob signer initialized",
			slog.String("account", cfg.AzureAccountName),
			slog.String("container", cfg.AzureContainer),
		)
	} else {
		base := fmt.Sprintf("https://devstore.blob.core.windows.net/%s", cfg.AzureContainer)
		signer = memory.New(base)
		logger.Warn("azure credentials missing, using in-memory signer", slog.String("base_url", base))
	}

	repo := postgres.NewReviewRepository(pool)
	reviewService := service.NewReviewService(repo, signer, cache, publisher, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(reviewService, healthHandler, handler.RouterConfig{
		CORS:              corsCfg,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
