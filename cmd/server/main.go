package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/stockledger/internal/adapter/http"
	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/stockledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/stockledger/internal/adapter/repository/redis"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
	"github.com/iho/stockledger/internal/infrastructure/config"
	"github.com/iho/stockledger/internal/infrastructure/eventpublisher"
	"github.com/iho/stockledger/internal/infrastructure/idgen"
	"github.com/iho/stockledger/internal/infrastructure/logger"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/infrastructure/postgres"
	"github.com/iho/stockledger/internal/infrastructure/redis"
	"github.com/iho/stockledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Version: version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}

	appLogger.Info().Msg("server stopped")
}

// storage bundles the repositories of one storage driver.
type storage struct {
	txManager   usecase.TransactionManager
	productRepo usecase.ProductRepository
	ledgerRepo  usecase.LedgerRepository
	outboxRepo  usecase.OutboxRepository
	retrier     usecase.Retrier
	checks      map[string]handler.Check
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			txManager:   memory.NewTxManager(store),
			productRepo: memory.NewProductRepository(store),
			ledgerRepo:  memory.NewLedgerRepository(store),
			outboxRepo:  memory.NewOutboxRepository(store),
			checks:      map[string]handler.Check{},
			close:       func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager:   postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.LockTimeout)),
		productRepo: postgresRepo.NewProductRepository(pool),
		ledgerRepo:  postgresRepo.NewLedgerRepository(pool),
		outboxRepo:  postgresRepo.NewOutboxRepository(pool),
		retrier:     postgresRepo.NewRetrier(logger, postgresRepo.WithMaxRetries(cfg.DatabaseRetries)),
		checks: map[string]handler.Check{
			"postgres": pool.Ping,
		},
		close: pool.Close,
	}, nil
}

// defaultActor is the identity used for every request when authentication
// is disabled.
func defaultActor(cfg *config.Config) (domain.Actor, error) {
	actor := domain.Actor{Username: cfg.DefaultActor, Role: domain.Role(cfg.DefaultActorRole)}
	if actor.Username == "" {
		return actor, errors.New("DEFAULT_ACTOR must not be empty")
	}
	if !actor.Role.IsValid() {
		return actor, fmt.Errorf("unknown DEFAULT_ACTOR_ROLE %q", cfg.DefaultActorRole)
	}
	return actor, nil
}

// newPublisher picks the outbox destination. client is nil when Redis is
// not configured.
func newPublisher(cfg *config.Config, client *goredis.Client, logger zerolog.Logger) eventpublisher.Publisher {
	if cfg.OutboxPublisher == "redis" && client != nil {
		return eventpublisher.NewRedisPublisher(client, cfg.EventsChannel)
	}
	return eventpublisher.NewLogPublisher(logger)
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	actor, err := defaultActor(cfg)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	var (
		redisClient      *goredis.Client
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		store.checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		logger.Info().Msg("redis not configured, report caching and idempotency disabled")
	}

	m := metrics.New()
	ids := idgen.NewULIDGenerator()

	// Use cases
	engine := usecase.NewBalanceEngine(store.txManager, store.productRepo, store.ledgerRepo, store.outboxRepo, ids, store.retrier, m, logger)
	inventoryUC := usecase.NewInventoryUseCase(engine, store.productRepo)
	productUC := usecase.NewProductUseCase(store.txManager, store.productRepo, engine, ids)
	queryUC := usecase.NewLedgerQueryUseCase(store.ledgerRepo, store.productRepo, cache, cfg.ReportCacheTTL, logger)
	reconciliationUC := usecase.NewReconciliationUseCase(store.txManager, store.productRepo, store.ledgerRepo, m, logger)
	engine.OnProductChanged(queryUC.InvalidateValuation)
	reconciliationUC.OnProductChanged(queryUC.InvalidateValuation)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		logger.Warn().Str("actor", actor.Username).Str("role", string(actor.Role)).
			Msg("authentication disabled, requests use the default actor")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).
		OnLimited(m.RateLimitHits.Inc)

	routerCfg := httpAdapter.RouterConfig{
		InventoryHandler:      handler.NewInventoryHandler(inventoryUC),
		ProductHandler:        handler.NewProductHandler(productUC),
		LedgerHandler:         handler.NewLedgerHandler(queryUC),
		ReportHandler:         handler.NewReportHandler(queryUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(store.checks),
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		JWTManager:            jwtManager,
		DefaultActor:          actor,
		Metrics:               m,
		MetricsHandler:        promhttp.Handler(),
		RateLimiter:           rateLimiter,
		Logger:                logger,
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
	}
	if jwtManager != nil {
		routerCfg.AuthHandler = handler.NewAuthHandler(jwtManager, cfg.JWTExpiration)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outboxRepo,
		Publisher:  newPublisher(cfg, redisClient, logger),
		Metrics:    m,
		Logger:     logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := outbox.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(limiterIdleTimeout)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := rateLimiter.CleanupLimiters(limiterIdleTimeout); n > 0 {
					logger.Debug().Int("removed", n).Msg("dropped idle rate limiters")
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
