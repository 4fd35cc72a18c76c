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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/assetledger/internal/adapter/http"
	"github.com/iho/assetledger/internal/adapter/http/handler"
	"github.com/iho/assetledger/internal/adapter/http/middleware"
	"github.com/iho/assetledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/assetledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/assetledger/internal/adapter/repository/redis"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/auth"
	"github.com/iho/assetledger/internal/infrastructure/config"
	"github.com/iho/assetledger/internal/infrastructure/eventpublisher"
	"github.com/iho/assetledger/internal/infrastructure/fixture"
	"github.com/iho/assetledger/internal/infrastructure/idgen"
	"github.com/iho/assetledger/internal/infrastructure/logger"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
	"github.com/iho/assetledger/internal/infrastructure/postgres"
	"github.com/iho/assetledger/internal/infrastructure/redis"
	"github.com/iho/assetledger/internal/usecase"
)

const limiterCleanupInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "assetledger",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := buildApp(ctx, cfg, log, prometheus.DefaultRegisterer, nil)
	if err != nil {
		return err
	}
	defer a.close()

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	go func() {
		if err := a.publisher.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go a.sweepLimiters(bgCtx, limiterCleanupInterval)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.Backend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// app is the wired server before it starts listening.
type app struct {
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	logger    zerolog.Logger
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) sweepLimiters(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.CleanupLimiters(every); n > 0 {
				a.logger.Debug().Int("removed", n).Msg("idle rate limiters removed")
			}
		}
	}
}

// stores are the backend-specific repositories.
type stores struct {
	txManager   usecase.TransactionManager
	journalRepo usecase.JournalRepository
	ledgerRepo  usecase.LedgerRepository
	outboxRepo  usecase.OutboxRepository
	retrier     usecase.Retrier
	pool        *pgxpool.Pool
}

// buildApp wires repositories, usecases and the router. gatherer serves
// /metrics; nil uses the default registry.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	a := &app{logger: log}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	rates, err := cfg.ConversionTable()
	if err != nil {
		return nil, err
	}
	today, err := cfg.Today()
	if err != nil {
		return nil, err
	}
	m := metrics.New(reg)

	// Fixture workspaces
	ds, err := fixture.Load(cfg.FixturePath)
	if err != nil {
		return nil, err
	}
	assetRepo, err := memory.NewAssetRepository(ds.Assets, ds.Disposals)
	if err != nil {
		return nil, err
	}
	payablesRepo := memory.NewPayablesRepository(memory.PayablesData{
		Vendors:  ds.Vendors,
		Invoices: ds.Invoices,
		Receipts: ds.Receipts,
		Banks:    ds.Banks,
	})
	projectsRepo := memory.NewProjectsRepository(ds.Projects)
	log.Info().
		Str("path", cfg.FixturePath).
		Int("assets", len(ds.Assets)).
		Int("invoices", len(ds.Invoices)).
		Strs("entities", ds.Entities()).
		Msg("fixture loaded")

	// Journal backend
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if st.pool != nil {
		a.closers = append(a.closers, st.pool.Close)
	}

	// Redis or in-process coordination
	var (
		cache       usecase.Cache
		locker      usecase.Locker
		idempotency usecase.IdempotencyStore
		redisClient *goredis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		locker = redisRepo.NewLocker(redisClient)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
	} else {
		memCache := memory.NewCache()
		cache = memCache
		locker = memory.NewLocker()
		idempotency = memory.NewIdempotencyStore(memCache)
	}

	idGen := idgen.NewULIDGenerator()

	// Use cases
	assetUC := usecase.NewAssetUseCase(assetRepo, st.journalRepo, cache, rates, log, m).
		WithCacheTTL(cfg.ScheduleCacheTTL)
	postingUC := usecase.NewPostingUseCase(st.txManager, assetRepo, st.journalRepo, st.outboxRepo, locker, idGen, rates, log, m).
		WithLockTTL(cfg.PostingLockTTL)
	if st.retrier != nil {
		postingUC = postingUC.WithRetrier(st.retrier)
	}
	ledgerUC := usecase.NewLedgerUseCase(st.journalRepo, st.ledgerRepo)
	reconUC := usecase.NewReconciliationUseCase(assetRepo, st.journalRepo, st.ledgerRepo)
	payablesUC := usecase.NewPayablesUseCase(st.txManager, payablesRepo, st.outboxRepo, locker, idGen, cfg.MatchPolicy(), today, log, m)
	projectsUC := usecase.NewProjectsUseCase(st.txManager, projectsRepo, st.outboxRepo, locker, idGen, log, m)

	// Handlers
	current := func() domain.Period { return domain.PeriodOf(today) }

	var pgPing, redisPing handler.Pinger
	if st.pool != nil {
		pgPing = handler.PingFunc(st.pool.Ping)
	}
	if redisClient != nil {
		redisPing = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	routerCfg := httpAdapter.RouterConfig{
		AssetHandler:     handler.NewAssetHandler(assetUC, current),
		PostingHandler:   handler.NewPostingHandler(postingUC, reconUC, current),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		PayablesHandler:  handler.NewPayablesHandler(payablesUC),
		ProjectsHandler:  handler.NewProjectsHandler(projectsUC),
		HealthHandler:    handler.NewHealthHandler(pgPing, redisPing),
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.limiter,
		Logger:           log,
	}
	if gatherer != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("bearer authentication enabled")
	}
	a.handler = httpAdapter.NewRouter(routerCfg)

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     log,
		Metrics:    m,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	ok = true
	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.Backend == config.BackendMemory {
		journal := memory.NewJournalRepository()
		return &stores{
			txManager:   memory.NewTxManager(),
			journalRepo: journal,
			ledgerRepo:  journal,
			outboxRepo:  memory.NewOutboxRepository(),
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		txManager:   postgresRepo.NewTxManager(pool),
		journalRepo: postgresRepo.NewJournalRepository(pool),
		ledgerRepo:  postgresRepo.NewLedgerRepository(pool),
		outboxRepo:  postgresRepo.NewOutboxRepository(pool),
		retrier:     postgresRepo.NewRetrier(log),
		pool:        pool,
	}, nil
}
