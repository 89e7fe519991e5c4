// Package app wires configuration into repositories and use cases for both
// the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/adapter/chromedp_crawler"
	"github.com/user/equipment-scraper/internal/adapter/httpclient"
	"github.com/user/equipment-scraper/internal/adapter/postgres"
	redis_adapter "github.com/user/equipment-scraper/internal/adapter/redis"
	"github.com/user/equipment-scraper/internal/adapter/sqlite"
	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/extract"
	"github.com/user/equipment-scraper/internal/proxy"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/usecase"
	"github.com/user/equipment-scraper/pkg/config"
	"github.com/user/equipment-scraper/pkg/metrics"
)

const connectTimeout = 10 * time.Second

// Store bundles the repositories of one backend.
type Store struct {
	Schema  repository.SchemaRepository
	Rows    repository.RowRepository
	Catalog repository.CatalogRepository
	close   func()
}

// OpenStore connects to the backend selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info("PostgreSQL connection pool established")
		return &Store{
			Schema:  postgres.NewSchemaRepo(pool),
			Rows:    postgres.NewRowRepo(pool),
			Catalog: postgres.NewCatalogRepo(pool),
			close:   pool.Close,
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite database opened", zap.String("path", cfg.SQLitePath))
		return &Store{
			Schema:  sqlite.NewSchemaRepo(db),
			Rows:    sqlite.NewRowRepo(db),
			Catalog: sqlite.NewCatalogRepo(db),
			close:   func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// App is the composed application.
type App struct {
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Maintenance usecase.Maintenance
	Persister   usecase.Persister
	Runner      usecase.Runner

	closers []func()
}

// New opens the store and the optional Redis coordination and builds the
// use cases over them.
func New(ctx context.Context, cfg *config.Config, datasets []entity.Dataset, logger *zap.Logger) (*App, error) {
	a := &App{Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	locker := usecase.NewLocalLocker()
	dedup := usecase.DedupConfig{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		logger.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))

		locker = redis_adapter.NewTableLockRepo(rdb, cfg.LockTTL())
		if ttl := cfg.DedupTTL(); ttl > 0 {
			dedup = usecase.DedupConfig{Seen: redis_adapter.NewSeenRepo(rdb), TTL: ttl}
			logger.Info("dedup window enabled", zap.Duration("ttl", ttl))
		}
	} else if cfg.DedupTTL() > 0 {
		logger.Warn("DEDUP_TTL_HOURS is set but REDIS_ADDR is empty; writes stay append-only")
	}

	reconciler := usecase.NewSchemaReconciler(store.Schema, locker, logger)
	a.Persister = usecase.NewPersister(reconciler, usecase.NewRowWriter(store.Rows), dedup, a.Metrics, logger)
	a.Maintenance = usecase.NewMaintenance(store.Schema, store.Rows, store.Catalog, logger)
	a.Runner = usecase.NewRunner(datasets, a.Persister, a.extractorFactory(cfg, datasets, logger), a.Metrics, logger)
	return a, nil
}

// extractorFactory shares one fetcher across runs. A browser is only
// allocated when some dataset renders pages.
func (a *App) extractorFactory(cfg *config.Config, datasets []entity.Dataset, logger *zap.Logger) usecase.ExtractorFactory {
	proxies := proxy.NewManager(cfg.ProxyList(), cfg.UserAgentList())
	deps := extract.Deps{
		Fetcher: httpclient.NewFetcher(httpclient.Options{
			Timeout:   cfg.HTTPTimeout(),
			Retries:   cfg.HTTPRetries,
			RetryWait: cfg.HTTPRetryWait(),
		}, proxies, logger),
		Logger: logger,
		Settle: cfg.RenderSettle(),
	}
	for _, ds := range datasets {
		if ds.Source.Render {
			renderer := chromedp_crawler.NewRenderer(cfg.PageLoadTimeout(), proxies, logger)
			a.closers = append(a.closers, renderer.Close)
			deps.Renderer = renderer
			break
		}
	}
	return func(src entity.SourceConfig) (repository.Extractor, error) {
		return extract.New(src, deps)
	}
}

// Close releases the browser, Redis and store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
