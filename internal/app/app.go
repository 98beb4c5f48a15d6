// Package app arma las dependencias compartidas por el servidor y el CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/api"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/cache"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/config"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/repair"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/report"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/service"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/status"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/store"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/worker"
)

type App struct {
	Config  *config.Config
	Store   store.Store
	Cache   *cache.Cache
	Service *service.ReportService
	logger  *zap.Logger
}

// OpenStore abre el backend configurado en CACHE_BACKEND.
func OpenStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.OpenFile(cfg.File, logger), nil
	case config.BackendSQLite, config.BackendPostgres:
		driver := store.DriverSQLite
		if cfg.Backend == config.BackendPostgres {
			driver = store.DriverPostgres
		}
		st, err := store.OpenSQL(ctx, driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, multierr.Append(fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err), client.Close())
		}
		return store.NewRedis(client, cfg.RedisPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// New conecta store, cliente de Magazord, caché, pool, scanner y servicio,
// y carga el caché persistido.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := OpenStore(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	client, err := api.NewMagazordClient(api.ClientConfig{
		BaseURL:   cfg.Magazord.BaseURL,
		User:      cfg.Magazord.User,
		Password:  cfg.Magazord.Password,
		PageSize:  cfg.Magazord.PageSize,
		Timeout:   cfg.Magazord.RequestTimeout,
		RateLimit: cfg.Magazord.RateLimit,
		RateBurst: cfg.Magazord.RateBurst,
		Location:  loc,
		Logger:    logger,
	})
	if err != nil {
		return nil, multierr.Append(err, st.Close())
	}

	classifier := status.NewClassifier(cfg.Status.CancelledMarker, cfg.Status.AwaitingMarker)
	source := api.NewSource(client, cfg.Magazord.MaxPages, classifier, logger)

	c := cache.New(st, client, loc, logger)
	c.Load(ctx)

	pool := worker.NewWorkerPool(worker.Options{
		Workers:        cfg.Fetch.Concurrency,
		RequestTimeout: cfg.Magazord.RequestTimeout,
		Retry:          cfg.Fetch.FailurePolicy == config.PolicyRetry,
		RetryAttempts:  cfg.Fetch.RetryAttempts,
		RetryBaseDelay: cfg.Fetch.RetryBaseDelay,
		Logger:         logger,
	})
	scanner := repair.NewScanner(c, client, pool, cfg.Repair.BatchSize, logger)

	svc := service.NewReportService(source, c, pool, scanner, service.Options{
		Policy:  cfg.Fetch.FailurePolicy,
		Builder: report.NewBuilder(classifier),
		Clock:   func() time.Time { return time.Now().In(loc) },
		Logger:  logger,
	})

	return &App{Config: cfg, Store: st, Cache: c, Service: svc, logger: logger}, nil
}

// Close persiste lo pendiente y cierra el store.
func (a *App) Close(ctx context.Context) error {
	_, flushErr := a.Cache.Flush(ctx)
	return multierr.Combine(flushErr, a.Store.Close())
}
