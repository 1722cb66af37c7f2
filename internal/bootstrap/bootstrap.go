// Package bootstrap assembles the query stack from configuration.  Both the
// API server and the CLI build their service through it, so the wiring of
// store, cache, resolver backend and audit stream lives in one place.
package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/HexaTopo/internal/application/query"
	"github.com/turtacn/HexaTopo/internal/config"
	"github.com/turtacn/HexaTopo/internal/infrastructure/database/postgres"
	"github.com/turtacn/HexaTopo/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/turtacn/HexaTopo/internal/infrastructure/database/redis"
	"github.com/turtacn/HexaTopo/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/HexaTopo/pkg/errors"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
)

// App holds the assembled stack.  Optional collaborators (redis, kafka) are
// nil when disabled in configuration.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Pool      *pgxpool.Pool
	Redis     *redisinfra.Client
	Cache     redisinfra.CellSetCache
	Audit     *kafka.AuditProducer
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Service   query.Service
}

// New wires the stack.  On error everything already opened is closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app.Pool = pool

	features := repositories.NewFeatureRepository(pool, log)
	resolvers, err := resolverProvider(cfg, pool, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "hexatopo",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Collector = collector
	app.Metrics = prometheus.NewAppMetrics(collector)

	opts := []query.Option{query.WithMetrics(app.Metrics)}

	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = client
		app.Cache = redisinfra.NewCellSetCache(client, log,
			redisinfra.WithPrefix(cfg.Redis.KeyPrefix),
			redisinfra.WithDefaultTTL(cfg.Redis.CellSetTTL),
		)
		opts = append(opts, query.WithCache(app.Cache, cfg.Redis.CellSetTTL))
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewAuditProducer(&cfg.Kafka, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Audit = producer
		opts = append(opts, query.WithAuditor(producer))
	}

	app.Service = query.NewService(features, resolvers, log, opts...)
	return app, nil
}

func resolverProvider(cfg *config.Config, pool *pgxpool.Pool, log logging.Logger) (query.ResolverProvider, error) {
	switch cfg.Resolver.Backend {
	case config.ResolverBackendStructural, "":
		return query.NewStructuralProvider(cfg.Resolver.Memoize), nil
	case config.ResolverBackendTable:
		return repositories.NewAncestorStore(pool,
			cell.Resolution(cfg.Resolver.WindowMin),
			cell.Resolution(cfg.Resolver.WindowMax),
			log,
		), nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown resolver backend %q", cfg.Resolver.Backend)
	}
}

// Close releases everything New opened.  Safe on a partially built App.
func (a *App) Close() {
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil {
			a.Logger.Warn("failed to close audit producer", logging.Err(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", logging.Err(err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
