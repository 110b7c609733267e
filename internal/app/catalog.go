package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/catalog/cache"
	"github.com/xenking/zm-storefront/internal/catalog/datocms"
	"github.com/xenking/zm-storefront/internal/catalog/postgres"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/pkg/health"
)

// Telemetry is the subset of the SDK telemetry used to build components.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Catalog is the configured catalog source behind a read cache.
type Catalog struct {
	*cache.Cache

	// Ping checks that the underlying source is reachable.
	Ping health.CheckFunc

	close func()
}

// Close releases connections held by the source.
func (c *Catalog) Close() {
	if c.close != nil {
		c.close()
	}
}

// NewCatalog connects the catalog source selected by cfg. Postgres schema
// migrations are applied before use.
func NewCatalog(ctx context.Context, lg *zap.Logger, cfg CatalogConfig, m Telemetry) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{}
	switch cfg.Source {
	case SourceDatoCMS:
		client := datocms.New(datocms.Options{
			Endpoint:       cfg.DatoCMS.Endpoint,
			Token:          cfg.DatoCMS.Token,
			Timeout:        cfg.DatoCMS.Timeout,
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
		c.Cache = newCache(lg, cfg, client)
		c.Ping = func(ctx context.Context) error {
			_, err := client.CategorySlugs(ctx)
			return err
		}
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		c.Cache = newCache(lg, cfg, postgres.NewRepository(pool))
		c.Ping = pool.Ping
		c.close = pool.Close
	}

	lg.Info("Catalog source ready", zap.String("source", cfg.Source), zap.Duration("cache_ttl", cfg.CacheTTL))
	return c, nil
}

func newCache(lg *zap.Logger, cfg CatalogConfig, next catalog.Repository) *cache.Cache {
	return cache.New(next, cache.WithTTL(cfg.CacheTTL), cache.WithLogger(lg.Named("catalog")))
}
