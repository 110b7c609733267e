package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/cli"
	"github.com/xenking/zm-storefront/internal/domain/cart"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/order"
	"github.com/xenking/zm-storefront/internal/storage/file"
	"github.com/xenking/zm-storefront/internal/storage/memory"
	"github.com/xenking/zm-storefront/internal/storage/sqlite"
)

const appDirName = "zm-storefront"

// NoopTelemetry discards traces and metrics. Command line tools use it in
// place of the SDK telemetry.
type NoopTelemetry struct{}

func (NoopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (NoopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

// CartOpener returns a cli.Opener for cfg: it opens the configured cart
// storage, rehydrates the cart and defers catalog connection until a command
// needs it.
func CartOpener(cfg *Config) cli.Opener {
	return func(ctx context.Context, lg *zap.Logger) (*cli.Env, error) {
		storage, closeStorage, err := OpenCartStorage(ctx, cfg.Cart)
		if err != nil {
			return nil, err
		}

		store := cart.NewStore(storage,
			cart.WithKey(cfg.Cart.Key),
			cart.WithLogger(lg.Named("cart")),
		)
		store.Initialize(ctx)

		var (
			once     sync.Once
			products *Catalog
			openErr  error
		)
		env := &cli.Env{
			Cart: store,
			Links: order.NewLinkBuilder(order.LinkConfig{
				BaseURL:     cfg.Order.BaseURL,
				Destination: cfg.Order.Destination,
				SiteURL:     cfg.Order.SiteURL,
			}),
			Catalog: func(ctx context.Context) (catalog.Repository, error) {
				once.Do(func() {
					products, openErr = NewCatalog(ctx, lg, cfg.Catalog, NoopTelemetry{})
				})
				if openErr != nil {
					return nil, openErr
				}
				return products, nil
			},
			Close: func() {
				if products != nil {
					products.Close()
				}
				closeStorage()
			},
		}
		return env, nil
	}
}

// OpenCartStorage opens the cart storage backend selected by cfg. The
// returned func releases it.
func OpenCartStorage(ctx context.Context, cfg CartConfig) (cart.Storage, func(), error) {
	switch cfg.Storage {
	case StorageMemory:
		return memory.New(), func() {}, nil
	case StorageFile:
		dir, err := cartPath(cfg.Path, "cart")
		if err != nil {
			return nil, nil, err
		}
		s, err := file.New(dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file storage")
		}
		return s, func() {}, nil
	case StorageSQLite:
		path, err := cartPath(cfg.Path, "cart.db")
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, errors.Wrap(err, "create storage dir")
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open sqlite storage")
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown cart storage %q", cfg.Storage)
	}
}

// cartPath returns path, or name inside the user config directory.
func cartPath(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate user config dir")
	}
	return filepath.Join(dir, appDirName, name), nil
}
