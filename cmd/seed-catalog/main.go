package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/catalog/catalogjson"
	"github.com/xenking/zm-storefront/internal/catalog/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "file", "db/seed/catalog.json", "catalog export: JSON, or gzip JSON when the name ends in .gz")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	lg.Info("Reading catalog export", zap.String("path", catalogFile))
	export, err := readExport(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog export")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stats, err := postgres.NewRepository(pool).Import(ctx, export.Categories, export.Products)
	if err != nil {
		return errors.Wrap(err, "import catalog")
	}
	lg.Info("Catalog imported",
		zap.Int("categories", stats.Categories),
		zap.Int("products", stats.Products),
	)
	return nil
}

// readExport decodes a catalog export, transparently decompressing files
// whose name ends in .gz.
func readExport(path string) (catalogjson.Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalogjson.Export{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return catalogjson.Export{}, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	export, err := catalogjson.DecodeExport(jx.Decode(r, 64*1024))
	if err != nil {
		return catalogjson.Export{}, errors.Wrapf(err, "decode %s", path)
	}
	return export, nil
}
