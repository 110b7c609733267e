// Package cli implements the cart command line: a Cart Store on the local
// device with catalog lookups and order links.
package cli

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/zm-storefront/internal/domain/cart"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/order"
)

// Env is everything the commands operate on.
type Env struct {
	Cart  *cart.Store
	Links *order.LinkBuilder
	// Catalog connects the catalog on first use, so purely local commands
	// work without catalog credentials.
	Catalog func(ctx context.Context) (catalog.Repository, error)
	Close   func()
}

// Opener builds the Env once logging is configured. The returned cart must
// already be initialized.
type Opener func(ctx context.Context, lg *zap.Logger) (*Env, error)

// LoggerFactory builds the command logger.
type LoggerFactory func(verbose bool) (*zap.Logger, error)

// NewLogger writes JSON logs at INFO to stderr, or human readable logs at
// DEBUG when verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

type runner struct {
	open      Opener
	newLogger LoggerFactory
	verbose   bool

	lg  *zap.Logger
	env *Env
}

// NewRootCommand returns the cart command tree. newLogger may be nil, in
// which case NewLogger is used.
func NewRootCommand(open Opener, newLogger LoggerFactory) *cobra.Command {
	if newLogger == nil {
		newLogger = NewLogger
	}
	r := &runner{open: open, newLogger: newLogger}

	root := &cobra.Command{
		Use:   "cart",
		Short: "Manage the ZM Gadgets shopping cart",
		Long: `cart keeps a shopping cart on this device, prices it against the
catalog and builds the WhatsApp link that sends the order.`,
		SilenceUsage:       true,
		PersistentPreRunE:  r.setup,
		PersistentPostRunE: r.teardown,
	}
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		r.showCommand(),
		r.addCommand(),
		r.removeCommand(),
		r.qtyCommand(),
		r.clearCommand(),
		r.linkCommand(),
		r.productLinkCommand(),
		r.categoriesCommand(),
		r.productsCommand(),
	)
	return root
}

func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	lg, err := r.newLogger(r.verbose)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	r.lg = lg

	ctx := zctx.Base(cmd.Context(), lg)
	env, err := r.open(ctx, lg)
	if err != nil {
		return errors.Wrap(err, "open cart")
	}
	r.env = env
	cmd.SetContext(ctx)

	lg.Debug("Cart loaded", zap.Int("items", len(env.Cart.Items())))
	return nil
}

func (r *runner) teardown(*cobra.Command, []string) error {
	if r.env != nil && r.env.Close != nil {
		r.env.Close()
	}
	if r.lg != nil {
		_ = r.lg.Sync()
	}
	return nil
}

func (r *runner) catalog(ctx context.Context) (catalog.Repository, error) {
	if r.env.Catalog == nil {
		return nil, errors.New("catalog is not configured")
	}
	repo, err := r.env.Catalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connect catalog")
	}
	return repo, nil
}

// product looks a product up by slug, turning ErrNotFound into a message
// naming the slug.
func (r *runner) product(ctx context.Context, slug string) (*catalog.Product, error) {
	repo, err := r.catalog(ctx)
	if err != nil {
		return nil, err
	}
	p, err := repo.ProductBySlug(ctx, slug)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, errors.Errorf("product %q not found", slug)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", slug)
	}
	return p, nil
}
