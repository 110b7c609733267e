// Package cache wraps a catalog.Repository with short-lived read caching.
//
// Every query result is kept for a fixed TTL and concurrent misses for the
// same query share one upstream call. Failed calls are never cached. Once
// the complete set of product slugs is known, lookups of slugs outside that
// set are answered with catalog.ErrNotFound without going upstream.
package cache

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
)

const (
	// DefaultTTL matches the storefront's page revalidation interval.
	DefaultTTL = 60 * time.Second

	slugFilterMinCapacity = 1_000
	slugFilterFPR         = 0.001

	// fetchTimeout bounds a shared upstream call, which outlives the
	// cancellation of any single caller.
	fetchTimeout = 30 * time.Second
)

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long results stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(c *Cache) { c.lg = lg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

type entry struct {
	value   any
	expires time.Time
}

type slugFilter struct {
	filter  *bloom.BloomFilter
	expires time.Time
}

// Cache is a caching catalog.Repository decorator. It is safe for
// concurrent use.
type Cache struct {
	next  catalog.Repository
	ttl   time.Duration
	now   func() time.Time
	lg    *zap.Logger
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	slugs   slugFilter
}

var _ catalog.Repository = (*Cache)(nil)

// New wraps next.
func New(next catalog.Repository, opts ...Option) *Cache {
	c := &Cache{
		next:    next,
		ttl:     DefaultTTL,
		now:     time.Now,
		lg:      zap.NewNop(),
		entries: make(map[string]entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Warm loads categories, featured products and the product slug filter
// concurrently.
func (c *Cache) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.Categories(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.FeaturedProducts(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.ProductSlugs(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "warm catalog cache")
	}
	return nil
}

// Invalidate drops every cached result and the slug filter.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.slugs = slugFilter{}
}

// Categories implements catalog.Repository.
func (c *Cache) Categories(ctx context.Context) ([]catalog.Category, error) {
	return load(ctx, c, "categories", c.next.Categories)
}

// FeaturedProducts implements catalog.Repository.
func (c *Cache) FeaturedProducts(ctx context.Context) ([]catalog.Product, error) {
	return load(ctx, c, "featured", c.next.FeaturedProducts)
}

type categoryPage struct {
	products []catalog.Product
	category *catalog.Category
}

// ProductsByCategory implements catalog.Repository.
func (c *Cache) ProductsByCategory(ctx context.Context, slug string) ([]catalog.Product, *catalog.Category, error) {
	page, err := load(ctx, c, "category:"+slug, func(ctx context.Context) (categoryPage, error) {
		products, category, err := c.next.ProductsByCategory(ctx, slug)
		return categoryPage{products: products, category: category}, err
	})
	if err != nil {
		return nil, nil, err
	}
	return page.products, page.category, nil
}

// ProductBySlug implements catalog.Repository.
func (c *Cache) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	if !c.mayExist(slug) {
		return nil, catalog.ErrNotFound
	}
	return load(ctx, c, "product:"+slug, func(ctx context.Context) (*catalog.Product, error) {
		return c.next.ProductBySlug(ctx, slug)
	})
}

// ProductsBySlugs implements catalog.Repository. Results are keyed by the
// sorted slug set.
func (c *Cache) ProductsBySlugs(ctx context.Context, slugs []string) ([]catalog.Product, error) {
	known := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if c.mayExist(s) {
			known = append(known, s)
		}
	}
	if len(known) == 0 {
		return []catalog.Product{}, nil
	}

	return load(ctx, c, slugSetKey(known), func(ctx context.Context) ([]catalog.Product, error) {
		return c.next.ProductsBySlugs(ctx, known)
	})
}

// slugSetKey identifies the set of slugs. Each slug is length-prefixed, so
// no slug content can collide with another set.
func slugSetKey(slugs []string) string {
	set := slices.Clone(slugs)
	slices.Sort(set)
	set = slices.Compact(set)

	var sb strings.Builder
	sb.WriteString("slugs:")
	for _, s := range set {
		sb.WriteString(strconv.Itoa(len(s)))
		sb.WriteByte(':')
		sb.WriteString(s)
	}
	return sb.String()
}

// ProductSlugs implements catalog.Repository. A fresh upstream result also
// rebuilds the slug filter.
func (c *Cache) ProductSlugs(ctx context.Context) ([]string, error) {
	return load(ctx, c, "product-slugs", func(ctx context.Context) ([]string, error) {
		slugs, err := c.next.ProductSlugs(ctx)
		if err != nil {
			return nil, err
		}
		c.setSlugFilter(slugs)
		return slugs, nil
	})
}

// CategorySlugs implements catalog.Repository.
func (c *Cache) CategorySlugs(ctx context.Context) ([]string, error) {
	return load(ctx, c, "category-slugs", c.next.CategorySlugs)
}

// setSlugFilter rebuilds the filter from slugs. A list that reaches
// catalog.SlugListLimit may be truncated, so the filter is dropped instead.
func (c *Cache) setSlugFilter(slugs []string) {
	if len(slugs) >= catalog.SlugListLimit {
		c.mu.Lock()
		c.slugs = slugFilter{}
		c.mu.Unlock()

		c.lg.Debug("Product slug list may be truncated, slug filter disabled", zap.Int("slugs", len(slugs)))
		return
	}

	filter := bloom.NewWithEstimates(uint(max(len(slugs), slugFilterMinCapacity)), slugFilterFPR)
	for _, s := range slugs {
		filter.AddString(s)
	}

	c.mu.Lock()
	c.slugs = slugFilter{filter: filter, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	c.lg.Debug("Product slug filter rebuilt", zap.Int("slugs", len(slugs)))
}

// mayExist reports false only when a fresh slug filter rules slug out.
func (c *Cache) mayExist(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slugs.filter == nil || !c.now().Before(c.slugs.expires) {
		return true
	}
	return c.slugs.filter.TestString(slug)
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expires: c.now().Add(c.ttl)}
}

func load[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		return v.(T), nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached from the caller: other callers may be waiting on this
		// call after the first one gives up.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.lg.Debug("Shared upstream catalog call", zap.String("key", key))
		}
		return res.Val.(T), nil
	}
}
