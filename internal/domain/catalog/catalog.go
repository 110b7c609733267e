// Package catalog defines the storefront's category and product records and
// the read-only repository that supplies them.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// SlugListLimit caps ProductSlugs and CategorySlugs. A result of this length
// may be truncated.
const SlugListLimit = 1000

// Category groups products for browsing.
type Category struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	ThumbnailURL string
}

// CategoryRef is the short category reference embedded in a product.
type CategoryRef struct {
	ID   string
	Name string
	Slug string
}

// Product is a sellable catalog item. Slug is unique across the catalog and
// is the identity used by the cart.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Price       decimal.Decimal
	Discount    decimal.NullDecimal
	InStock     bool
	Description string
	Category    *CategoryRef
	Images      []string
	Featured    bool
}

// Pricing returns the product price with its discount applied.
func (p Product) Pricing() pricing.Price {
	return pricing.PriceWithDiscount(p.Price, p.Discount)
}

// ImageURL returns the first product image, or an empty string.
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Repository defines read operations for the catalog.
type Repository interface {
	Categories(ctx context.Context) ([]Category, error)
	FeaturedProducts(ctx context.Context) ([]Product, error)
	// ProductsByCategory returns the products of a category together with the
	// category itself. The category is nil when the slug is unknown.
	ProductsByCategory(ctx context.Context, slug string) ([]Product, *Category, error)
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	ProductsBySlugs(ctx context.Context, slugs []string) ([]Product, error)
	// ProductSlugs and CategorySlugs return at most SlugListLimit slugs.
	ProductSlugs(ctx context.Context) ([]string, error)
	CategorySlugs(ctx context.Context) ([]string, error)
}
