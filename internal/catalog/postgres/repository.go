package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
)

const productColumns = `p.id, p.name, p.slug, p.price, p.discount, p.in_stock, p.description,
		c.id, c.name, c.slug, p.images, p.featured`

const (
	listCategoriesSQL = `SELECT id, name, slug, description, thumbnail_url
		FROM categories ORDER BY created_at, id LIMIT 100`

	getCategoryBySlugSQL = `SELECT id, name, slug, description, thumbnail_url
		FROM categories WHERE slug = $1`

	listFeaturedSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.featured ORDER BY p.created_at, p.id LIMIT 24`

	listByCategorySQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE c.slug = $1 ORDER BY p.created_at, p.id LIMIT 200`

	getProductBySlugSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1`

	getProductsBySlugsSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = ANY($1) ORDER BY p.created_at, p.id LIMIT 200`

	listProductSlugsSQL  = `SELECT slug FROM products ORDER BY created_at, id LIMIT $1`
	listCategorySlugsSQL = `SELECT slug FROM categories ORDER BY created_at, id LIMIT $1`
)

var _ catalog.Repository = (*Repository)(nil)

// Repository implements catalog.Repository backed by PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository that uses the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Categories returns up to 100 categories in insertion order.
func (r *Repository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, scanCategory)
}

// FeaturedProducts returns up to 24 featured products.
func (r *Repository) FeaturedProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listFeaturedSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list featured products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ProductsByCategory returns the products of a category and the category
// itself, which is nil when the slug is unknown.
func (r *Repository) ProductsByCategory(ctx context.Context, slug string) ([]catalog.Product, *catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryBySlugSQL, slug)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "get category %q", slug)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return []catalog.Product{}, nil, nil
	case err != nil:
		return nil, nil, errors.Wrapf(err, "get category %q", slug)
	}

	rows, err = r.pool.Query(ctx, listByCategorySQL, slug)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "list products of %q", slug)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "list products of %q", slug)
	}
	return products, &c, nil
}

// ProductBySlug returns a single product or catalog.ErrNotFound.
func (r *Repository) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductBySlugSQL, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", slug)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", slug)
	}
	return &p, nil
}

// ProductsBySlugs returns products matching any of the given slugs.
func (r *Repository) ProductsBySlugs(ctx context.Context, slugs []string) ([]catalog.Product, error) {
	if len(slugs) == 0 {
		return []catalog.Product{}, nil
	}
	rows, err := r.pool.Query(ctx, getProductsBySlugsSQL, slugs)
	if err != nil {
		return nil, errors.Wrap(err, "get products by slugs")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ProductSlugs returns up to catalog.SlugListLimit product slugs.
func (r *Repository) ProductSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listProductSlugsSQL, catalog.SlugListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list product slugs")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CategorySlugs returns up to catalog.SlugListLimit category slugs.
func (r *Repository) CategorySlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategorySlugsSQL, catalog.SlugListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list category slugs")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ThumbnailURL)
	return c, err
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p                       catalog.Product
		price                   decimal.Decimal
		discount                decimal.NullDecimal
		catID, catName, catSlug *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &price, &discount, &p.InStock, &p.Description,
		&catID, &catName, &catSlug, &p.Images, &p.Featured,
	)
	if err != nil {
		return p, err
	}
	p.Price = price
	p.Discount = discount
	if catID != nil {
		p.Category = &catalog.CategoryRef{ID: *catID, Name: deref(catName), Slug: deref(catSlug)}
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
