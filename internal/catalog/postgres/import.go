package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name, slug, description, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			thumbnail_url = EXCLUDED.thumbnail_url`

	upsertProductSQL = `INSERT INTO products (id, name, slug, price, discount, in_stock, description, category_id, images, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			price = EXCLUDED.price,
			discount = EXCLUDED.discount,
			in_stock = EXCLUDED.in_stock,
			description = EXCLUDED.description,
			category_id = EXCLUDED.category_id,
			images = EXCLUDED.images,
			featured = EXCLUDED.featured`
)

// ImportStats reports how many records an Import wrote.
type ImportStats struct {
	Categories int
	Products   int
}

// Import upserts categories and then products in a single transaction.
// Categories go first so product category references resolve.
func (r *Repository) Import(ctx context.Context, categories []catalog.Category, products []catalog.Product) (ImportStats, error) {
	var stats ImportStats
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range categories {
			batch.Queue(upsertCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.ThumbnailURL)
		}
		for _, p := range products {
			var categoryID *string
			if p.Category != nil && p.Category.ID != "" {
				categoryID = &p.Category.ID
			}
			images := p.Images
			if images == nil {
				images = []string{}
			}
			batch.Queue(upsertProductSQL,
				p.ID, p.Name, p.Slug, p.Price, nullDecimal(p.Discount), p.InStock,
				p.Description, categoryID, images, p.Featured,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				if i < len(categories) {
					return errors.Wrapf(err, "upsert category %q", categories[i].Slug)
				}
				return errors.Wrapf(err, "upsert product %q", products[i-len(categories)].Slug)
			}
		}
		return results.Close()
	})
	if err != nil {
		return stats, errors.Wrap(err, "import catalog")
	}

	stats.Categories = len(categories)
	stats.Products = len(products)
	return stats, nil
}

// nullDecimal passes an absent discount as SQL NULL.
func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}
