// Package cart implements the shopping cart: an insertion-ordered list of
// line items keyed by product slug, persisted to a key-value Storage after
// every change.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "zm-cart"

// ErrNoValue is returned by Storage.Get when nothing is stored under the key.
var ErrNoValue = errors.New("no value stored")

// Item describes a product as it is added to the cart.
type Item struct {
	// Key is the product slug; unique across the cart.
	Key       string
	CatalogID string
	Name      string
	UnitPrice decimal.Decimal
	Discount  decimal.NullDecimal
	ImageURL  string
}

// Pricing returns the unit price with the item's discount applied.
func (i Item) Pricing() pricing.Price {
	return pricing.PriceWithDiscount(i.UnitPrice, i.Discount)
}

// LineItem is one distinct product in the cart and its quantity.
type LineItem struct {
	Item
	Quantity int
}

// Subtotal returns the discounted unit price multiplied by the quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Pricing().Discounted.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are derived from the cart contents and never stored.
type Totals struct {
	Quantity int
	Price    decimal.Decimal
}

// Summarize computes the total quantity and discounted total price of items.
func Summarize(items []LineItem) Totals {
	t := Totals{Price: decimal.Zero}
	for _, item := range items {
		t.Quantity += item.Quantity
		t.Price = t.Price.Add(item.Subtotal())
	}
	return t
}

// ItemFromProduct builds a cart item from a catalog product.
func ItemFromProduct(p catalog.Product) Item {
	return Item{
		Key:       p.Slug,
		CatalogID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Discount:  p.Discount,
		ImageURL:  p.ImageURL(),
	}
}

// Storage is a durable key-value store holding the serialized cart.
type Storage interface {
	// Get returns the value stored under key, or ErrNoValue.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
