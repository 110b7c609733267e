package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/zm-storefront/internal/domain/cart"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
)

// Sentinel errors for order validation.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	Slug string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Slug)
}

// InvalidQuantityError indicates a line item quantity is not positive or,
// summed over repeated slugs, exceeds cart.MaxQuantity.
type InvalidQuantityError struct {
	Slug string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %s", cart.MaxQuantity, e.Slug)
}

// OrderItem is a product reference and quantity as submitted by a client.
type OrderItem struct {
	Slug     string
	Quantity int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items []OrderItem
}

// PlaceOrderResult holds the re-priced cart and its order link.
type PlaceOrderResult struct {
	Items  []cart.LineItem
	Totals cart.Totals
	Link   string
	Text   string
}

// Service re-prices client carts against the catalog and builds order links.
type Service struct {
	products catalog.Repository
	links    *LinkBuilder
	placed   metric.Int64Counter
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the meter provider used for order metrics.
func WithMeterProvider(mp metric.MeterProvider) ServiceOption {
	return func(o *serviceOptions) { o.meterProvider = mp }
}

// NewService creates an order Service.
func NewService(products catalog.Repository, links *LinkBuilder, opts ...ServiceOption) (*Service, error) {
	o := serviceOptions{meterProvider: noop.NewMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	placed, err := o.meterProvider.Meter("storefront/order").Int64Counter(
		"storefront.orders.links",
		metric.WithDescription("Order links built"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}

	return &Service{
		products: products,
		links:    links,
		placed:   placed,
	}, nil
}

// PlaceOrder validates items, fetches the referenced products in a single
// batch and returns the priced cart with its deep link. Repeated slugs are
// merged into their first occurrence.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and collect slugs in first-seen order.
	quantities := make(map[string]int, len(req.Items))
	slugs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Quantity > cart.MaxQuantity {
			return nil, &InvalidQuantityError{Slug: item.Slug}
		}
		q, ok := quantities[item.Slug]
		if !ok {
			slugs = append(slugs, item.Slug)
		}
		if q > cart.MaxQuantity-item.Quantity {
			return nil, &InvalidQuantityError{Slug: item.Slug}
		}
		quantities[item.Slug] = q + item.Quantity
	}

	fetched, err := s.products.ProductsBySlugs(ctx, slugs)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	bySlug := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		bySlug[p.Slug] = p
	}

	items := make([]cart.LineItem, 0, len(slugs))
	for _, slug := range slugs {
		p, ok := bySlug[slug]
		if !ok {
			return nil, &ProductNotFoundError{Slug: slug}
		}
		items = append(items, cart.LineItem{
			Item:     cart.ItemFromProduct(p),
			Quantity: quantities[slug],
		})
	}

	text := s.links.CartText(items)
	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.Int("items", len(items))))

	return &PlaceOrderResult{
		Items:  items,
		Totals: cart.Summarize(items),
		Link:   s.links.link(text),
		Text:   text,
	}, nil
}
