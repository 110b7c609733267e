// Package datocms reads the catalog from the DatoCMS Content Delivery API.
package datocms

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/zm-storefront/internal/catalog/catalogjson"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
)

// DefaultEndpoint is the public GraphQL endpoint.
const DefaultEndpoint = "https://graphql.datocms.com/"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	Endpoint string
	// Token is a read-only API token sent as a bearer credential.
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the instrumented default client.
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.TracerProvider == nil {
		o.TracerProvider = tracenoop.NewTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = metricnoop.NewMeterProvider()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: o.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(o.TracerProvider),
				otelhttp.WithMeterProvider(o.MeterProvider),
			),
		}
	}
}

// Client implements catalog.Repository on top of the GraphQL API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	tracer   trace.Tracer
}

var _ catalog.Repository = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	opts.setDefaults()
	return &Client{
		endpoint: opts.Endpoint,
		token:    opts.Token,
		http:     opts.HTTPClient,
		tracer:   opts.TracerProvider.Tracer("storefront/datocms"),
	}
}

// dataFunc decodes one top-level field of the response "data" object.
type dataFunc func(d *jx.Decoder, field string) error

func (c *Client) query(ctx context.Context, name, query string, vars func(e *jx.Encoder), fn dataFunc) (rerr error) {
	ctx, span := c.tracer.Start(ctx, "datocms."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graphql.operation.name", name)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("query")
	e.Str(query)
	if vars != nil {
		e.FieldStart("variables")
		e.ObjStart()
		vars(&e)
		e.ObjEnd()
	}
	e.ObjEnd()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Errorf("datocms request failed: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	return decodeResponse(jx.DecodeBytes(body), fn)
}

// decodeResponse reads a GraphQL response envelope. Reported errors take
// precedence over data; a response without data is an error.
func decodeResponse(d *jx.Decoder, fn dataFunc) error {
	var (
		hasData  bool
		messages []string
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			hasData = true
			return d.ObjBytes(func(d *jx.Decoder, field []byte) error {
				return fn(d, string(field))
			})
		case "errors":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					if string(key) != "message" {
						return d.Skip()
					}
					msg, err := d.Str()
					if err != nil {
						return err
					}
					messages = append(messages, msg)
					return nil
				})
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return errors.Wrap(err, "decode response")
	}
	if len(messages) > 0 {
		return errors.New(strings.Join(messages, "; "))
	}
	if !hasData {
		return errors.New("datocms returned no data")
	}
	return nil
}

func slugVar(slug string) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.FieldStart("slug")
		e.Str(slug)
	}
}

// Categories returns up to 100 categories.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	out := []catalog.Category{}
	err := c.query(ctx, "Categories", queryCategories, nil, func(d *jx.Decoder, field string) error {
		if field != "allCategories" {
			return d.Skip()
		}
		var err error
		out, err = catalogjson.DecodeCategories(d)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	return out, nil
}

// FeaturedProducts returns up to 24 products flagged as featured.
func (c *Client) FeaturedProducts(ctx context.Context) ([]catalog.Product, error) {
	out, err := c.products(ctx, "FeaturedProducts", queryFeaturedProducts, nil)
	if err != nil {
		return nil, errors.Wrap(err, "query featured products")
	}
	return out, nil
}

// ProductsByCategory returns up to 200 products of the category with the
// given slug, and the category itself (nil when unknown).
func (c *Client) ProductsByCategory(ctx context.Context, slug string) ([]catalog.Product, *catalog.Category, error) {
	var (
		products = []catalog.Product{}
		category *catalog.Category
	)
	err := c.query(ctx, "ProductsByCategory", queryProductsByCategory, slugVar(slug), func(d *jx.Decoder, field string) error {
		var err error
		switch field {
		case "allProducts":
			products, err = catalogjson.DecodeProducts(d)
		case "category":
			category, err = catalogjson.DecodeCategory(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "query products by category %q", slug)
	}
	return products, category, nil
}

// ProductBySlug returns the product with the given slug or
// catalog.ErrNotFound.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var p *catalog.Product
	err := c.query(ctx, "ProductBySlug", queryProductBySlug, slugVar(slug), func(d *jx.Decoder, field string) error {
		if field != "product" {
			return d.Skip()
		}
		var err error
		p, err = catalogjson.DecodeProduct(d)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "query product %q", slug)
	}
	if p == nil {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

// ProductsBySlugs returns the products matching slugs, at most 200. Unknown
// slugs are absent from the result.
func (c *Client) ProductsBySlugs(ctx context.Context, slugs []string) ([]catalog.Product, error) {
	if len(slugs) == 0 {
		return []catalog.Product{}, nil
	}
	out, err := c.products(ctx, "ProductsBySlugs", queryProductsBySlugs, func(e *jx.Encoder) {
		e.FieldStart("slugs")
		e.ArrStart()
		for _, s := range slugs {
			e.Str(s)
		}
		e.ArrEnd()
	})
	if err != nil {
		return nil, errors.Wrap(err, "query products by slugs")
	}
	return out, nil
}

// ProductSlugs returns the slugs of up to catalog.SlugListLimit products.
func (c *Client) ProductSlugs(ctx context.Context) ([]string, error) {
	out, err := c.slugs(ctx, "AllProductSlugs", queryProductSlugs, "allProducts")
	if err != nil {
		return nil, errors.Wrap(err, "query product slugs")
	}
	return out, nil
}

// CategorySlugs returns the slugs of up to catalog.SlugListLimit categories.
func (c *Client) CategorySlugs(ctx context.Context) ([]string, error) {
	out, err := c.slugs(ctx, "AllCategorySlugs", queryCategorySlugs, "allCategories")
	if err != nil {
		return nil, errors.Wrap(err, "query category slugs")
	}
	return out, nil
}

func (c *Client) products(ctx context.Context, name, query string, vars func(e *jx.Encoder)) ([]catalog.Product, error) {
	out := []catalog.Product{}
	err := c.query(ctx, name, query, vars, func(d *jx.Decoder, field string) error {
		if field != "allProducts" {
			return d.Skip()
		}
		var err error
		out, err = catalogjson.DecodeProducts(d)
		return err
	})
	return out, err
}

func (c *Client) slugs(ctx context.Context, name, query, field string) ([]string, error) {
	out := []string{}
	first := func(e *jx.Encoder) {
		e.FieldStart("first")
		e.Int(catalog.SlugListLimit)
	}
	err := c.query(ctx, name, query, first, func(d *jx.Decoder, f string) error {
		if f != field {
			return d.Skip()
		}
		var err error
		out, err = catalogjson.DecodeSlugs(d)
		return err
	})
	return out, err
}
