package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/catalog/catalogjson"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
	"github.com/xenking/zm-storefront/pkg/jxutil"
)

// ListCategories returns every category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeInternalError(w, r, "List categories failed", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			c.ThumbnailURL = h.imageURL(c.ThumbnailURL)
			catalogjson.EncodeCategory(e, c)
		}
		e.ArrEnd()
	})
}

// GetCategory returns a category and its products. An unknown slug yields a
// null category with no products. Upstream failures still answer with an
// empty result set so pages can render.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	products, category, err := h.catalog.ProductsByCategory(r.Context(), slug)
	if err != nil {
		zctx.From(r.Context()).Error("Fetch category failed", zap.String("slug", slug), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, func(e *jx.Encoder) {
			e.ObjStart()
			errorFields(e, http.StatusInternalServerError, "failed to fetch category data")
			e.FieldStart("category")
			e.Null()
			e.FieldStart("products")
			e.ArrStart()
			e.ArrEnd()
			e.ObjEnd()
		})
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("category")
		if category != nil {
			c := *category
			c.ThumbnailURL = h.imageURL(c.ThumbnailURL)
			catalogjson.EncodeCategory(e, c)
		} else {
			e.Null()
		}
		e.FieldStart("products")
		h.encodeProducts(e, products)
		e.ObjEnd()
	})
}

// FeaturedProducts returns the featured products.
func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context())
	if err != nil {
		writeInternalError(w, r, "List featured products failed", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProducts(e, products)
	})
}

// GetProduct returns a single product with its pricing, page URL and order
// link.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	p, err := h.catalog.ProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, "Get product failed", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		h.encodeProductFields(e, *p)
		e.FieldStart("url")
		e.Str(h.links.ProductURL(p.Slug))
		e.FieldStart("orderLink")
		e.Str(h.links.ProductLink(*p))
		e.ObjEnd()
	})
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []catalog.Product) {
	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		h.encodeProductFields(e, p)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func (h *Handler) encodeProductFields(e *jx.Encoder, p catalog.Product) {
	if len(p.Images) > 0 {
		images := make([]string, len(p.Images))
		for i, u := range p.Images {
			images[i] = h.imageURL(u)
		}
		p.Images = images
	}
	catalogjson.EncodeProductFields(e, p)
	e.FieldStart("pricing")
	encodePricing(e, p.Pricing())
}

func encodePricing(e *jx.Encoder, price pricing.Price) {
	e.ObjStart()
	e.FieldStart("discounted")
	jxutil.Decimal(e, price.Discounted)
	e.FieldStart("hasDiscount")
	e.Bool(price.HasDiscount)
	e.FieldStart("pct")
	jxutil.Decimal(e, price.Pct)
	e.FieldStart("formatted")
	e.Str(pricing.Format(price.Discounted))
	e.ObjEnd()
}
