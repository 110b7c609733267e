// Package handler serves the storefront JSON API over net/http.
package handler

import (
	"net/http"
	"strings"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/order"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute URLs, as served by the CMS, are returned unchanged.
	ImageBaseURL string
}

// Handler serves catalog browsing and order placement, delegating to the
// catalog repository and the order service.
type Handler struct {
	catalog      catalog.Repository
	orders       *order.Service
	links        *order.LinkBuilder
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products catalog.Repository,
	orders *order.Service,
	links *order.LinkBuilder,
) *Handler {
	return &Handler{
		catalog:      products,
		orders:       orders,
		links:        links,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("GET /api/categories/{slug}", h.GetCategory)
	mux.HandleFunc("GET /api/products/featured", h.FeaturedProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.GetProduct)
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
}

// RouteName returns the registered pattern that serves r, for use as a
// low-cardinality metric and log label.
func RouteName(mux *http.ServeMux, r *http.Request) string {
	_, pattern := mux.Handler(r)
	return pattern
}

func (h *Handler) imageURL(u string) string {
	if h.imageBaseURL == "" || u == "" || strings.Contains(u, "://") {
		return u
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(u, "/")
}
