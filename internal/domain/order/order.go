// Package order turns a cart into a prefilled chat message for the shop's
// messaging number. No order is stored: the message is the order.
package order

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/xenking/zm-storefront/internal/domain/cart"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

// Defaults used when LinkConfig leaves a field empty.
const (
	DefaultBaseURL     = "https://wa.me"
	DefaultDestination = "923062464217"
	DefaultSiteURL     = "https://zm-gadgets.com"
)

// LinkConfig configures a LinkBuilder.
type LinkConfig struct {
	// BaseURL is the click-to-chat service, e.g. https://wa.me.
	BaseURL string
	// Destination is the phone number (digits only) receiving the message.
	Destination string
	// SiteURL is the public storefront origin used for product page links.
	SiteURL string
}

// LinkBuilder renders order messages and deep links. The zero value is not
// usable; create one with NewLinkBuilder.
type LinkBuilder struct {
	base    string
	dest    string
	siteURL string
}

// NewLinkBuilder creates a LinkBuilder, filling empty fields with defaults.
func NewLinkBuilder(cfg LinkConfig) *LinkBuilder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	return &LinkBuilder{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		dest:    cfg.Destination,
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
	}
}

// CartText renders the order summary for items. Each line shows the
// discounted unit price; the total is the sum of discounted subtotals.
func (b *LinkBuilder) CartText(items []cart.LineItem) string {
	var sb strings.Builder
	sb.WriteString("Hi! I want to place an order:\n\n")
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("• ")
		sb.WriteString(item.Name)
		sb.WriteString(" - ")
		sb.WriteString(pricing.Format(item.Pricing().Discounted))
		sb.WriteString(" x ")
		sb.WriteString(strconv.Itoa(item.Quantity))
	}
	sb.WriteString("\n\n*Total: ")
	sb.WriteString(pricing.Format(cart.Summarize(items).Price))
	sb.WriteString("*\n\nPlease confirm availability and delivery details.")
	return sb.String()
}

// CartLink returns the deep link that opens a chat prefilled with CartText.
func (b *LinkBuilder) CartLink(items []cart.LineItem) string {
	return b.link(b.CartText(items))
}

// ProductText renders an enquiry about a single product.
func (b *LinkBuilder) ProductText(p catalog.Product) string {
	var sb strings.Builder
	sb.WriteString("Hi! I'm interested in this product:\n\n*")
	sb.WriteString(p.Name)
	sb.WriteString("*\nPrice: ")
	sb.WriteString(pricing.Format(p.Pricing().Discounted))
	sb.WriteString("\n\nProduct Link: ")
	sb.WriteString(b.ProductURL(p.Slug))
	sb.WriteString("\n\nCan you provide more details?")
	return sb.String()
}

// ProductLink returns the deep link that opens a chat prefilled with
// ProductText.
func (b *LinkBuilder) ProductLink(p catalog.Product) string {
	return b.link(b.ProductText(p))
}

// ProductURL returns the public page of the product with the given slug.
func (b *LinkBuilder) ProductURL(slug string) string {
	return b.siteURL + "/product/" + url.PathEscape(slug)
}

func (b *LinkBuilder) link(text string) string {
	return b.base + "/" + b.dest + "?text=" + EncodeComponent(text)
}

// componentUnescape restores the characters encodeURIComponent leaves alone
// but url.QueryEscape escapes, and writes spaces as %20 instead of '+'.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s the way browsers' encodeURIComponent
// does, for use as a query value.
func EncodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
