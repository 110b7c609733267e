package catalogjson

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

const productJSON = `{
	"id": "101",
	"name": "Wireless Earbuds",
	"slug": "wireless-earbuds",
	"price": 4999,
	"discount": 15,
	"stockstatus": true,
	"description": "Bluetooth 5.3",
	"category": {"id": "7", "name": "Audio", "slug": "audio"},
	"images": [{"url": "https://cdn/a.jpg"}, {"url": "https://cdn/b.jpg"}],
	"featured": true,
	"_unknown": {"nested": [1, 2, 3]}
}`

func TestDecodeProduct(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(productJSON))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "101", p.ID)
	assert.Equal(t, "wireless-earbuds", p.Slug)
	assert.True(t, decimal.NewFromInt(4999).Equal(p.Price))
	require.True(t, p.Discount.Valid)
	assert.Equal(t, "15", p.Discount.Decimal.String())
	assert.True(t, p.InStock)
	require.NotNil(t, p.Category)
	assert.Equal(t, "audio", p.Category.Slug)
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, p.Images)
	assert.True(t, p.Featured)
}

func TestDecodeProduct_CoercesNulls(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(`{
		"id": "1", "name": "Cable", "slug": "cable",
		"price": null, "discount": null, "stockstatus": null,
		"description": null, "category": null, "images": null, "featured": null
	}`))
	require.NoError(t, err)

	assert.True(t, p.Price.IsZero())
	assert.False(t, p.Discount.Valid)
	assert.False(t, p.InStock)
	assert.Empty(t, p.Description)
	assert.Nil(t, p.Category)
	assert.Empty(t, p.Images)
	assert.False(t, p.Featured)
}

func TestDecodeProduct_Null(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDecodeProducts_SkipsNulls(t *testing.T) {
	ps, err := DecodeProducts(jx.DecodeStr(`[{"slug":"a"}, null, {"slug":"b"}]`))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "a", ps[0].Slug)
	assert.Equal(t, "b", ps[1].Slug)
}

func TestDecodeCategories(t *testing.T) {
	cs, err := DecodeCategories(jx.DecodeStr(`[
		{"id":"1","name":"Audio","slug":"audio","description":null,"thumbnail":{"url":"https://cdn/t.png"}},
		{"id":"2","name":"Power","slug":"power","thumbnail":null}
	]`))
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "https://cdn/t.png", cs[0].ThumbnailURL)
	assert.Empty(t, cs[1].ThumbnailURL)
}

func TestDecodeSlugs(t *testing.T) {
	slugs, err := DecodeSlugs(jx.DecodeStr(`[{"slug":"a"},{"slug":null},{"slug":"c","x":1}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, slugs)
}

func TestDecodeProduct_RejectsWrongTypes(t *testing.T) {
	_, err := DecodeProduct(jx.DecodeStr(`{"slug": 12}`))
	require.Error(t, err)

	_, err = DecodeProduct(jx.DecodeStr(`{"price": "cheap"}`))
	require.Error(t, err)
}

func TestProductRoundTrip(t *testing.T) {
	in := catalog.Product{
		ID:          "9",
		Name:        "Smart Watch",
		Slug:        "smart-watch",
		Price:       decimal.NewFromInt(12000),
		Discount:    pricing.Percent(25),
		InStock:     true,
		Description: "AMOLED",
		Category:    &catalog.CategoryRef{ID: "3", Name: "Wearables", Slug: "wearables"},
		Images:      []string{"https://cdn/w.jpg"},
		Featured:    true,
	}

	var e jx.Encoder
	EncodeProduct(&e, in)

	out, err := DecodeProduct(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, in.Slug, out.Slug)
	assert.True(t, in.Price.Equal(out.Price))
	assert.True(t, in.Discount.Decimal.Equal(out.Discount.Decimal))
	assert.Equal(t, in.Category, out.Category)
	assert.Equal(t, in.Images, out.Images)
	assert.Equal(t, in.InStock, out.InStock)
}

func TestCategoryRoundTrip(t *testing.T) {
	in := catalog.Category{ID: "1", Name: "Audio", Slug: "audio", Description: "Sound", ThumbnailURL: "https://cdn/t.png"}

	var e jx.Encoder
	EncodeCategory(&e, in)

	out, err := DecodeCategory(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestDecodeExport(t *testing.T) {
	e, err := DecodeExport(jx.DecodeStr(`{
		"version": 2,
		"categories": [{"id": "7", "name": "Audio", "slug": "audio"}],
		"products": [` + productJSON + `, null]
	}`))
	require.NoError(t, err)
	require.Len(t, e.Categories, 1)
	require.Len(t, e.Products, 1)
	assert.Equal(t, "audio", e.Categories[0].Slug)
	assert.Equal(t, "wireless-earbuds", e.Products[0].Slug)
}

func TestDecodeExport_CMSQueryShape(t *testing.T) {
	e, err := DecodeExport(jx.DecodeStr(`{"allProducts": [` + productJSON + `]}`))
	require.NoError(t, err)
	assert.Empty(t, e.Categories)
	assert.Len(t, e.Products, 1)
}

func TestDecodeExport_Invalid(t *testing.T) {
	_, err := DecodeExport(jx.DecodeStr(`{"products": {"id": "1"}}`))
	require.Error(t, err)
}
