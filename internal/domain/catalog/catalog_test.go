package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

func TestProduct_Pricing(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(500), Discount: pricing.Percent(10)}

	got := p.Pricing()
	assert.Equal(t, "450", got.Discounted.String())
	assert.True(t, got.HasDiscount)

	p.Discount = decimal.NullDecimal{}
	got = p.Pricing()
	assert.Equal(t, "500", got.Discounted.String())
	assert.False(t, got.HasDiscount)
}

func TestProduct_ImageURL(t *testing.T) {
	assert.Empty(t, Product{}.ImageURL())
	assert.Equal(t, "a.jpg", Product{Images: []string{"a.jpg", "b.jpg"}}.ImageURL())
}
