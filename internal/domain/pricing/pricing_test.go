package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceWithDiscount(t *testing.T) {
	tests := []struct {
		name        string
		price       int64
		discount    decimal.NullDecimal
		discounted  int64
		hasDiscount bool
		pct         int64
	}{
		{name: "twenty percent", price: 1000, discount: Percent(20), discounted: 800, hasDiscount: true, pct: 20},
		{name: "zero discount", price: 1000, discount: Percent(0), discounted: 1000, pct: 0},
		{name: "absent discount", price: 1000, discount: decimal.NullDecimal{}, discounted: 1000, pct: 0},
		{name: "rounds to whole units", price: 999, discount: Percent(33), discounted: 669, hasDiscount: true, pct: 33},
		{name: "ten percent of 500", price: 500, discount: Percent(10), discounted: 450, hasDiscount: true, pct: 10},
		{name: "full discount", price: 750, discount: Percent(100), discounted: 0, hasDiscount: true, pct: 100},
		{name: "negative discount passes through", price: 1000, discount: Percent(-10), discounted: 1100, pct: -10},
		{name: "over one hundred passes through", price: 1000, discount: Percent(150), discounted: -500, hasDiscount: true, pct: 150},
		{name: "negative price propagates", price: -200, discount: Percent(50), discounted: -100, hasDiscount: true, pct: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceWithDiscount(decimal.NewFromInt(tt.price), tt.discount)

			assert.True(t, decimal.NewFromInt(tt.discounted).Equal(got.Discounted),
				"discounted: want %d, got %s", tt.discounted, got.Discounted)
			assert.Equal(t, tt.hasDiscount, got.HasDiscount)
			assert.True(t, decimal.NewFromInt(tt.pct).Equal(got.Pct), "pct: got %s", got.Pct)
		})
	}
}

func TestPriceWithDiscount_HalfRoundsAwayFromZero(t *testing.T) {
	// 5 * 0.9 = 4.5
	got := PriceWithDiscount(decimal.NewFromInt(5), Percent(10))
	assert.Equal(t, "5", got.Discounted.String())

	// 15 * 0.5 = 7.5
	got = PriceWithDiscount(decimal.NewFromInt(15), Percent(50))
	assert.Equal(t, "8", got.Discounted.String())
}

func TestPriceWithDiscount_FractionalPercent(t *testing.T) {
	pct := decimal.NewNullDecimal(decimal.RequireFromString("12.5"))
	got := PriceWithDiscount(decimal.NewFromInt(1000), pct)

	assert.Equal(t, "875", got.Discounted.String())
	assert.True(t, got.HasDiscount)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Rs 0", Format(decimal.Zero))
	assert.Equal(t, "Rs 999", Format(decimal.NewFromInt(999)))
	assert.Equal(t, "Rs 12,500", Format(decimal.NewFromInt(12500)))
	assert.Equal(t, "Rs 1,234,567", Format(decimal.NewFromInt(1234567)))
	assert.Equal(t, "-Rs 2,000", Format(decimal.NewFromInt(-2000)))
	assert.Equal(t, "Rs 451", Format(decimal.RequireFromString("450.5")))
}
