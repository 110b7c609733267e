// Package pricing computes discounted prices shared by every cart and
// catalog view.
package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Price holds the result of applying a percentage discount to a base price.
type Price struct {
	// Discounted is the price after discount, rounded to whole currency units.
	Discounted decimal.Decimal
	// HasDiscount reports whether Pct is strictly positive.
	HasDiscount bool
	// Pct is the effective discount percentage (zero when none was given).
	Pct decimal.Decimal
}

// PriceWithDiscount applies discount (a percentage) to price.
//
// An invalid (absent) discount is treated as zero. Values outside 0–100 are
// passed through unchanged, so a negative discount raises the price.
// Rounding is half away from zero.
func PriceWithDiscount(price decimal.Decimal, discount decimal.NullDecimal) Price {
	pct := decimal.Zero
	if discount.Valid {
		pct = discount.Decimal
	}

	factor := one.Sub(pct.Div(hundred))
	return Price{
		Discounted:  price.Mul(factor).Round(0),
		HasDiscount: pct.IsPositive(),
		Pct:         pct,
	}
}

// Percent is a convenience constructor for a present discount value.
func Percent(pct int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(pct))
}

var printer = message.NewPrinter(language.English)

// Format renders amount in whole Pakistani rupees with thousands grouping,
// e.g. "Rs 12,500".
func Format(amount decimal.Decimal) string {
	units := amount.Round(0).IntPart()
	if units < 0 {
		return printer.Sprintf("-Rs %d", -units)
	}
	return printer.Sprintf("Rs %d", units)
}
