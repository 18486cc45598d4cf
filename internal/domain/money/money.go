// Package money provides currency rounding, GST and discount arithmetic
// for the billing core. All monetary values are decimal to avoid the
// floating-point drift that accumulates across repeated percentage math.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a monetary computation receives a
// malformed numeric input.
var ErrInvalidInput = errors.New("invalid monetary input")

// CurrencyPlaces is the number of decimal places in the smallest tenant
// currency unit.
const CurrencyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
)

// RoundCurrency rounds to the smallest currency unit using half-up
// rounding. Every computed monetary value must pass through here before
// it is exposed.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// ComputeGST returns the rounded GST amount for the given taxable base.
// Fails with ErrInvalidInput when base is negative or gstPercent falls
// outside [0, 100].
func ComputeGST(base, gstPercent decimal.Decimal) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, ErrInvalidInput
	}
	if gstPercent.IsNegative() || gstPercent.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidInput
	}
	return RoundCurrency(base.Mul(gstPercent).Div(hundred)), nil
}

// DiscountPercent returns the raw (unrounded) discount percentage implied
// by discounting original down to discounted, clamped to [0, 100].
// Returns zero when original is not positive, so callers never divide by
// zero.
func DiscountPercent(original, discounted decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() {
		return decimal.Zero
	}
	pct := original.Sub(discounted).Div(original).Mul(hundred)
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// PercentOf returns the rounded value of pct percent of amount.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundCurrency(amount.Mul(pct).Div(hundred))
}
