package bill

import (
	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/domain/money"
)

// Warning flags an unusual but non-fatal condition observed while
// finalizing a bill.
type Warning string

// WarningNegativeTotalClamped is raised when discounts and adjustments
// push the grand total below zero and it is clamped to zero instead of
// failing the bill.
const WarningNegativeTotalClamped Warning = "negative_total_clamped"

// FinalizeInput carries everything needed to compute a bill.
type FinalizeInput struct {
	LineItems                 []LineItem
	MembershipDiscountPercent decimal.Decimal
	ManualAdjustment          decimal.Decimal
	GSTPercent                decimal.Decimal
	PaymentMethod             PaymentMethod
	AmountReceived            decimal.Decimal
	// LoyaltyRupeesPerPoint is the currency amount that earns one loyalty
	// point. Zero falls back to the default of 10.
	LoyaltyRupeesPerPoint decimal.Decimal
}

// Totals is the computed monetary breakdown of a finalized bill.
type Totals struct {
	Subtotal                 decimal.Decimal
	MembershipDiscountAmount decimal.Decimal
	TaxableBase              decimal.Decimal
	GSTAmount                decimal.Decimal
	GrandTotal               decimal.Decimal
	ChangeDue                decimal.Decimal
	LoyaltyPointsEarned      int64
	Warnings                 []Warning
}

var defaultLoyaltyDivisor = decimal.NewFromInt(10)

// Finalize computes the full monetary breakdown of a bill: subtotal over
// effective line prices, membership discount before tax, GST on the
// discounted base, manual adjustment, change due and loyalty points.
//
// The grand total is clamped at zero (with a warning) rather than going
// negative. Finalizing with amountReceived below the grand total fails
// with ErrInsufficientPayment; the UI blocks this earlier, but the
// aggregator enforces it because it is reachable from non-UI paths.
func Finalize(in FinalizeInput) (*Totals, error) {
	if len(in.LineItems) == 0 {
		return nil, money.ErrInvalidInput
	}
	if !in.PaymentMethod.IsValid() {
		return nil, money.ErrInvalidInput
	}
	hundred := decimal.NewFromInt(100)
	if in.MembershipDiscountPercent.IsNegative() || in.MembershipDiscountPercent.GreaterThan(hundred) {
		return nil, money.ErrInvalidInput
	}

	subtotal := decimal.Zero
	for i := range in.LineItems {
		item := &in.LineItems[i]
		if item.Quantity < 1 || item.OriginalPrice.IsNegative() {
			return nil, money.ErrInvalidInput
		}
		subtotal = subtotal.Add(item.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = money.RoundCurrency(subtotal)

	membershipDiscount := money.PercentOf(subtotal, in.MembershipDiscountPercent)
	taxableBase := subtotal.Sub(membershipDiscount)

	gstAmount, err := money.ComputeGST(taxableBase, in.GSTPercent)
	if err != nil {
		return nil, err
	}

	totals := &Totals{
		Subtotal:                 subtotal,
		MembershipDiscountAmount: membershipDiscount,
		TaxableBase:              taxableBase,
		GSTAmount:                gstAmount,
	}

	grandTotal := money.RoundCurrency(taxableBase.Add(gstAmount).Add(in.ManualAdjustment))
	if grandTotal.IsNegative() {
		grandTotal = decimal.Zero
		totals.Warnings = append(totals.Warnings, WarningNegativeTotalClamped)
	}
	totals.GrandTotal = grandTotal

	if in.AmountReceived.LessThan(grandTotal) {
		return nil, ErrInsufficientPayment
	}

	changeDue := money.RoundCurrency(in.AmountReceived.Sub(grandTotal))
	if changeDue.IsNegative() {
		changeDue = decimal.Zero
	}
	totals.ChangeDue = changeDue

	divisor := in.LoyaltyRupeesPerPoint
	if !divisor.IsPositive() {
		divisor = defaultLoyaltyDivisor
	}
	// Floor, never round: partial points are not granted.
	totals.LoyaltyPointsEarned = grandTotal.Div(divisor).Floor().IntPart()

	return totals, nil
}
