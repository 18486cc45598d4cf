// Package bill contains the billing entities and the final bill
// computation. Bills and price overrides are write-once audit records;
// re-billing requires a new bill.
package bill

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/domain/approval"
)

// PaymentMethod is how a bill was settled.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentCash:   true,
	PaymentCard:   true,
	PaymentUPI:    true,
	PaymentWallet: true,
}

// IsValid returns true if the payment method is known.
func (p PaymentMethod) IsValid() bool {
	return validPaymentMethods[p]
}

// String returns the string representation of the payment method.
func (p PaymentMethod) String() string {
	return string(p)
}

// ReasonCode categorizes why a price override was granted.
type ReasonCode string

const (
	ReasonLoyalty         ReasonCode = "loyalty"
	ReasonServiceRecovery ReasonCode = "service_recovery"
	ReasonPromotion       ReasonCode = "promotion"
	ReasonStaffSuggestion ReasonCode = "staff_suggestion"
	ReasonPriceMatch      ReasonCode = "price_match"
	ReasonCustom          ReasonCode = "custom"
)

var validReasonCodes = map[ReasonCode]bool{
	ReasonLoyalty:         true,
	ReasonServiceRecovery: true,
	ReasonPromotion:       true,
	ReasonStaffSuggestion: true,
	ReasonPriceMatch:      true,
	ReasonCustom:          true,
}

// IsValid returns true if the reason code is known.
func (r ReasonCode) IsValid() bool {
	return validReasonCodes[r]
}

// String returns the string representation of the reason code.
func (r ReasonCode) String() string {
	return string(r)
}

// LineItem is a single service on a draft bill. An override, once
// applied, lowers the effective price; the original price is kept for
// the audit trail.
type LineItem struct {
	ID                 int64            `json:"id"`
	BookingID          string           `json:"booking_id"`
	ServiceID          string           `json:"service_id"`
	ServiceName        string           `json:"service_name"`
	OriginalPrice      decimal.Decimal  `json:"original_price"`
	StaffID            string           `json:"staff_id"`
	Quantity           int              `json:"quantity"`
	OverridePrice      *decimal.Decimal `json:"override_price,omitempty"`
	OverrideReasonCode *ReasonCode      `json:"override_reason_code,omitempty"`
	OverrideReasonText string           `json:"override_reason_text,omitempty"`
}

// EffectivePrice returns the override price when one is applied,
// otherwise the original price.
func (li *LineItem) EffectivePrice() decimal.Decimal {
	if li.OverridePrice != nil {
		return *li.OverridePrice
	}
	return li.OriginalPrice
}

// PriceOverride is the immutable audit record persisted for every
// successful price change. The tier at approval time is carried so the
// audit trail shows which authorization level signed off.
type PriceOverride struct {
	ID              string          `json:"id"`
	SalonID         string          `json:"salon_id"`
	BookingID       string          `json:"booking_id"`
	ServiceID       string          `json:"service_id"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	NewPrice        decimal.Decimal `json:"new_price"`
	// Quantity is copied from the line item so the record carries the
	// full economic value of the grant, not the per-unit discount.
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Tier            approval.Tier   `json:"tier"`
	ReasonCode      ReasonCode      `json:"reason_code"`
	ReasonText      string          `json:"reason_text,omitempty"`
	ApprovedBy      string          `json:"approved_by"`
	ApprovedAt      time.Time       `json:"approved_at"`
}

// Bill is a finalized, write-once bill.
type Bill struct {
	ID                        string          `json:"id"`
	SalonID                   string          `json:"salon_id"`
	BookingID                 string          `json:"booking_id"`
	LineItems                 []LineItem      `json:"line_items"`
	MembershipDiscountPercent decimal.Decimal `json:"membership_discount_percent"`
	ManualAdjustment          decimal.Decimal `json:"manual_adjustment"`
	PaymentMethod             PaymentMethod   `json:"payment_method"`
	AmountReceived            decimal.Decimal `json:"amount_received"`
	Subtotal                  decimal.Decimal `json:"subtotal"`
	MembershipDiscountAmount  decimal.Decimal `json:"membership_discount_amount"`
	GSTPercent                decimal.Decimal `json:"gst_percent"`
	GSTAmount                 decimal.Decimal `json:"gst_amount"`
	GrandTotal                decimal.Decimal `json:"grand_total"`
	ChangeDue                 decimal.Decimal `json:"change_due"`
	LoyaltyPointsEarned       int64           `json:"loyalty_points_earned"`
	Warnings                  []Warning       `json:"warnings,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
}
