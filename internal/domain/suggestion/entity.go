package suggestion

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type categorizes what the staff member is proposing.
type Type string

const (
	TypeDiscount      Type = "discount"
	TypeComplimentary Type = "complimentary"
	TypeUpgrade       Type = "upgrade"
	TypeCustom        Type = "custom"
)

var validTypes = map[Type]bool{
	TypeDiscount:      true,
	TypeComplimentary: true,
	TypeUpgrade:       true,
	TypeCustom:        true,
}

// IsValid returns true if the suggestion type is known.
func (t Type) IsValid() bool {
	return validTypes[t]
}

// String returns the string representation of the suggestion type.
func (t Type) String() string {
	return string(t)
}

// StaffSuggestion is a staff-proposed discount, complimentary service or
// upgrade awaiting manager review. Expiry is a data-driven deadline: the
// persisted status may still read pending after ExpiresAt, and readers
// derive the effective status instead of relying on a background sweep.
type StaffSuggestion struct {
	ID              string          `json:"id"`
	SalonID         string          `json:"salon_id"`
	BookingID       string          `json:"booking_id"`
	StaffID         string          `json:"staff_id"`
	Type            Type            `json:"suggestion_type"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	SuggestedPrice  decimal.Decimal `json:"suggested_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Reason          string          `json:"reason"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
	ReviewedBy      string          `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// EffectiveStatus resolves lazy expiry: a persisted pending suggestion
// whose deadline has passed reads as expired.
func (s *StaffSuggestion) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusPending && !now.Before(s.ExpiresAt) {
		return StatusExpired
	}
	return s.Status
}

// IsActionable returns true if the suggestion can still be approved or
// rejected at the given instant.
func (s *StaffSuggestion) IsActionable(now time.Time) bool {
	return s.EffectiveStatus(now) == StatusPending
}
