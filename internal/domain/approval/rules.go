// Package approval holds the per-salon discount governance rules and the
// tier classifier that decides which level of authorization a discount
// requires.
package approval

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rules is the per-salon discount governance configuration. Rules are
// owned by the salon, mutated only through the administrative update
// operation, and replaced rather than deleted.
type Rules struct {
	SalonID                   string          `json:"salon_id"`
	AutoApproveThreshold      decimal.Decimal `json:"auto_approve_threshold"`
	ManagerApprovalThreshold  decimal.Decimal `json:"manager_approval_threshold"`
	OwnerApprovalThreshold    decimal.Decimal `json:"owner_approval_threshold"`
	MaxDiscountPerDay         decimal.Decimal `json:"max_discount_per_day"`
	RequireReasonForDiscount  bool            `json:"require_reason_for_discount"`
	AllowStaffSuggestions     bool            `json:"allow_staff_suggestions"`
	SuggestionExpiryMinutes   int             `json:"suggestion_expiry_minutes"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

// DefaultRules returns the rules a salon starts with before an owner has
// configured anything.
func DefaultRules(salonID string) *Rules {
	return &Rules{
		SalonID:                  salonID,
		AutoApproveThreshold:     decimal.NewFromInt(10),
		ManagerApprovalThreshold: decimal.NewFromInt(25),
		OwnerApprovalThreshold:   decimal.NewFromInt(50),
		MaxDiscountPerDay:        decimal.NewFromInt(5000),
		RequireReasonForDiscount: true,
		AllowStaffSuggestions:    true,
		SuggestionExpiryMinutes:  60,
	}
}

// SuggestionExpiry returns the validity window for staff suggestions.
func (r *Rules) SuggestionExpiry() time.Duration {
	return time.Duration(r.SuggestionExpiryMinutes) * time.Minute
}

// Validate checks the threshold ordering invariant
// 0 <= auto < manager < owner <= 100 and the remaining field bounds.
func (r *Rules) Validate() error {
	zero := decimal.Zero
	hundred := decimal.NewFromInt(100)

	if r.AutoApproveThreshold.LessThan(zero) {
		return fmt.Errorf("auto_approve_threshold must not be negative")
	}
	if !r.AutoApproveThreshold.LessThan(r.ManagerApprovalThreshold) {
		return fmt.Errorf("manager_approval_threshold must be greater than auto_approve_threshold")
	}
	if !r.ManagerApprovalThreshold.LessThan(r.OwnerApprovalThreshold) {
		return fmt.Errorf("owner_approval_threshold must be greater than manager_approval_threshold")
	}
	if r.OwnerApprovalThreshold.GreaterThan(hundred) {
		return fmt.Errorf("owner_approval_threshold must not exceed 100")
	}
	if r.MaxDiscountPerDay.IsNegative() {
		return fmt.Errorf("max_discount_per_day must not be negative")
	}
	if r.SuggestionExpiryMinutes < 1 {
		return fmt.Errorf("suggestion_expiry_minutes must be at least 1")
	}
	return nil
}
