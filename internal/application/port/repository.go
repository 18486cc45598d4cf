package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// RulesRepository defines persistence operations for per-salon
// ApprovalRules. Rules are replaced, never deleted.
type RulesRepository interface {
	Get(ctx context.Context, salonID string) (*approval.Rules, error)
	Upsert(ctx context.Context, rules *approval.Rules) error
}

// LineItemRepository defines persistence operations for draft bill line
// items.
type LineItemRepository interface {
	Create(ctx context.Context, item *bill.LineItem) error
	GetByID(ctx context.Context, id int64) (*bill.LineItem, error)
	GetByBookingID(ctx context.Context, bookingID string) ([]*bill.LineItem, error)

	// ApplyOverride sets the override fields on a draft line item.
	ApplyOverride(ctx context.Context, id int64, price decimal.Decimal, reasonCode bill.ReasonCode, reasonText string) error
}

// OverrideRepository defines persistence operations for PriceOverride
// audit records. Records are write-once.
type OverrideRepository interface {
	Create(ctx context.Context, override *bill.PriceOverride) error
	GetByID(ctx context.Context, id string) (*bill.PriceOverride, error)
	ListByBookingID(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error)

	// SumDiscountsSince returns the total discount amount
	// (original - new, per unit) granted for a salon since the given
	// instant. Used to enforce the daily discount cap.
	SumDiscountsSince(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error)
}

// SuggestionRepository defines persistence operations for staff
// suggestions. Resolve and Expire are conditional updates: they succeed
// only if the row is still pending (and, for Resolve, unexpired) at the
// moment of the write, so two racing reviewers cannot both win.
type SuggestionRepository interface {
	Create(ctx context.Context, s *suggestion.StaffSuggestion) error
	GetByID(ctx context.Context, id string) (*suggestion.StaffSuggestion, error)
	List(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error)

	// Resolve transitions a pending, unexpired suggestion to the target
	// terminal status. Returns false when the row was no longer pending
	// or had passed its deadline.
	Resolve(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error)

	// Expire transitions a pending suggestion past its deadline to
	// expired. Returns false when the row was not pending-and-expired.
	Expire(ctx context.Context, id string, at time.Time) (bool, error)
}

// BillRepository defines persistence operations for finalized bills.
// Bills are write-once.
type BillRepository interface {
	Create(ctx context.Context, b *bill.Bill) error
	GetByID(ctx context.Context, id string) (*bill.Bill, error)
	ListByDay(ctx context.Context, salonID string, dayStart, dayEnd time.Time) ([]*bill.Bill, error)
}

// TransactionManager handles database transactions.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
