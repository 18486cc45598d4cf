package approval

import "github.com/shopspring/decimal"

// Tier is the approval level a discount percentage falls into.
type Tier string

const (
	TierNone    Tier = "none"
	TierAuto    Tier = "auto"
	TierManager Tier = "manager"
	TierOwner   Tier = "owner"
)

var tierRanks = map[Tier]int{
	TierNone:    0,
	TierAuto:    1,
	TierManager: 2,
	TierOwner:   3,
}

// Rank returns the ordering of the tier; higher rank means a more senior
// approver is needed.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// IsValid returns true if the tier is a known approval tier.
func (t Tier) IsValid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Decision is the outcome of classifying a discount against the rules.
type Decision struct {
	Tier          Tier `json:"tier"`
	NeedsApproval bool `json:"needs_approval"`
}

// Classify places a discount percentage into an approval tier. It is a
// pure, total function: every input yields a decision, never an error.
//
// Boundaries are inclusive at each threshold, so a discount exactly equal
// to a threshold belongs to the lower tier. A misplaced boundary here has
// direct financial impact, so the comparison direction must not change.
func Classify(discountPercent decimal.Decimal, rules *Rules) Decision {
	switch {
	case !discountPercent.IsPositive():
		return Decision{Tier: TierNone, NeedsApproval: false}
	case !discountPercent.GreaterThan(rules.AutoApproveThreshold):
		return Decision{Tier: TierAuto, NeedsApproval: false}
	case !discountPercent.GreaterThan(rules.ManagerApprovalThreshold):
		return Decision{Tier: TierManager, NeedsApproval: true}
	default:
		return Decision{Tier: TierOwner, NeedsApproval: true}
	}
}
