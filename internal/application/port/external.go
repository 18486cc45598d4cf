package port

import (
	"context"

	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// Authorizer verifies an authorization PIN against stored credentials and
// checks that its holder covers the required approval tier. The billing
// core only validates PIN format; verification lives behind this port.
type Authorizer interface {
	// Authorize returns the staff ID of the principal the PIN belongs to,
	// or approval.ErrAuthorizationRequired when the PIN is unknown or the
	// principal's role is below the required tier.
	Authorize(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error)
}

// Notifier informs managers of pending suggestions and staff of review
// outcomes. Fire-and-forget: delivery failures must never fail the
// triggering operation.
type Notifier interface {
	SuggestionSubmitted(ctx context.Context, s *suggestion.StaffSuggestion)
	SuggestionResolved(ctx context.Context, s *suggestion.StaffSuggestion)
}
