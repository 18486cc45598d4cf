package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/money"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// SubmitSuggestionInput carries a staff member's proposed discount,
// complimentary service or upgrade.
type SubmitSuggestionInput struct {
	SalonID        string
	BookingID      string
	StaffID        string
	Type           suggestion.Type
	OriginalPrice  decimal.Decimal
	SuggestedPrice decimal.Decimal
	Reason         string
}

// SuggestionService manages the staff suggestion lifecycle: submission,
// manager review, and lazy expiry.
type SuggestionService interface {
	Submit(ctx context.Context, in SubmitSuggestionInput) (*suggestion.StaffSuggestion, error)
	Approve(ctx context.Context, id, approverID string) (*suggestion.StaffSuggestion, error)
	Reject(ctx context.Context, id, approverID, rejectionReason string) (*suggestion.StaffSuggestion, error)
	Get(ctx context.Context, id string) (*suggestion.StaffSuggestion, error)
	List(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error)
}

type suggestionServiceImpl struct {
	rulesRepo      port.RulesRepository
	suggestionRepo port.SuggestionRepository
	notifier       port.Notifier
	logger         Logger
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(
	rulesRepo port.RulesRepository,
	suggestionRepo port.SuggestionRepository,
	notifier port.Notifier,
	logger Logger,
) SuggestionService {
	return &suggestionServiceImpl{
		rulesRepo:      rulesRepo,
		suggestionRepo: suggestionRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// Submit creates a pending suggestion with an expiry deadline taken from
// the salon's rules, and notifies managers that review is needed.
func (s *suggestionServiceImpl) Submit(ctx context.Context, in SubmitSuggestionInput) (*suggestion.StaffSuggestion, error) {
	rules, err := s.loadRules(ctx, in.SalonID)
	if err != nil {
		return nil, err
	}
	if !rules.AllowStaffSuggestions {
		return nil, suggestion.ErrSuggestionsDisabled
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, suggestion.ErrReasonRequired
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("suggestion type %q: %w", in.Type, money.ErrInvalidInput)
	}
	if in.SuggestedPrice.IsNegative() || in.SuggestedPrice.GreaterThan(in.OriginalPrice) {
		return nil, fmt.Errorf("suggested price %s: %w", in.SuggestedPrice, money.ErrInvalidInput)
	}

	now := time.Now()
	sug := &suggestion.StaffSuggestion{
		ID:              uuid.NewString(),
		SalonID:         in.SalonID,
		BookingID:       in.BookingID,
		StaffID:         in.StaffID,
		Type:            in.Type,
		OriginalPrice:   in.OriginalPrice,
		SuggestedPrice:  in.SuggestedPrice,
		DiscountPercent: money.RoundCurrency(money.DiscountPercent(in.OriginalPrice, in.SuggestedPrice)),
		Reason:          in.Reason,
		Status:          suggestion.StatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(rules.SuggestionExpiry()),
	}

	if err := s.suggestionRepo.Create(ctx, sug); err != nil {
		s.logger.Error("Failed to create suggestion", "error", err, "salon_id", in.SalonID)
		return nil, fmt.Errorf("create suggestion: %w", err)
	}

	s.notifier.SuggestionSubmitted(ctx, sug)

	s.logger.Info("Staff suggestion submitted",
		"suggestion_id", sug.ID,
		"salon_id", in.SalonID,
		"staff_id", in.StaffID,
		"type", sug.Type.String(),
		"expires_at", sug.ExpiresAt.Format(time.RFC3339),
	)
	return sug, nil
}

// Approve transitions a pending, unexpired suggestion to approved. A
// suggestion past its deadline is moved to expired instead and the call
// fails with ErrSuggestionExpired.
func (s *suggestionServiceImpl) Approve(ctx context.Context, id, approverID string) (*suggestion.StaffSuggestion, error) {
	return s.resolve(ctx, id, approverID, suggestion.StatusApproved, "")
}

// Reject transitions a pending, unexpired suggestion to rejected,
// recording the optional rejection reason.
func (s *suggestionServiceImpl) Reject(ctx context.Context, id, approverID, rejectionReason string) (*suggestion.StaffSuggestion, error) {
	return s.resolve(ctx, id, approverID, suggestion.StatusRejected, rejectionReason)
}

// resolve performs the terminal transition as a conditional update: the
// write succeeds only if the row is still pending and unexpired, so the
// loser of a review race observes AlreadyResolved or SuggestionExpired
// rather than silently overwriting the winner's decision.
func (s *suggestionServiceImpl) resolve(ctx context.Context, id, approverID string, to suggestion.Status, rejectionReason string) (*suggestion.StaffSuggestion, error) {
	sug, err := s.suggestionRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get suggestion", "error", err, "id", id)
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	if sug == nil {
		return nil, suggestion.ErrNotFound
	}

	now := time.Now()
	if sug.Status.IsTerminal() {
		return nil, suggestion.ErrAlreadyResolved
	}
	if sug.EffectiveStatus(now) == suggestion.StatusExpired {
		return nil, s.lazilyExpire(ctx, sug, now)
	}

	ok, err := s.suggestionRepo.Resolve(ctx, id, to, approverID, now, rejectionReason)
	if err != nil {
		s.logger.Error("Failed to resolve suggestion", "error", err, "id", id, "status", to.String())
		return nil, fmt.Errorf("resolve suggestion: %w", err)
	}
	if !ok {
		// Lost the race: re-read to tell expiry apart from a competing
		// reviewer's decision. A row that is still pending and inside
		// its window stays untouched; the update may have missed for a
		// reason other than expiry, such as clock skew.
		current, err := s.suggestionRepo.GetByID(ctx, id)
		if err == nil && current != nil &&
			current.EffectiveStatus(now) == suggestion.StatusExpired {
			return nil, s.lazilyExpire(ctx, current, now)
		}
		return nil, suggestion.ErrAlreadyResolved
	}

	sug.Status = to
	sug.ReviewedBy = approverID
	sug.ReviewedAt = &now
	sug.RejectionReason = rejectionReason

	s.notifier.SuggestionResolved(ctx, sug)

	s.logger.Info("Staff suggestion resolved",
		"suggestion_id", id,
		"status", to.String(),
		"reviewed_by", approverID,
	)
	return sug, nil
}

// lazilyExpire persists the expired status discovered during a read or
// review attempt and reports the expiry to the caller.
func (s *suggestionServiceImpl) lazilyExpire(ctx context.Context, sug *suggestion.StaffSuggestion, now time.Time) error {
	if _, err := s.suggestionRepo.Expire(ctx, sug.ID, now); err != nil {
		s.logger.Error("Failed to mark suggestion expired", "error", err, "id", sug.ID)
	}
	return suggestion.ErrSuggestionExpired
}

// Get retrieves a suggestion, presenting the virtual expired status when
// the deadline has passed.
func (s *suggestionServiceImpl) Get(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
	sug, err := s.suggestionRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get suggestion", "error", err, "id", id)
		return nil, err
	}
	if sug == nil {
		return nil, suggestion.ErrNotFound
	}
	sug.Status = sug.EffectiveStatus(time.Now())
	return sug, nil
}

// List retrieves suggestions for a salon (optionally scoped to one
// booking), presenting virtual expired statuses.
func (s *suggestionServiceImpl) List(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error) {
	suggestions, err := s.suggestionRepo.List(ctx, salonID, bookingID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list suggestions", "error", err, "salon_id", salonID)
		return nil, err
	}

	now := time.Now()
	for _, sug := range suggestions {
		sug.Status = sug.EffectiveStatus(now)
	}
	return suggestions, nil
}

func (s *suggestionServiceImpl) loadRules(ctx context.Context, salonID string) (*approval.Rules, error) {
	rules, err := s.rulesRepo.Get(ctx, salonID)
	if err != nil {
		s.logger.Error("Failed to load approval rules", "error", err, "salon_id", salonID)
		return nil, fmt.Errorf("get approval rules: %w", err)
	}
	if rules == nil {
		rules = approval.DefaultRules(salonID)
	}
	return rules, nil
}
