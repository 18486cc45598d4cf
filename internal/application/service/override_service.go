package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/money"
)

// RequestOverrideInput carries a front-desk price change request for a
// single draft line item.
type RequestOverrideInput struct {
	SalonID    string
	LineItemID int64
	NewPrice   decimal.Decimal
	ReasonCode bill.ReasonCode
	ReasonText string
	// PIN is the raw operator input; non-digits are stripped before the
	// format check.
	PIN string
}

// OverrideService validates and records bill-time price changes,
// enforcing the approval policy and the PIN authorization gate.
type OverrideService interface {
	RequestOverride(ctx context.Context, in RequestOverrideInput) (*bill.PriceOverride, error)
	GetOverride(ctx context.Context, id string) (*bill.PriceOverride, error)
	ListOverrides(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error)
}

type overrideServiceImpl struct {
	rulesRepo    port.RulesRepository
	lineItemRepo port.LineItemRepository
	overrideRepo port.OverrideRepository
	authorizer   port.Authorizer
	txManager    port.TransactionManager
	logger       Logger
}

// NewOverrideService creates a new OverrideService.
func NewOverrideService(
	rulesRepo port.RulesRepository,
	lineItemRepo port.LineItemRepository,
	overrideRepo port.OverrideRepository,
	authorizer port.Authorizer,
	txManager port.TransactionManager,
	logger Logger,
) OverrideService {
	return &overrideServiceImpl{
		rulesRepo:    rulesRepo,
		lineItemRepo: lineItemRepo,
		overrideRepo: overrideRepo,
		authorizer:   authorizer,
		txManager:    txManager,
		logger:       logger,
	}
}

// minCustomReasonLength is the friction control against one-word excuses
// for ad-hoc discounts.
const minCustomReasonLength = 10

// RequestOverride validates the request in order (price bound, tier
// classification, reason, authorization, daily cap) and, on success,
// persists the PriceOverride audit record and applies the new price to
// the line item in one transaction. Validation failures leave no side
// effects.
func (s *overrideServiceImpl) RequestOverride(ctx context.Context, in RequestOverrideInput) (*bill.PriceOverride, error) {
	item, err := s.lineItemRepo.GetByID(ctx, in.LineItemID)
	if err != nil {
		s.logger.Error("Failed to load line item", "error", err, "line_item_id", in.LineItemID)
		return nil, fmt.Errorf("get line item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("line item %d: %w", in.LineItemID, money.ErrInvalidInput)
	}

	if in.NewPrice.IsNegative() || in.NewPrice.GreaterThan(item.OriginalPrice) {
		return nil, bill.ErrInvalidPrice
	}

	rules, err := s.loadRules(ctx, in.SalonID)
	if err != nil {
		return nil, err
	}

	discountPercent := money.DiscountPercent(item.OriginalPrice, in.NewPrice)
	decision := approval.Classify(discountPercent, rules)

	if err := s.validateReason(in, rules, discountPercent); err != nil {
		return nil, err
	}

	approvedBy := item.StaffID
	if decision.NeedsApproval {
		pin, ok := approval.NormalizePIN(in.PIN)
		if !ok {
			return nil, approval.ErrAuthorizationRequired
		}
		approvedBy, err = s.authorizer.Authorize(ctx, in.SalonID, pin, decision.Tier)
		if err != nil {
			s.logger.Info("Override authorization refused",
				"salon_id", in.SalonID, "line_item_id", in.LineItemID, "tier", decision.Tier.String())
			return nil, err
		}
	}

	if err := s.checkDailyLimit(ctx, in.SalonID, rules, item, in.NewPrice); err != nil {
		return nil, err
	}

	override := &bill.PriceOverride{
		ID:              uuid.NewString(),
		SalonID:         in.SalonID,
		BookingID:       item.BookingID,
		ServiceID:       item.ServiceID,
		OriginalPrice:   item.OriginalPrice,
		NewPrice:        in.NewPrice,
		Quantity:        item.Quantity,
		DiscountPercent: money.RoundCurrency(discountPercent),
		Tier:            decision.Tier,
		ReasonCode:      in.ReasonCode,
		ReasonText:      in.ReasonText,
		ApprovedBy:      approvedBy,
		ApprovedAt:      time.Now(),
	}

	// Audit record and line item update land together or not at all.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.overrideRepo.Create(txCtx, override); err != nil {
			return fmt.Errorf("create override record: %w", err)
		}
		if err := s.lineItemRepo.ApplyOverride(txCtx, item.ID, in.NewPrice, in.ReasonCode, in.ReasonText); err != nil {
			return fmt.Errorf("apply override to line item: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record override", "error", err, "line_item_id", in.LineItemID)
		return nil, err
	}

	s.logger.Info("Price override recorded",
		"override_id", override.ID,
		"salon_id", in.SalonID,
		"service_id", item.ServiceID,
		"discount_percent", override.DiscountPercent.String(),
		"tier", decision.Tier.String(),
	)
	return override, nil
}

// GetOverride retrieves a single override audit record.
func (s *overrideServiceImpl) GetOverride(ctx context.Context, id string) (*bill.PriceOverride, error) {
	override, err := s.overrideRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get override", "error", err, "id", id)
		return nil, err
	}
	return override, nil
}

// ListOverrides retrieves the override audit trail for a booking.
func (s *overrideServiceImpl) ListOverrides(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error) {
	overrides, err := s.overrideRepo.ListByBookingID(ctx, bookingID)
	if err != nil {
		s.logger.Error("Failed to list overrides", "error", err, "booking_id", bookingID)
		return nil, err
	}
	return overrides, nil
}

func (s *overrideServiceImpl) loadRules(ctx context.Context, salonID string) (*approval.Rules, error) {
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

func (s *overrideServiceImpl) validateReason(in RequestOverrideInput, rules *approval.Rules, discountPercent decimal.Decimal) error {
	if in.ReasonCode != "" && !in.ReasonCode.IsValid() {
		return fmt.Errorf("reason code %q: %w", in.ReasonCode, money.ErrInvalidInput)
	}
	if rules.RequireReasonForDiscount && discountPercent.IsPositive() && in.ReasonCode == "" {
		return bill.ErrReasonRequired
	}
	if in.ReasonCode == bill.ReasonCustom && len(in.ReasonText) < minCustomReasonLength {
		return bill.ErrReasonRequired
	}
	return nil
}

func (s *overrideServiceImpl) checkDailyLimit(ctx context.Context, salonID string, rules *approval.Rules, item *bill.LineItem, newPrice decimal.Decimal) error {
	if !rules.MaxDiscountPerDay.IsPositive() {
		return nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	granted, err := s.overrideRepo.SumDiscountsSince(ctx, salonID, dayStart)
	if err != nil {
		s.logger.Error("Failed to sum daily discounts", "error", err, "salon_id", salonID)
		return fmt.Errorf("sum daily discounts: %w", err)
	}

	requested := item.OriginalPrice.Sub(newPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
	if granted.Add(requested).GreaterThan(rules.MaxDiscountPerDay) {
		s.logger.Info("Daily discount cap reached",
			"salon_id", salonID,
			"granted", granted.String(),
			"requested", requested.String(),
			"cap", rules.MaxDiscountPerDay.String(),
		)
		return bill.ErrDailyLimitExceeded
	}
	return nil
}
