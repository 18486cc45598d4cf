package service

import (
	"context"
	"fmt"
	"time"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
)

// RulesService manages the per-salon discount governance configuration.
type RulesService interface {
	GetRules(ctx context.Context, salonID string) (*approval.Rules, error)
	UpdateRules(ctx context.Context, rules *approval.Rules) (*approval.Rules, error)
}

type rulesServiceImpl struct {
	rulesRepo port.RulesRepository
	logger    Logger
}

// NewRulesService creates a new RulesService.
func NewRulesService(rulesRepo port.RulesRepository, logger Logger) RulesService {
	return &rulesServiceImpl{
		rulesRepo: rulesRepo,
		logger:    logger,
	}
}

// GetRules returns the salon's rules, falling back to defaults when the
// salon has never configured any.
func (s *rulesServiceImpl) GetRules(ctx context.Context, salonID string) (*approval.Rules, error) {
	rules, err := s.rulesRepo.Get(ctx, salonID)
	if err != nil {
		s.logger.Error("Failed to get rules", "error", err, "salon_id", salonID)
		return nil, fmt.Errorf("get rules: %w", err)
	}
	if rules == nil {
		return approval.DefaultRules(salonID), nil
	}
	return rules, nil
}

// UpdateRules validates and replaces the salon's rules. Rules are never
// deleted, only replaced wholesale.
func (s *rulesServiceImpl) UpdateRules(ctx context.Context, rules *approval.Rules) (*approval.Rules, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	rules.UpdatedAt = time.Now()
	if err := s.rulesRepo.Upsert(ctx, rules); err != nil {
		s.logger.Error("Failed to update rules", "error", err, "salon_id", rules.SalonID)
		return nil, fmt.Errorf("upsert rules: %w", err)
	}

	s.logger.Info("Approval rules updated",
		"salon_id", rules.SalonID,
		"auto_threshold", rules.AutoApproveThreshold.String(),
		"manager_threshold", rules.ManagerApprovalThreshold.String(),
		"owner_threshold", rules.OwnerApprovalThreshold.String(),
	)
	return rules, nil
}
