package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/infrastructure/persistence/sqlite"
)

// ApprovalRulesRepository implements port.RulesRepository
type ApprovalRulesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRulesRepository creates a new approval rules repository
func NewApprovalRulesRepository(db *sql.DB, logger *zap.Logger) port.RulesRepository {
	return &ApprovalRulesRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the rules for a salon. Returns nil when the salon has
// never configured any.
func (r *ApprovalRulesRepository) Get(ctx context.Context, salonID string) (*approval.Rules, error) {
	query := `
		SELECT salon_id, auto_approve_threshold, manager_approval_threshold,
			owner_approval_threshold, max_discount_per_day,
			require_reason_for_discount, allow_staff_suggestions,
			suggestion_expiry_minutes, updated_at
		FROM approval_rules
		WHERE salon_id = ?
	`

	var rules approval.Rules
	var autoThreshold, managerThreshold, ownerThreshold, maxPerDay string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, salonID).Scan(
		&rules.SalonID,
		&autoThreshold,
		&managerThreshold,
		&ownerThreshold,
		&maxPerDay,
		&rules.RequireReasonForDiscount,
		&rules.AllowStaffSuggestions,
		&rules.SuggestionExpiryMinutes,
		&rules.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval rules",
			zap.String("salon_id", salonID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval rules: %w", err)
	}

	if rules.AutoApproveThreshold, err = decimal.NewFromString(autoThreshold); err != nil {
		return nil, fmt.Errorf("failed to parse auto threshold: %w", err)
	}
	if rules.ManagerApprovalThreshold, err = decimal.NewFromString(managerThreshold); err != nil {
		return nil, fmt.Errorf("failed to parse manager threshold: %w", err)
	}
	if rules.OwnerApprovalThreshold, err = decimal.NewFromString(ownerThreshold); err != nil {
		return nil, fmt.Errorf("failed to parse owner threshold: %w", err)
	}
	if rules.MaxDiscountPerDay, err = decimal.NewFromString(maxPerDay); err != nil {
		return nil, fmt.Errorf("failed to parse daily cap: %w", err)
	}

	return &rules, nil
}

// Upsert replaces the salon's rules wholesale.
func (r *ApprovalRulesRepository) Upsert(ctx context.Context, rules *approval.Rules) error {
	query := `
		INSERT INTO approval_rules (
			salon_id, auto_approve_threshold, manager_approval_threshold,
			owner_approval_threshold, max_discount_per_day,
			require_reason_for_discount, allow_staff_suggestions,
			suggestion_expiry_minutes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(salon_id) DO UPDATE SET
			auto_approve_threshold = excluded.auto_approve_threshold,
			manager_approval_threshold = excluded.manager_approval_threshold,
			owner_approval_threshold = excluded.owner_approval_threshold,
			max_discount_per_day = excluded.max_discount_per_day,
			require_reason_for_discount = excluded.require_reason_for_discount,
			allow_staff_suggestions = excluded.allow_staff_suggestions,
			suggestion_expiry_minutes = excluded.suggestion_expiry_minutes,
			updated_at = excluded.updated_at
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rules.SalonID,
		rules.AutoApproveThreshold.String(),
		rules.ManagerApprovalThreshold.String(),
		rules.OwnerApprovalThreshold.String(),
		rules.MaxDiscountPerDay.String(),
		rules.RequireReasonForDiscount,
		rules.AllowStaffSuggestions,
		rules.SuggestionExpiryMinutes,
		rules.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert approval rules",
			zap.String("salon_id", rules.SalonID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert approval rules: %w", err)
	}

	return nil
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the enclosing transaction when one is in the
// context, otherwise the database handle.
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return db
}

// Verify interface compliance
var _ port.RulesRepository = (*ApprovalRulesRepository)(nil)
