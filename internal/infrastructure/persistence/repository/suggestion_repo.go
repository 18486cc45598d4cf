package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// StaffSuggestionRepository implements port.SuggestionRepository
type StaffSuggestionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStaffSuggestionRepository creates a new staff suggestion repository
func NewStaffSuggestionRepository(db *sql.DB, logger *zap.Logger) port.SuggestionRepository {
	return &StaffSuggestionRepository{
		db:     db,
		logger: logger,
	}
}

const suggestionColumns = `
	id, salon_id, booking_id, staff_id, type, original_price,
	suggested_price, discount_percent, reason, status,
	reviewed_by, reviewed_at, rejection_reason, created_at, expires_at
`

// Create inserts a new pending suggestion.
func (r *StaffSuggestionRepository) Create(ctx context.Context, s *suggestion.StaffSuggestion) error {
	query := `
		INSERT INTO staff_suggestions (` + suggestionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reviewedBy, rejectionReason sql.NullString
	var reviewedAt sql.NullTime
	if s.ReviewedBy != "" {
		reviewedBy = sql.NullString{String: s.ReviewedBy, Valid: true}
	}
	if s.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: *s.ReviewedAt, Valid: true}
	}
	if s.RejectionReason != "" {
		rejectionReason = sql.NullString{String: s.RejectionReason, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.SalonID,
		s.BookingID,
		s.StaffID,
		s.Type.String(),
		s.OriginalPrice.String(),
		s.SuggestedPrice.String(),
		s.DiscountPercent.String(),
		s.Reason,
		s.Status.String(),
		reviewedBy,
		reviewedAt,
		rejectionReason,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("Failed to create staff suggestion",
			zap.String("id", s.ID),
			zap.String("salon_id", s.SalonID),
			zap.Error(err))
		return fmt.Errorf("failed to create staff suggestion: %w", err)
	}

	return nil
}

// GetByID retrieves a suggestion by its ID
func (r *StaffSuggestionRepository) GetByID(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM staff_suggestions WHERE id = ?`

	s, err := scanSuggestion(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get staff suggestion",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get staff suggestion: %w", err)
	}

	return s, nil
}

// List retrieves suggestions for a salon, newest first, optionally
// scoped to one booking.
func (r *StaffSuggestionRepository) List(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM staff_suggestions WHERE salon_id = ?`
	args := []interface{}{salonID}
	if bookingID != "" {
		query += ` AND booking_id = ?`
		args = append(args, bookingID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list staff suggestions",
			zap.String("salon_id", salonID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list staff suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*suggestion.StaffSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, rows.Err()
}

// Resolve transitions a pending, unexpired suggestion to the target
// terminal status. The WHERE clause is the concurrency gate: only one
// of two racing reviewers can match the pending row.
func (r *StaffSuggestionRepository) Resolve(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error) {
	query := `
		UPDATE staff_suggestions
		SET status = ?, reviewed_by = ?, reviewed_at = ?, rejection_reason = ?
		WHERE id = ? AND status = ? AND expires_at > ?
	`

	var reason sql.NullString
	if rejectionReason != "" {
		reason = sql.NullString{String: rejectionReason, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		to.String(), reviewedBy, reviewedAt, reason,
		id, suggestion.StatusPending.String(), reviewedAt,
	)
	if err != nil {
		r.logger.Error("Failed to resolve staff suggestion",
			zap.String("id", id),
			zap.String("status", to.String()),
			zap.Error(err))
		return false, fmt.Errorf("failed to resolve staff suggestion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// Expire transitions a pending suggestion past its deadline to expired.
func (r *StaffSuggestionRepository) Expire(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE staff_suggestions
		SET status = ?
		WHERE id = ? AND status = ? AND expires_at <= ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		suggestion.StatusExpired.String(), id, suggestion.StatusPending.String(), at,
	)
	if err != nil {
		r.logger.Error("Failed to expire staff suggestion",
			zap.String("id", id),
			zap.Error(err))
		return false, fmt.Errorf("failed to expire staff suggestion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func scanSuggestion(row rowScanner) (*suggestion.StaffSuggestion, error) {
	var s suggestion.StaffSuggestion
	var sugType, status, originalPrice, suggestedPrice, discountPercent string
	var reviewedBy, rejectionReason sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.SalonID,
		&s.BookingID,
		&s.StaffID,
		&sugType,
		&originalPrice,
		&suggestedPrice,
		&discountPercent,
		&s.Reason,
		&status,
		&reviewedBy,
		&reviewedAt,
		&rejectionReason,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	s.Type = suggestion.Type(sugType)
	s.Status = suggestion.Status(status)
	if s.OriginalPrice, err = decimal.NewFromString(originalPrice); err != nil {
		return nil, fmt.Errorf("failed to parse original price: %w", err)
	}
	if s.SuggestedPrice, err = decimal.NewFromString(suggestedPrice); err != nil {
		return nil, fmt.Errorf("failed to parse suggested price: %w", err)
	}
	if s.DiscountPercent, err = decimal.NewFromString(discountPercent); err != nil {
		return nil, fmt.Errorf("failed to parse discount percent: %w", err)
	}
	if reviewedBy.Valid {
		s.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		s.ReviewedAt = &t
	}
	if rejectionReason.Valid {
		s.RejectionReason = rejectionReason.String
	}

	return &s, nil
}

// Verify interface compliance
var _ port.SuggestionRepository = (*StaffSuggestionRepository)(nil)
