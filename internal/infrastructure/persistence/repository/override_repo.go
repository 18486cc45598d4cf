package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
)

// PriceOverrideRepository implements port.OverrideRepository
type PriceOverrideRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPriceOverrideRepository creates a new price override repository
func NewPriceOverrideRepository(db *sql.DB, logger *zap.Logger) port.OverrideRepository {
	return &PriceOverrideRepository{
		db:     db,
		logger: logger,
	}
}

const overrideColumns = `
	id, salon_id, booking_id, service_id, original_price, new_price, quantity,
	discount_percent, tier, reason_code, reason_text, approved_by, approved_at
`

// Create inserts a write-once override audit record.
func (r *PriceOverrideRepository) Create(ctx context.Context, override *bill.PriceOverride) error {
	query := `
		INSERT INTO price_overrides (` + overrideColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reasonText sql.NullString
	if override.ReasonText != "" {
		reasonText = sql.NullString{String: override.ReasonText, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		override.ID,
		override.SalonID,
		override.BookingID,
		override.ServiceID,
		override.OriginalPrice.String(),
		override.NewPrice.String(),
		override.Quantity,
		override.DiscountPercent.String(),
		override.Tier.String(),
		override.ReasonCode.String(),
		reasonText,
		override.ApprovedBy,
		override.ApprovedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create price override",
			zap.String("id", override.ID),
			zap.String("booking_id", override.BookingID),
			zap.Error(err))
		return fmt.Errorf("failed to create price override: %w", err)
	}

	return nil
}

// GetByID retrieves an override by its ID
func (r *PriceOverrideRepository) GetByID(ctx context.Context, id string) (*bill.PriceOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM price_overrides WHERE id = ?`

	override, err := scanOverride(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get price override",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get price override: %w", err)
	}

	return override, nil
}

// ListByBookingID retrieves the override audit trail for a booking
func (r *PriceOverrideRepository) ListByBookingID(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM price_overrides WHERE booking_id = ? ORDER BY approved_at`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		r.logger.Error("Failed to list price overrides",
			zap.String("booking_id", bookingID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list price overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*bill.PriceOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price override: %w", err)
		}
		overrides = append(overrides, override)
	}

	return overrides, rows.Err()
}

// SumDiscountsSince totals the discount granted for a salon since the
// given instant, weighting each record by its line quantity. Prices are
// stored as decimal strings, so the sum is computed here rather than in
// SQL to avoid float coercion.
func (r *PriceOverrideRepository) SumDiscountsSince(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT original_price, new_price, quantity
		FROM price_overrides
		WHERE salon_id = ? AND approved_at >= ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, salonID, since)
	if err != nil {
		r.logger.Error("Failed to sum daily discounts",
			zap.String("salon_id", salonID),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum daily discounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var originalStr, newStr string
		var quantity int64
		if err := rows.Scan(&originalStr, &newStr, &quantity); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan override prices: %w", err)
		}
		original, err := decimal.NewFromString(originalStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse original price: %w", err)
		}
		newPrice, err := decimal.NewFromString(newStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse new price: %w", err)
		}
		total = total.Add(original.Sub(newPrice).Mul(decimal.NewFromInt(quantity)))
	}

	return total, rows.Err()
}

func scanOverride(row rowScanner) (*bill.PriceOverride, error) {
	var override bill.PriceOverride
	var originalPrice, newPrice, discountPercent, tier, reasonCode string
	var reasonText sql.NullString

	err := row.Scan(
		&override.ID,
		&override.SalonID,
		&override.BookingID,
		&override.ServiceID,
		&originalPrice,
		&newPrice,
		&override.Quantity,
		&discountPercent,
		&tier,
		&reasonCode,
		&reasonText,
		&override.ApprovedBy,
		&override.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}

	if override.OriginalPrice, err = decimal.NewFromString(originalPrice); err != nil {
		return nil, fmt.Errorf("failed to parse original price: %w", err)
	}
	if override.NewPrice, err = decimal.NewFromString(newPrice); err != nil {
		return nil, fmt.Errorf("failed to parse new price: %w", err)
	}
	if override.DiscountPercent, err = decimal.NewFromString(discountPercent); err != nil {
		return nil, fmt.Errorf("failed to parse discount percent: %w", err)
	}
	override.Tier = approval.Tier(tier)
	override.ReasonCode = bill.ReasonCode(reasonCode)
	if reasonText.Valid {
		override.ReasonText = reasonText.String
	}

	return &override, nil
}

// Verify interface compliance
var _ port.OverrideRepository = (*PriceOverrideRepository)(nil)
