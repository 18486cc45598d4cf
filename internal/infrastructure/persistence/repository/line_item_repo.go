package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/bill"
)

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

const lineItemColumns = `
	id, booking_id, service_id, service_name, original_price,
	staff_id, quantity, override_price, override_reason_code, override_reason_text
`

// Create inserts a new draft line item and backfills its ID.
func (r *LineItemRepository) Create(ctx context.Context, item *bill.LineItem) error {
	query := `
		INSERT INTO bill_line_items (
			booking_id, service_id, service_name, original_price,
			staff_id, quantity
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		item.BookingID,
		item.ServiceID,
		item.ServiceName,
		item.OriginalPrice.String(),
		item.StaffID,
		item.Quantity,
	)
	if err != nil {
		r.logger.Error("Failed to create line item",
			zap.String("booking_id", item.BookingID),
			zap.String("service_id", item.ServiceID),
			zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetByID retrieves a line item by its ID
func (r *LineItemRepository) GetByID(ctx context.Context, id int64) (*bill.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM bill_line_items WHERE id = ?`

	item, err := scanLineItem(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get line item",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}

	return item, nil
}

// GetByBookingID retrieves all line items for a booking
func (r *LineItemRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*bill.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM bill_line_items WHERE booking_id = ? ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		r.logger.Error("Failed to get line items by booking",
			zap.String("booking_id", bookingID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*bill.LineItem
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// ApplyOverride sets the override fields on a draft line item.
func (r *LineItemRepository) ApplyOverride(ctx context.Context, id int64, price decimal.Decimal, reasonCode bill.ReasonCode, reasonText string) error {
	query := `
		UPDATE bill_line_items
		SET override_price = ?, override_reason_code = ?, override_reason_text = ?
		WHERE id = ?
	`

	var code sql.NullString
	if reasonCode != "" {
		code = sql.NullString{String: reasonCode.String(), Valid: true}
	}
	var text sql.NullString
	if reasonText != "" {
		text = sql.NullString{String: reasonText, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		price.String(), code, text, id)
	if err != nil {
		r.logger.Error("Failed to apply override to line item",
			zap.Int64("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to apply override: %w", err)
	}

	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLineItem(row rowScanner) (*bill.LineItem, error) {
	var item bill.LineItem
	var originalPrice string
	var overridePrice, overrideReasonCode, overrideReasonText sql.NullString

	err := row.Scan(
		&item.ID,
		&item.BookingID,
		&item.ServiceID,
		&item.ServiceName,
		&originalPrice,
		&item.StaffID,
		&item.Quantity,
		&overridePrice,
		&overrideReasonCode,
		&overrideReasonText,
	)
	if err != nil {
		return nil, err
	}

	if item.OriginalPrice, err = decimal.NewFromString(originalPrice); err != nil {
		return nil, fmt.Errorf("failed to parse original price: %w", err)
	}
	if overridePrice.Valid {
		p, err := decimal.NewFromString(overridePrice.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse override price: %w", err)
		}
		item.OverridePrice = &p
	}
	if overrideReasonCode.Valid {
		code := bill.ReasonCode(overrideReasonCode.String)
		item.OverrideReasonCode = &code
	}
	if overrideReasonText.Valid {
		item.OverrideReasonText = overrideReasonText.String
	}

	return &item, nil
}

// Verify interface compliance
var _ port.LineItemRepository = (*LineItemRepository)(nil)
