package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/bill"
)

// BillRepository implements port.BillRepository
type BillRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *sql.DB, logger *zap.Logger) port.BillRepository {
	return &BillRepository{
		db:     db,
		logger: logger,
	}
}

const billColumns = `
	id, salon_id, booking_id, membership_discount_percent, manual_adjustment,
	payment_method, amount_received, subtotal, membership_discount_amount,
	gst_percent, gst_amount, grand_total, change_due, loyalty_points_earned,
	warnings, created_at
`

// Create inserts a finalized, write-once bill. The line item snapshot
// is stored as JSON so the bill stays readable even if the draft rows
// change later.
func (r *BillRepository) Create(ctx context.Context, b *bill.Bill) error {
	query := `
		INSERT INTO bills (` + billColumns + `, line_items)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	lineItems, err := json.Marshal(b.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	var warnings sql.NullString
	if len(b.Warnings) > 0 {
		data, err := json.Marshal(b.Warnings)
		if err != nil {
			return fmt.Errorf("failed to marshal warnings: %w", err)
		}
		warnings = sql.NullString{String: string(data), Valid: true}
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		b.ID,
		b.SalonID,
		b.BookingID,
		b.MembershipDiscountPercent.String(),
		b.ManualAdjustment.String(),
		b.PaymentMethod.String(),
		b.AmountReceived.String(),
		b.Subtotal.String(),
		b.MembershipDiscountAmount.String(),
		b.GSTPercent.String(),
		b.GSTAmount.String(),
		b.GrandTotal.String(),
		b.ChangeDue.String(),
		b.LoyaltyPointsEarned,
		warnings,
		b.CreatedAt,
		string(lineItems),
	)
	if err != nil {
		r.logger.Error("Failed to create bill",
			zap.String("id", b.ID),
			zap.String("booking_id", b.BookingID),
			zap.Error(err))
		return fmt.Errorf("failed to create bill: %w", err)
	}

	return nil
}

// GetByID retrieves a finalized bill with its line item snapshot
func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	query := `SELECT ` + billColumns + `, line_items FROM bills WHERE id = ?`

	b, err := scanBill(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id), true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get bill",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	return b, nil
}

// ListByDay retrieves the bills finalized within [dayStart, dayEnd),
// oldest first. Line item snapshots are skipped; register rows only
// need the totals.
func (r *BillRepository) ListByDay(ctx context.Context, salonID string, dayStart, dayEnd time.Time) ([]*bill.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE salon_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, salonID, dayStart, dayEnd)
	if err != nil {
		r.logger.Error("Failed to list bills by day",
			zap.String("salon_id", salonID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}

	return bills, rows.Err()
}

func scanBill(row rowScanner, withLineItems bool) (*bill.Bill, error) {
	var b bill.Bill
	var membershipPercent, manualAdjustment, paymentMethod, amountReceived string
	var subtotal, membershipAmount, gstPercent, gstAmount, grandTotal, changeDue string
	var warnings sql.NullString
	var lineItems string

	dest := []interface{}{
		&b.ID,
		&b.SalonID,
		&b.BookingID,
		&membershipPercent,
		&manualAdjustment,
		&paymentMethod,
		&amountReceived,
		&subtotal,
		&membershipAmount,
		&gstPercent,
		&gstAmount,
		&grandTotal,
		&changeDue,
		&b.LoyaltyPointsEarned,
		&warnings,
		&b.CreatedAt,
	}
	if withLineItems {
		dest = append(dest, &lineItems)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if b.MembershipDiscountPercent, err = decimal.NewFromString(membershipPercent); err != nil {
		return nil, fmt.Errorf("failed to parse membership percent: %w", err)
	}
	if b.ManualAdjustment, err = decimal.NewFromString(manualAdjustment); err != nil {
		return nil, fmt.Errorf("failed to parse manual adjustment: %w", err)
	}
	if b.AmountReceived, err = decimal.NewFromString(amountReceived); err != nil {
		return nil, fmt.Errorf("failed to parse amount received: %w", err)
	}
	if b.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("failed to parse subtotal: %w", err)
	}
	if b.MembershipDiscountAmount, err = decimal.NewFromString(membershipAmount); err != nil {
		return nil, fmt.Errorf("failed to parse membership amount: %w", err)
	}
	if b.GSTPercent, err = decimal.NewFromString(gstPercent); err != nil {
		return nil, fmt.Errorf("failed to parse gst percent: %w", err)
	}
	if b.GSTAmount, err = decimal.NewFromString(gstAmount); err != nil {
		return nil, fmt.Errorf("failed to parse gst amount: %w", err)
	}
	if b.GrandTotal, err = decimal.NewFromString(grandTotal); err != nil {
		return nil, fmt.Errorf("failed to parse grand total: %w", err)
	}
	if b.ChangeDue, err = decimal.NewFromString(changeDue); err != nil {
		return nil, fmt.Errorf("failed to parse change due: %w", err)
	}
	b.PaymentMethod = bill.PaymentMethod(paymentMethod)

	if warnings.Valid {
		if err := json.Unmarshal([]byte(warnings.String), &b.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	if withLineItems && lineItems != "" {
		if err := json.Unmarshal([]byte(lineItems), &b.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}

	return &b, nil
}

// Verify interface compliance
var _ port.BillRepository = (*BillRepository)(nil)
