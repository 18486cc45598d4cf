package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/salonhq/billing/internal/application/port"
)

// ReportService exports the day's finalized bills for back-office
// reconciliation.
type ReportService interface {
	// ExportBillRegister writes an .xlsx register of all bills finalized
	// on the given day and returns the file path.
	ExportBillRegister(ctx context.Context, salonID string, day time.Time) (string, error)
}

type reportServiceImpl struct {
	billRepo  port.BillRepository
	outputDir string
	logger    Logger
}

// NewReportService creates a new ReportService writing exports under
// outputDir.
func NewReportService(billRepo port.BillRepository, outputDir string, logger Logger) ReportService {
	return &reportServiceImpl{
		billRepo:  billRepo,
		outputDir: outputDir,
		logger:    logger,
	}
}

var registerHeaders = []string{
	"Bill ID", "Booking ID", "Payment Method", "Subtotal",
	"Membership Discount", "GST", "Manual Adjustment", "Grand Total",
	"Amount Received", "Change Due", "Loyalty Points", "Finalized At",
}

// ExportBillRegister writes one row per bill plus a totals row.
func (s *reportServiceImpl) ExportBillRegister(ctx context.Context, salonID string, day time.Time) (string, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	bills, err := s.billRepo.ListByDay(ctx, salonID, dayStart, dayEnd)
	if err != nil {
		s.logger.Error("Failed to load bills for register", "error", err, "salon_id", salonID)
		return "", fmt.Errorf("list bills: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, header := range registerHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", fmt.Errorf("set header cell: %w", err)
		}
	}

	grandTotalSum := decimal.Zero
	for i, b := range bills {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.BookingID,
			b.PaymentMethod.String(),
			b.Subtotal.InexactFloat64(),
			b.MembershipDiscountAmount.InexactFloat64(),
			b.GSTAmount.InexactFloat64(),
			b.ManualAdjustment.InexactFloat64(),
			b.GrandTotal.InexactFloat64(),
			b.AmountReceived.InexactFloat64(),
			b.ChangeDue.InexactFloat64(),
			b.LoyaltyPointsEarned,
			b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return "", fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("set cell: %w", err)
			}
		}
		grandTotalSum = grandTotalSum.Add(b.GrandTotal)
	}

	totalsRow := len(bills) + 2
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "TOTAL"); err != nil {
		return "", fmt.Errorf("set totals label: %w", err)
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("H%d", totalsRow), grandTotalSum.InexactFloat64()); err != nil {
		return "", fmt.Errorf("set totals value: %w", err)
	}

	outputPath := filepath.Join(s.outputDir,
		fmt.Sprintf("bill-register-%s-%s.xlsx", salonID, dayStart.Format("2006-01-02")))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save register: %w", err)
	}

	s.logger.Info("Bill register exported",
		"salon_id", salonID,
		"day", dayStart.Format("2006-01-02"),
		"bills", len(bills),
		"path", outputPath,
	)
	return outputPath, nil
}
