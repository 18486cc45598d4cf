package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/money"
)

// BillingConfig carries the tenant-level billing knobs.
type BillingConfig struct {
	// GSTPercent is the tax rate applied to the taxable base.
	GSTPercent decimal.Decimal
	// LoyaltyRupeesPerPoint is the spend that earns one loyalty point.
	LoyaltyRupeesPerPoint decimal.Decimal
}

// FinalizeBillInput carries everything needed to close out a booking's
// bill at checkout.
type FinalizeBillInput struct {
	SalonID                   string
	BookingID                 string
	MembershipDiscountPercent decimal.Decimal
	ManualAdjustment          decimal.Decimal
	PaymentMethod             bill.PaymentMethod
	AmountReceived            decimal.Decimal
}

// BillingService assembles draft line items into a finalized, write-once
// bill.
type BillingService interface {
	AddLineItem(ctx context.Context, item *bill.LineItem) (*bill.LineItem, error)
	FinalizeBill(ctx context.Context, in FinalizeBillInput) (*bill.Bill, error)
	GetBill(ctx context.Context, id string) (*bill.Bill, error)
}

type billingServiceImpl struct {
	lineItemRepo port.LineItemRepository
	billRepo     port.BillRepository
	txManager    port.TransactionManager
	cfg          BillingConfig
	logger       Logger
}

// NewBillingService creates a new BillingService.
func NewBillingService(
	lineItemRepo port.LineItemRepository,
	billRepo port.BillRepository,
	txManager port.TransactionManager,
	cfg BillingConfig,
	logger Logger,
) BillingService {
	return &billingServiceImpl{
		lineItemRepo: lineItemRepo,
		billRepo:     billRepo,
		txManager:    txManager,
		cfg:          cfg,
		logger:       logger,
	}
}

// AddLineItem records a service on a draft bill.
func (s *billingServiceImpl) AddLineItem(ctx context.Context, item *bill.LineItem) (*bill.LineItem, error) {
	if item.Quantity < 1 || item.OriginalPrice.IsNegative() || item.ServiceID == "" {
		return nil, money.ErrInvalidInput
	}

	if err := s.lineItemRepo.Create(ctx, item); err != nil {
		s.logger.Error("Failed to create line item", "error", err, "booking_id", item.BookingID)
		return nil, fmt.Errorf("create line item: %w", err)
	}

	s.logger.Info("Line item added",
		"line_item_id", item.ID,
		"booking_id", item.BookingID,
		"service_id", item.ServiceID,
	)
	return item, nil
}

// FinalizeBill computes the bill over the booking's (possibly
// override-adjusted) line items and persists it write-once. Re-billing
// requires a new bill.
func (s *billingServiceImpl) FinalizeBill(ctx context.Context, in FinalizeBillInput) (*bill.Bill, error) {
	items, err := s.lineItemRepo.GetByBookingID(ctx, in.BookingID)
	if err != nil {
		s.logger.Error("Failed to load line items", "error", err, "booking_id", in.BookingID)
		return nil, fmt.Errorf("get line items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("booking %s has no line items: %w", in.BookingID, money.ErrInvalidInput)
	}

	lineItems := make([]bill.LineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, *item)
	}

	totals, err := bill.Finalize(bill.FinalizeInput{
		LineItems:                 lineItems,
		MembershipDiscountPercent: in.MembershipDiscountPercent,
		ManualAdjustment:          in.ManualAdjustment,
		GSTPercent:                s.cfg.GSTPercent,
		PaymentMethod:             in.PaymentMethod,
		AmountReceived:            in.AmountReceived,
		LoyaltyRupeesPerPoint:     s.cfg.LoyaltyRupeesPerPoint,
	})
	if err != nil {
		return nil, err
	}

	b := &bill.Bill{
		ID:                        uuid.NewString(),
		SalonID:                   in.SalonID,
		BookingID:                 in.BookingID,
		LineItems:                 lineItems,
		MembershipDiscountPercent: in.MembershipDiscountPercent,
		ManualAdjustment:          in.ManualAdjustment,
		PaymentMethod:             in.PaymentMethod,
		AmountReceived:            in.AmountReceived,
		Subtotal:                  totals.Subtotal,
		MembershipDiscountAmount:  totals.MembershipDiscountAmount,
		GSTPercent:                s.cfg.GSTPercent,
		GSTAmount:                 totals.GSTAmount,
		GrandTotal:                totals.GrandTotal,
		ChangeDue:                 totals.ChangeDue,
		LoyaltyPointsEarned:       totals.LoyaltyPointsEarned,
		Warnings:                  totals.Warnings,
		CreatedAt:                 time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.billRepo.Create(txCtx, b); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist bill", "error", err, "booking_id", in.BookingID)
		return nil, err
	}

	s.logger.Info("Bill finalized",
		"bill_id", b.ID,
		"booking_id", in.BookingID,
		"grand_total", b.GrandTotal.String(),
		"payment_method", b.PaymentMethod.String(),
		"loyalty_points", b.LoyaltyPointsEarned,
	)
	return b, nil
}

// GetBill retrieves a finalized bill.
func (s *billingServiceImpl) GetBill(ctx context.Context, id string) (*bill.Bill, error) {
	b, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get bill", "error", err, "id", id)
		return nil, err
	}
	return b, nil
}
