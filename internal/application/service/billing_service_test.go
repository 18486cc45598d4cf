package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/money"
)

func testBillingConfig() BillingConfig {
	return BillingConfig{
		GSTPercent:            decimal.NewFromInt(5),
		LoyaltyRupeesPerPoint: decimal.NewFromInt(10),
	}
}

func TestFinalizeBill(t *testing.T) {
	items := &mockLineItemRepo{
		getByBookingIDFunc: func(ctx context.Context, bookingID string) ([]*bill.LineItem, error) {
			return []*bill.LineItem{
				{
					ID:            1,
					BookingID:     bookingID,
					ServiceID:     "svc-1",
					ServiceName:   "Hair Color",
					OriginalPrice: decimal.NewFromInt(1100),
					Quantity:      1,
				},
			}, nil
		},
	}
	bills := &mockBillRepo{}
	svc := NewBillingService(items, bills, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	b, err := svc.FinalizeBill(context.Background(), FinalizeBillInput{
		SalonID:                   "salon-1",
		BookingID:                 "booking-1",
		MembershipDiscountPercent: decimal.NewFromInt(10),
		PaymentMethod:             bill.PaymentCash,
		AmountReceived:            decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.True(t, b.Subtotal.Equal(decimal.NewFromInt(1100)))
	assert.True(t, b.MembershipDiscountAmount.Equal(decimal.NewFromInt(110)))
	assert.True(t, b.GSTAmount.Equal(decimal.NewFromFloat(49.50)), "got %s", b.GSTAmount)
	assert.True(t, b.GrandTotal.Equal(decimal.NewFromFloat(989.50)), "got %s", b.GrandTotal)
	assert.True(t, b.ChangeDue.Equal(decimal.NewFromFloat(10.50)), "got %s", b.ChangeDue)
	assert.Equal(t, int64(98), b.LoyaltyPointsEarned)
	assert.NotEmpty(t, b.ID)
	require.Len(t, bills.created, 1)
	assert.Same(t, b, bills.created[0])
}

func TestFinalizeBill_UsesOverriddenPrices(t *testing.T) {
	overridePrice := decimal.NewFromInt(700)
	reason := bill.ReasonServiceRecovery
	items := &mockLineItemRepo{
		getByBookingIDFunc: func(ctx context.Context, bookingID string) ([]*bill.LineItem, error) {
			return []*bill.LineItem{
				{
					ID:                 1,
					BookingID:          bookingID,
					ServiceID:          "svc-1",
					OriginalPrice:      decimal.NewFromInt(1000),
					Quantity:           1,
					OverridePrice:      &overridePrice,
					OverrideReasonCode: &reason,
				},
			}, nil
		},
	}
	svc := NewBillingService(items, &mockBillRepo{}, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	b, err := svc.FinalizeBill(context.Background(), FinalizeBillInput{
		SalonID:        "salon-1",
		BookingID:      "booking-1",
		PaymentMethod:  bill.PaymentCard,
		AmountReceived: decimal.NewFromInt(735),
	})
	require.NoError(t, err)
	assert.True(t, b.Subtotal.Equal(decimal.NewFromInt(700)), "got %s", b.Subtotal)
	assert.True(t, b.GrandTotal.Equal(decimal.NewFromInt(735)), "got %s", b.GrandTotal)
}

func TestFinalizeBill_InsufficientPayment(t *testing.T) {
	items := &mockLineItemRepo{
		getByBookingIDFunc: func(ctx context.Context, bookingID string) ([]*bill.LineItem, error) {
			return []*bill.LineItem{
				{ID: 1, BookingID: bookingID, ServiceID: "svc-1", OriginalPrice: decimal.NewFromInt(1000), Quantity: 1},
			}, nil
		},
	}
	bills := &mockBillRepo{}
	svc := NewBillingService(items, bills, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	_, err := svc.FinalizeBill(context.Background(), FinalizeBillInput{
		SalonID:        "salon-1",
		BookingID:      "booking-1",
		PaymentMethod:  bill.PaymentCash,
		AmountReceived: decimal.NewFromInt(500),
	})
	assert.ErrorIs(t, err, bill.ErrInsufficientPayment)
	assert.Empty(t, bills.created, "a short payment must not persist a bill")
}

func TestFinalizeBill_NoLineItems(t *testing.T) {
	svc := NewBillingService(&mockLineItemRepo{}, &mockBillRepo{}, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	_, err := svc.FinalizeBill(context.Background(), FinalizeBillInput{
		SalonID:        "salon-1",
		BookingID:      "empty-booking",
		PaymentMethod:  bill.PaymentCash,
		AmountReceived: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, money.ErrInvalidInput)
}

func TestAddLineItem(t *testing.T) {
	items := &mockLineItemRepo{}
	svc := NewBillingService(items, &mockBillRepo{}, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	item, err := svc.AddLineItem(context.Background(), &bill.LineItem{
		BookingID:     "booking-1",
		ServiceID:     "svc-1",
		ServiceName:   "Haircut",
		OriginalPrice: decimal.NewFromInt(500),
		StaffID:       "staff-1",
		Quantity:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
}

func TestAddLineItem_Invalid(t *testing.T) {
	svc := NewBillingService(&mockLineItemRepo{}, &mockBillRepo{}, &mockTxManager{}, testBillingConfig(), &mockLogger{})

	tests := []struct {
		name string
		item *bill.LineItem
	}{
		{"zero quantity", &bill.LineItem{ServiceID: "svc-1", OriginalPrice: decimal.NewFromInt(500)}},
		{"negative price", &bill.LineItem{ServiceID: "svc-1", OriginalPrice: decimal.NewFromInt(-1), Quantity: 1}},
		{"missing service", &bill.LineItem{OriginalPrice: decimal.NewFromInt(500), Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddLineItem(context.Background(), tt.item)
			assert.ErrorIs(t, err, money.ErrInvalidInput)
		})
	}
}
