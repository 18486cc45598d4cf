package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/money"
)

func newOverrideService(
	rules *mockRulesRepo,
	items *mockLineItemRepo,
	overrides *mockOverrideRepo,
	auth *mockAuthorizer,
) OverrideService {
	return NewOverrideService(rules, items, overrides, auth, &mockTxManager{}, &mockLogger{})
}

func TestRequestOverride_AutoApproved(t *testing.T) {
	items := &mockLineItemRepo{}
	overrides := &mockOverrideRepo{}
	auth := &mockAuthorizer{}
	svc := newOverrideService(&mockRulesRepo{}, items, overrides, auth)

	// 1000 -> 900 is exactly 10%, inside the auto-approve band.
	override, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(900),
		ReasonCode: bill.ReasonLoyalty,
	})
	require.NoError(t, err)
	require.NotNil(t, override)

	assert.Equal(t, approval.TierAuto, override.Tier)
	assert.True(t, override.DiscountPercent.Equal(decimal.NewFromInt(10)),
		"expected 10%%, got %s", override.DiscountPercent)
	assert.Equal(t, "staff-1", override.ApprovedBy, "auto tier attributes to the requesting staff")
	assert.Equal(t, 0, auth.calls, "auto tier must not hit the authorizer")
	assert.Equal(t, 1, items.appliedOverrides)
	assert.Len(t, overrides.created, 1)
}

func TestRequestOverride_OwnerTierWithPIN(t *testing.T) {
	items := &mockLineItemRepo{}
	overrides := &mockOverrideRepo{}
	auth := &mockAuthorizer{
		authorizeFunc: func(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error) {
			assert.Equal(t, "123456", pin, "PIN should arrive normalized")
			assert.Equal(t, approval.TierOwner, tier)
			return "owner-1", nil
		},
	}
	svc := newOverrideService(&mockRulesRepo{}, items, overrides, auth)

	// 1000 -> 700 is 30%, above the manager threshold.
	override, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(700),
		ReasonCode: bill.ReasonServiceRecovery,
		PIN:        "12-34 56",
	})
	require.NoError(t, err)

	assert.Equal(t, approval.TierOwner, override.Tier)
	assert.Equal(t, "owner-1", override.ApprovedBy)
	assert.Equal(t, 1, auth.calls)
	assert.Equal(t, 1, items.appliedOverrides)
}

func TestRequestOverride_PriceOutOfBounds(t *testing.T) {
	tests := []struct {
		name     string
		newPrice decimal.Decimal
	}{
		{"negative price", decimal.NewFromInt(-1)},
		{"above original", decimal.NewFromInt(1001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := &mockLineItemRepo{}
			overrides := &mockOverrideRepo{}
			svc := newOverrideService(&mockRulesRepo{}, items, overrides, &mockAuthorizer{})

			_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
				SalonID:    "salon-1",
				LineItemID: 1,
				NewPrice:   tt.newPrice,
				ReasonCode: bill.ReasonLoyalty,
			})
			assert.ErrorIs(t, err, bill.ErrInvalidPrice)
			assert.Equal(t, 0, items.appliedOverrides, "rejected request must not touch the line item")
			assert.Empty(t, overrides.created)
		})
	}
}

func TestRequestOverride_CustomReasonTooShort(t *testing.T) {
	items := &mockLineItemRepo{}
	svc := newOverrideService(&mockRulesRepo{}, items, &mockOverrideRepo{}, &mockAuthorizer{})

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(950),
		ReasonCode: bill.ReasonCustom,
		ReasonText: "because",
	})
	assert.ErrorIs(t, err, bill.ErrReasonRequired)
	assert.Equal(t, 0, items.appliedOverrides)
}

func TestRequestOverride_ReasonRequiredForDiscount(t *testing.T) {
	rules := &mockRulesRepo{
		getFunc: func(ctx context.Context, salonID string) (*approval.Rules, error) {
			r := approval.DefaultRules(salonID)
			r.RequireReasonForDiscount = true
			return r, nil
		},
	}
	svc := newOverrideService(rules, &mockLineItemRepo{}, &mockOverrideRepo{}, &mockAuthorizer{})

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(950),
	})
	assert.ErrorIs(t, err, bill.ErrReasonRequired)
}

func TestRequestOverride_InvalidReasonCode(t *testing.T) {
	svc := newOverrideService(&mockRulesRepo{}, &mockLineItemRepo{}, &mockOverrideRepo{}, &mockAuthorizer{})

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(950),
		ReasonCode: bill.ReasonCode("vibes"),
	})
	assert.ErrorIs(t, err, money.ErrInvalidInput)
}

func TestRequestOverride_MalformedPIN(t *testing.T) {
	items := &mockLineItemRepo{}
	auth := &mockAuthorizer{}
	svc := newOverrideService(&mockRulesRepo{}, items, &mockOverrideRepo{}, auth)

	// 20% needs manager approval; a 3-digit PIN never reaches the
	// credential check.
	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(800),
		ReasonCode: bill.ReasonPromotion,
		PIN:        "12a3",
	})
	assert.ErrorIs(t, err, approval.ErrAuthorizationRequired)
	assert.Equal(t, 0, auth.calls)
	assert.Equal(t, 0, items.appliedOverrides)
}

func TestRequestOverride_AuthorizerRefuses(t *testing.T) {
	items := &mockLineItemRepo{}
	overrides := &mockOverrideRepo{}
	auth := &mockAuthorizer{
		authorizeFunc: func(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error) {
			return "", approval.ErrAuthorizationRequired
		},
	}
	svc := newOverrideService(&mockRulesRepo{}, items, overrides, auth)

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(800),
		ReasonCode: bill.ReasonPromotion,
		PIN:        "9999",
	})
	assert.ErrorIs(t, err, approval.ErrAuthorizationRequired)
	assert.Equal(t, 0, items.appliedOverrides)
	assert.Empty(t, overrides.created)
}

func TestRequestOverride_DailyLimitExceeded(t *testing.T) {
	overrides := &mockOverrideRepo{
		sumDiscountsSinceFunc: func(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error) {
			return decimal.NewFromInt(4950), nil
		},
	}
	items := &mockLineItemRepo{}
	svc := newOverrideService(&mockRulesRepo{}, items, overrides, &mockAuthorizer{})

	// Default cap is 5000; 4950 already granted plus a 100 discount
	// pushes past it.
	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(900),
		ReasonCode: bill.ReasonLoyalty,
	})
	assert.ErrorIs(t, err, bill.ErrDailyLimitExceeded)
	assert.Equal(t, 0, items.appliedOverrides)
}

func TestRequestOverride_DailyLimitCountsQuantity(t *testing.T) {
	rules := &mockRulesRepo{
		getFunc: func(ctx context.Context, salonID string) (*approval.Rules, error) {
			r := approval.DefaultRules(salonID)
			r.MaxDiscountPerDay = decimal.NewFromInt(700)
			return r, nil
		},
	}
	items := &mockLineItemRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*bill.LineItem, error) {
			return &bill.LineItem{
				ID:            id,
				BookingID:     "booking-1",
				ServiceID:     "svc-1",
				ServiceName:   "Hair Spa",
				OriginalPrice: decimal.NewFromInt(1000),
				StaffID:       "staff-1",
				Quantity:      2,
			}, nil
		},
	}
	overrides := &mockOverrideRepo{}
	// Sum grants the way the audit table does: per-unit discount times
	// the recorded quantity.
	overrides.sumDiscountsSinceFunc = func(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error) {
		total := decimal.Zero
		for _, o := range overrides.created {
			perUnit := o.OriginalPrice.Sub(o.NewPrice)
			total = total.Add(perUnit.Mul(decimal.NewFromInt(int64(o.Quantity))))
		}
		return total, nil
	}
	svc := newOverrideService(rules, items, overrides, &mockAuthorizer{})

	// 1000 -> 800 on a quantity-2 line grants 400. The first request
	// fits under the 700 cap; the second would take the day to 800.
	in := RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(800),
		ReasonCode: bill.ReasonLoyalty,
		PIN:        "1234",
	}
	first, err := svc.RequestOverride(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity, "audit record carries the line quantity")

	in.LineItemID = 2
	_, err = svc.RequestOverride(context.Background(), in)
	assert.ErrorIs(t, err, bill.ErrDailyLimitExceeded)
	assert.Len(t, overrides.created, 1)
}

func TestRequestOverride_LineItemMissing(t *testing.T) {
	items := &mockLineItemRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*bill.LineItem, error) {
			return nil, nil
		},
	}
	svc := newOverrideService(&mockRulesRepo{}, items, &mockOverrideRepo{}, &mockAuthorizer{})

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 42,
		NewPrice:   decimal.NewFromInt(900),
	})
	assert.ErrorIs(t, err, money.ErrInvalidInput)
}

func TestRequestOverride_TxFailureSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewOverrideService(
		&mockRulesRepo{},
		&mockLineItemRepo{},
		&mockOverrideRepo{},
		&mockAuthorizer{},
		&mockTxManager{
			withTransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
				return boom
			},
		},
		&mockLogger{},
	)

	_, err := svc.RequestOverride(context.Background(), RequestOverrideInput{
		SalonID:    "salon-1",
		LineItemID: 1,
		NewPrice:   decimal.NewFromInt(900),
		ReasonCode: bill.ReasonLoyalty,
	})
	assert.ErrorIs(t, err, boom)
}
