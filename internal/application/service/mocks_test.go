package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// Mock repositories and collaborators

type mockRulesRepo struct {
	getFunc    func(ctx context.Context, salonID string) (*approval.Rules, error)
	upsertFunc func(ctx context.Context, rules *approval.Rules) error
}

func (m *mockRulesRepo) Get(ctx context.Context, salonID string) (*approval.Rules, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, salonID)
	}
	return approval.DefaultRules(salonID), nil
}

func (m *mockRulesRepo) Upsert(ctx context.Context, rules *approval.Rules) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, rules)
	}
	return nil
}

type mockLineItemRepo struct {
	createFunc         func(ctx context.Context, item *bill.LineItem) error
	getByIDFunc        func(ctx context.Context, id int64) (*bill.LineItem, error)
	getByBookingIDFunc func(ctx context.Context, bookingID string) ([]*bill.LineItem, error)
	applyOverrideFunc  func(ctx context.Context, id int64, price decimal.Decimal, reasonCode bill.ReasonCode, reasonText string) error

	appliedOverrides int
}

func (m *mockLineItemRepo) Create(ctx context.Context, item *bill.LineItem) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, item)
	}
	item.ID = 1
	return nil
}

func (m *mockLineItemRepo) GetByID(ctx context.Context, id int64) (*bill.LineItem, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &bill.LineItem{
		ID:            id,
		BookingID:     "booking-1",
		ServiceID:     "svc-1",
		ServiceName:   "Haircut",
		OriginalPrice: decimal.NewFromInt(1000),
		StaffID:       "staff-1",
		Quantity:      1,
	}, nil
}

func (m *mockLineItemRepo) GetByBookingID(ctx context.Context, bookingID string) ([]*bill.LineItem, error) {
	if m.getByBookingIDFunc != nil {
		return m.getByBookingIDFunc(ctx, bookingID)
	}
	return []*bill.LineItem{}, nil
}

func (m *mockLineItemRepo) ApplyOverride(ctx context.Context, id int64, price decimal.Decimal, reasonCode bill.ReasonCode, reasonText string) error {
	m.appliedOverrides++
	if m.applyOverrideFunc != nil {
		return m.applyOverrideFunc(ctx, id, price, reasonCode, reasonText)
	}
	return nil
}

type mockOverrideRepo struct {
	createFunc            func(ctx context.Context, override *bill.PriceOverride) error
	getByIDFunc           func(ctx context.Context, id string) (*bill.PriceOverride, error)
	listByBookingIDFunc   func(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error)
	sumDiscountsSinceFunc func(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error)

	created []*bill.PriceOverride
}

func (m *mockOverrideRepo) Create(ctx context.Context, override *bill.PriceOverride) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, override)
	}
	m.created = append(m.created, override)
	return nil
}

func (m *mockOverrideRepo) GetByID(ctx context.Context, id string) (*bill.PriceOverride, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockOverrideRepo) ListByBookingID(ctx context.Context, bookingID string) ([]*bill.PriceOverride, error) {
	if m.listByBookingIDFunc != nil {
		return m.listByBookingIDFunc(ctx, bookingID)
	}
	return []*bill.PriceOverride{}, nil
}

func (m *mockOverrideRepo) SumDiscountsSince(ctx context.Context, salonID string, since time.Time) (decimal.Decimal, error) {
	if m.sumDiscountsSinceFunc != nil {
		return m.sumDiscountsSinceFunc(ctx, salonID, since)
	}
	return decimal.Zero, nil
}

type mockSuggestionRepo struct {
	createFunc  func(ctx context.Context, s *suggestion.StaffSuggestion) error
	getByIDFunc func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error)
	listFunc    func(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error)
	resolveFunc func(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error)
	expireFunc  func(ctx context.Context, id string, at time.Time) (bool, error)

	expired int
}

func (m *mockSuggestionRepo) Create(ctx context.Context, s *suggestion.StaffSuggestion) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	return nil
}

func (m *mockSuggestionRepo) GetByID(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSuggestionRepo) List(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, salonID, bookingID, limit, offset)
	}
	return []*suggestion.StaffSuggestion{}, nil
}

func (m *mockSuggestionRepo) Resolve(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id, to, reviewedBy, reviewedAt, rejectionReason)
	}
	return true, nil
}

func (m *mockSuggestionRepo) Expire(ctx context.Context, id string, at time.Time) (bool, error) {
	m.expired++
	if m.expireFunc != nil {
		return m.expireFunc(ctx, id, at)
	}
	return true, nil
}

type mockBillRepo struct {
	createFunc    func(ctx context.Context, b *bill.Bill) error
	getByIDFunc   func(ctx context.Context, id string) (*bill.Bill, error)
	listByDayFunc func(ctx context.Context, salonID string, dayStart, dayEnd time.Time) ([]*bill.Bill, error)

	created []*bill.Bill
}

func (m *mockBillRepo) Create(ctx context.Context, b *bill.Bill) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	m.created = append(m.created, b)
	return nil
}

func (m *mockBillRepo) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBillRepo) ListByDay(ctx context.Context, salonID string, dayStart, dayEnd time.Time) ([]*bill.Bill, error) {
	if m.listByDayFunc != nil {
		return m.listByDayFunc(ctx, salonID, dayStart, dayEnd)
	}
	return []*bill.Bill{}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockAuthorizer struct {
	authorizeFunc func(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error)

	calls int
}

func (m *mockAuthorizer) Authorize(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error) {
	m.calls++
	if m.authorizeFunc != nil {
		return m.authorizeFunc(ctx, salonID, pin, tier)
	}
	return "manager-1", nil
}

type mockNotifier struct {
	submitted []*suggestion.StaffSuggestion
	resolved  []*suggestion.StaffSuggestion
}

func (m *mockNotifier) SuggestionSubmitted(ctx context.Context, s *suggestion.StaffSuggestion) {
	m.submitted = append(m.submitted, s)
}

func (m *mockNotifier) SuggestionResolved(ctx context.Context, s *suggestion.StaffSuggestion) {
	m.resolved = append(m.resolved, s)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
