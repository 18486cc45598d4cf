package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/money"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

func pendingSuggestion(id string, expiresAt time.Time) *suggestion.StaffSuggestion {
	return &suggestion.StaffSuggestion{
		ID:             id,
		SalonID:        "salon-1",
		BookingID:      "booking-1",
		StaffID:        "staff-1",
		Type:           suggestion.TypeDiscount,
		OriginalPrice:  decimal.NewFromInt(1000),
		SuggestedPrice: decimal.NewFromInt(800),
		Reason:         "regular client, service ran long",
		Status:         suggestion.StatusPending,
		CreatedAt:      expiresAt.Add(-time.Hour),
		ExpiresAt:      expiresAt,
	}
}

func TestSubmitSuggestion(t *testing.T) {
	repo := &mockSuggestionRepo{}
	notifier := &mockNotifier{}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, notifier, &mockLogger{})

	before := time.Now()
	sug, err := svc.Submit(context.Background(), SubmitSuggestionInput{
		SalonID:        "salon-1",
		BookingID:      "booking-1",
		StaffID:        "staff-1",
		Type:           suggestion.TypeDiscount,
		OriginalPrice:  decimal.NewFromInt(1000),
		SuggestedPrice: decimal.NewFromInt(800),
		Reason:         "regular client, service ran long",
	})
	require.NoError(t, err)
	require.NotNil(t, sug)

	assert.Equal(t, suggestion.StatusPending, sug.Status)
	assert.True(t, sug.DiscountPercent.Equal(decimal.NewFromInt(20)),
		"expected 20%%, got %s", sug.DiscountPercent)
	// Default rules give 60 minutes to act.
	assert.False(t, sug.ExpiresAt.Before(before.Add(60*time.Minute)))
	assert.Len(t, notifier.submitted, 1)
}

func TestSubmitSuggestion_Disabled(t *testing.T) {
	rules := &mockRulesRepo{
		getFunc: func(ctx context.Context, salonID string) (*approval.Rules, error) {
			r := approval.DefaultRules(salonID)
			r.AllowStaffSuggestions = false
			return r, nil
		},
	}
	svc := NewSuggestionService(rules, &mockSuggestionRepo{}, &mockNotifier{}, &mockLogger{})

	_, err := svc.Submit(context.Background(), SubmitSuggestionInput{
		SalonID:        "salon-1",
		Type:           suggestion.TypeDiscount,
		OriginalPrice:  decimal.NewFromInt(1000),
		SuggestedPrice: decimal.NewFromInt(800),
		Reason:         "regular client",
	})
	assert.ErrorIs(t, err, suggestion.ErrSuggestionsDisabled)
}

func TestSubmitSuggestion_Invalid(t *testing.T) {
	svc := NewSuggestionService(&mockRulesRepo{}, &mockSuggestionRepo{}, &mockNotifier{}, &mockLogger{})

	tests := []struct {
		name    string
		in      SubmitSuggestionInput
		wantErr error
	}{
		{
			name: "blank reason",
			in: SubmitSuggestionInput{
				SalonID:        "salon-1",
				Type:           suggestion.TypeDiscount,
				OriginalPrice:  decimal.NewFromInt(1000),
				SuggestedPrice: decimal.NewFromInt(800),
				Reason:         "   ",
			},
			wantErr: suggestion.ErrReasonRequired,
		},
		{
			name: "unknown type",
			in: SubmitSuggestionInput{
				SalonID:        "salon-1",
				Type:           suggestion.Type("freebie"),
				OriginalPrice:  decimal.NewFromInt(1000),
				SuggestedPrice: decimal.NewFromInt(800),
				Reason:         "regular client",
			},
			wantErr: money.ErrInvalidInput,
		},
		{
			name: "suggested above original",
			in: SubmitSuggestionInput{
				SalonID:        "salon-1",
				Type:           suggestion.TypeDiscount,
				OriginalPrice:  decimal.NewFromInt(1000),
				SuggestedPrice: decimal.NewFromInt(1200),
				Reason:         "regular client",
			},
			wantErr: money.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApproveSuggestion(t *testing.T) {
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			return pendingSuggestion(id, time.Now().Add(30*time.Minute)), nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, notifier, &mockLogger{})

	sug, err := svc.Approve(context.Background(), "sug-1", "manager-1")
	require.NoError(t, err)

	assert.Equal(t, suggestion.StatusApproved, sug.Status)
	assert.Equal(t, "manager-1", sug.ReviewedBy)
	require.NotNil(t, sug.ReviewedAt)
	assert.Len(t, notifier.resolved, 1)
}

func TestApproveSuggestion_Expired(t *testing.T) {
	// The deadline passed while the suggestion sat unreviewed. The
	// review attempt itself converts it to expired.
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			return pendingSuggestion(id, time.Now().Add(-time.Minute)), nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	_, err := svc.Approve(context.Background(), "sug-1", "manager-1")
	assert.ErrorIs(t, err, suggestion.ErrSuggestionExpired)
	assert.Equal(t, 1, repo.expired, "lazy expiry must be persisted")
}

func TestApproveSuggestion_AlreadyResolved(t *testing.T) {
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			s := pendingSuggestion(id, time.Now().Add(30*time.Minute))
			s.Status = suggestion.StatusRejected
			return s, nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	_, err := svc.Approve(context.Background(), "sug-1", "manager-1")
	assert.ErrorIs(t, err, suggestion.ErrAlreadyResolved)
}

func TestApproveSuggestion_LosesRace(t *testing.T) {
	// The conditional update reports zero rows: another reviewer got
	// there first between our read and our write.
	calls := 0
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			calls++
			s := pendingSuggestion(id, time.Now().Add(30*time.Minute))
			if calls > 1 {
				s.Status = suggestion.StatusApproved
			}
			return s, nil
		},
		resolveFunc: func(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error) {
			return false, nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, notifier, &mockLogger{})

	_, err := svc.Reject(context.Background(), "sug-1", "manager-2", "too generous")
	assert.ErrorIs(t, err, suggestion.ErrAlreadyResolved)
	assert.Empty(t, notifier.resolved, "the loser must not announce a decision")
}

func TestApproveSuggestion_LosesRaceStillPending(t *testing.T) {
	// Zero rows from the conditional update even though the re-read row
	// is still pending and inside its window. The suggestion must not be
	// forced to expired; the caller sees a plain conflict.
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			return pendingSuggestion(id, time.Now().Add(30*time.Minute)), nil
		},
		resolveFunc: func(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error) {
			return false, nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	_, err := svc.Approve(context.Background(), "sug-1", "manager-1")
	assert.ErrorIs(t, err, suggestion.ErrAlreadyResolved)
	assert.Equal(t, 0, repo.expired, "an unexpired suggestion must not be marked expired")
}

func TestApproveSuggestion_LosesRaceToExpiry(t *testing.T) {
	// The deadline passes between our read and our write; the re-read
	// shows the row pending but past its window.
	calls := 0
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			calls++
			if calls > 1 {
				return pendingSuggestion(id, time.Now().Add(-time.Second)), nil
			}
			return pendingSuggestion(id, time.Now().Add(time.Minute)), nil
		},
		resolveFunc: func(ctx context.Context, id string, to suggestion.Status, reviewedBy string, reviewedAt time.Time, rejectionReason string) (bool, error) {
			return false, nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	_, err := svc.Approve(context.Background(), "sug-1", "manager-1")
	assert.ErrorIs(t, err, suggestion.ErrSuggestionExpired)
	assert.Equal(t, 1, repo.expired, "lazy expiry must be persisted")
}

func TestGetSuggestion_VirtualExpiry(t *testing.T) {
	repo := &mockSuggestionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*suggestion.StaffSuggestion, error) {
			return pendingSuggestion(id, time.Now().Add(-time.Minute)), nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	sug, err := svc.Get(context.Background(), "sug-1")
	require.NoError(t, err)
	assert.Equal(t, suggestion.StatusExpired, sug.Status)
}

func TestGetSuggestion_NotFound(t *testing.T) {
	svc := NewSuggestionService(&mockRulesRepo{}, &mockSuggestionRepo{}, &mockNotifier{}, &mockLogger{})

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, suggestion.ErrNotFound)
}

func TestListSuggestions_VirtualExpiry(t *testing.T) {
	repo := &mockSuggestionRepo{
		listFunc: func(ctx context.Context, salonID, bookingID string, limit, offset int) ([]*suggestion.StaffSuggestion, error) {
			return []*suggestion.StaffSuggestion{
				pendingSuggestion("live", time.Now().Add(30*time.Minute)),
				pendingSuggestion("stale", time.Now().Add(-time.Minute)),
			}, nil
		},
	}
	svc := NewSuggestionService(&mockRulesRepo{}, repo, &mockNotifier{}, &mockLogger{})

	suggestions, err := svc.List(context.Background(), "salon-1", "", 20, 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, suggestion.StatusPending, suggestions[0].Status)
	assert.Equal(t, suggestion.StatusExpired, suggestions[1].Status)
}
