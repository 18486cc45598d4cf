// Package notify pushes suggestion lifecycle events to the salon's
// configured webhook. Delivery is best-effort: billing never blocks on
// a notification.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

const deliveryTimeout = 10 * time.Second

// WebhookNotifier implements port.Notifier by POSTing JSON events.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier. An empty URL disables
// delivery.
func NewWebhookNotifier(url string, logger *zap.Logger) port.Notifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: deliveryTimeout},
		logger: logger,
	}
}

type suggestionEvent struct {
	Event      string                      `json:"event"`
	Suggestion *suggestion.StaffSuggestion `json:"suggestion"`
	SentAt     time.Time                   `json:"sent_at"`
}

// SuggestionSubmitted notifies reviewers that a suggestion awaits a
// decision.
func (n *WebhookNotifier) SuggestionSubmitted(ctx context.Context, s *suggestion.StaffSuggestion) {
	n.deliver("suggestion.submitted", s)
}

// SuggestionResolved notifies the submitting staff member of the
// outcome.
func (n *WebhookNotifier) SuggestionResolved(ctx context.Context, s *suggestion.StaffSuggestion) {
	n.deliver("suggestion.resolved", s)
}

func (n *WebhookNotifier) deliver(event string, s *suggestion.StaffSuggestion) {
	if n.url == "" {
		return
	}

	payload, err := json.Marshal(suggestionEvent{
		Event:      event,
		Suggestion: s,
		SentAt:     time.Now(),
	})
	if err != nil {
		n.logger.Error("Failed to marshal webhook payload",
			zap.String("event", event),
			zap.Error(err))
		return
	}

	// Detached from the request context so a fast HTTP response does
	// not cancel delivery.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
		if err != nil {
			n.logger.Error("Failed to build webhook request",
				zap.String("event", event),
				zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			n.logger.Error("Webhook delivery failed",
				zap.String("event", event),
				zap.String("suggestion_id", s.ID),
				zap.Error(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			n.logger.Error("Webhook rejected event",
				zap.String("event", event),
				zap.String("suggestion_id", s.ID),
				zap.Int("status", resp.StatusCode))
			return
		}

		n.logger.Debug("Webhook delivered",
			zap.String("event", event),
			zap.String("suggestion_id", s.ID))
	}()
}

// Verify interface compliance
var _ port.Notifier = (*WebhookNotifier)(nil)
