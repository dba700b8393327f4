package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// GateNotification is the read-only payload handed to observers when an
// evaluation completes. Observers never see mutable engine state.
type GateNotification struct {
	ResultID        string    `json:"result_id"`
	Decision        string    `json:"decision"`
	WeightedTotal   float64   `json:"weighted_total"`
	Recommendations int       `json:"recommendations"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
}

// GateNotifier receives evaluation outcomes.
type GateNotifier interface {
	NotifyDecision(ctx context.Context, n GateNotification) error
}

// WebhookNotifier posts gate notifications to a webhook URL. Fail and
// conditional decisions are sent; passes are logged only.
type WebhookNotifier struct {
	WebhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		WebhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyDecision sends the notification to the configured webhook.
func (w *WebhookNotifier) NotifyDecision(ctx context.Context, n GateNotification) error {
	if w.WebhookURL == "" {
		return nil
	}

	if n.Decision == "pass" {
		slog.Info("Gate passed, webhook notification skipped", "result_id", n.ResultID)
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Gate notification sent",
		"result_id", n.ResultID,
		"decision", n.Decision,
		"weighted_total", n.WeightedTotal)
	return nil
}
