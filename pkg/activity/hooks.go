package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/salespilot/screen-crm-assistant/models"
)

// WebhookAlerter POSTs each activity to a configured endpoint so an
// external system can react to CRM-relevant screen events.
type WebhookAlerter struct {
	url        string
	httpClient *http.Client
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookAlerter) Name() string {
	return "webhook-alerter"
}

type alertPayload struct {
	SessionID  int64  `json:"session_id"`
	BatchIndex int    `json:"batch_index"`
	Model      string `json:"model"`
	Response   string `json:"response"`
	CreatedAt  string `json:"created_at"`
}

func (w *WebhookAlerter) Fire(ctx context.Context, activity models.Activity) error {
	payload := alertPayload{
		SessionID:  activity.SessionID,
		BatchIndex: activity.BatchIndex,
		Model:      activity.Model,
		Response:   activity.Response,
		CreatedAt:  activity.CreatedAt.UTC().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Scheduler will book follow-up meetings from detected activities.
// TODO: wire a calendar backend; only the no-op implementation exists.
type Scheduler interface {
	Schedule(ctx context.Context, activity models.Activity) error
}

// NoopScheduler satisfies Scheduler without side effects.
type NoopScheduler struct{}

func (NoopScheduler) Schedule(ctx context.Context, activity models.Activity) error {
	return nil
}
