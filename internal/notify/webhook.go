package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-trader/internal/models"
)

// WebhookNotifier posts events as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type webhookPayload struct {
	Type       string    `json:"type"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Price      float64   `json:"price"`
	ExitReason string    `json:"exit_reason,omitempty"`
	PnL        float64   `json:"pnl,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Send implements Notifier.
func (w *WebhookNotifier) Send(event models.TradeEvent) error {
	body, err := json.Marshal(webhookPayload{
		Type:       string(event.Type),
		Symbol:     event.Symbol,
		Action:     string(event.Action),
		Confidence: event.Confidence,
		Price:      event.Price,
		ExitReason: string(event.ExitReason),
		PnL:        event.PnL,
		Timestamp:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
