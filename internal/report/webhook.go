package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// WebhookPayload is the JSON body posted for one category's hits.
type WebhookPayload struct {
	Category  string                  `json:"category"`
	Threshold decimal.Decimal         `json:"threshold"`
	Hits      []model.ClassifiedEntry `json:"hits"`
	Timestamp time.Time               `json:"timestamp"`
}

// WebhookReporter posts hits as JSON to a configured URL.
type WebhookReporter struct {
	url    string
	client *http.Client
}

// NewWebhookReporter creates a reporter posting to url.
func NewWebhookReporter(url string) *WebhookReporter {
	return &WebhookReporter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Report posts the payload. Empty hit lists are not sent.
func (w *WebhookReporter) Report(ctx context.Context, category string, threshold decimal.Decimal, hits []model.ClassifiedEntry) error {
	if w.url == "" || len(hits) == 0 {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{
		Category:  category,
		Threshold: threshold,
		Hits:      hits,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "report: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "report: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "report: post webhook")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("report: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
