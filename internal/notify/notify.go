// Package notify publishes rendered alerts and summaries to the chat
// platform. Publishing is fire-and-forget from the recording path: failures
// are logged by callers, never propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notifier delivers a block of text to the announcement channel.
type Notifier interface {
	Publish(ctx context.Context, text string) error
}

// WebhookNotifier posts messages to a chat webhook URL as {"content": text}.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier builds a notifier for the given webhook URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish posts the text to the webhook.
func (n *WebhookNotifier) Publish(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes messages to the process log. Used when no webhook is
// configured.
type LogNotifier struct {
	Logger *log.Logger
}

// Publish logs the text.
func (n *LogNotifier) Publish(_ context.Context, text string) error {
	n.Logger.Printf("Announcement:\n%s", text)
	return nil
}
