// Package notify relays workflow events to a chat space through an incoming
// webhook. An empty webhook URL turns every call into a no-op.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 1 << 10

// Notifier posts a text message somewhere people will read it
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Config holds webhook settings
type Config struct {
	WebhookURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// WebhookNotifier posts {"text": ...} payloads to a chat webhook
type WebhookNotifier struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(config Config, logger *zap.Logger) *WebhookNotifier {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Enabled reports whether a webhook URL is configured
func (n *WebhookNotifier) Enabled() bool {
	return n.config.WebhookURL != ""
}

type message struct {
	Text string `json:"text"`
}

// Notify posts text to the webhook with email addresses and phone numbers
// redacted. Server errors and transport failures are retried with a linear
// backoff; client errors are returned at once.
func (n *WebhookNotifier) Notify(ctx context.Context, text string) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(message{Text: Redact(text)})
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.config.RetryDelay * time.Duration(attempt)):
			}
		}

		retry, err := n.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}

		n.logger.Debug("chat webhook attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("chat webhook failed: %w", lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode >= 500, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}

// Nop discards every message
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, string) error { return nil }
