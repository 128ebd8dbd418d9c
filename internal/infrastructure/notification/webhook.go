package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	maxErrorBody          = 512
)

// webhookPayload is the JSON posted to the messaging service
type webhookPayload struct {
	Notice  appcustody.ReadyNotice `json:"notice"`
	Message Message                `json:"message"`
}

// WebhookNotifier posts notices to an HTTP endpoint. The event ID is sent as
// Idempotency-Key so the receiver can drop redeliveries.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

// NewWebhookNotifier creates a notifier for endpoint. Zero timeout means 10s.
func NewWebhookNotifier(endpoint string, timeout time.Duration) (*WebhookNotifier, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", endpoint)
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// NotifyReady posts the notice; any non-2xx answer is an error
func (n *WebhookNotifier) NotifyReady(ctx context.Context, notice appcustody.ReadyNotice) error {
	body, err := json.Marshal(webhookPayload{Notice: notice, Message: Compose(notice)})
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", notice.EventID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
