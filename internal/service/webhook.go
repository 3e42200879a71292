package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pagesmith/pagesmith/internal/model"
)

const (
	webhookEvent       = "pages_created"
	webhookTimeout     = 10 * time.Second
	webhookMaxAttempts = 3
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// webhookPayload is the JSON body delivered to the configured endpoint.
type webhookPayload struct {
	Event      string              `json:"event"`
	Timestamp  string              `json:"timestamp"`
	RequestID  string              `json:"request_id"`
	APIKeyName string              `json:"api_key_name"`
	TotalPages int                 `json:"total_pages"`
	Pages      []model.CreatedPage `json:"pages"`
}

// WebhookDispatcher delivers signed pages_created notifications with bounded
// retries. Delivery is synchronous: the caller blocks until the attempt loop
// resolves, up to roughly 36 seconds in the worst case.
type WebhookDispatcher struct {
	client *http.Client
	logger *slog.Logger

	// sleep is swapped out in tests to observe backoff timing without
	// actually waiting.
	sleep func(time.Duration)
}

func NewWebhookDispatcher(logger *slog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Deliver sends the notification for the given created pages. Returns
// SKIPPED without any network call when the URL is unset or no pages were
// created. Otherwise up to 3 attempts are made; a 2xx response on any
// attempt yields SENT. Failed attempts back off 2s then 4s; there is no
// sleep after the final failure. Delivery outcome never fails the client
// request that triggered it.
func (d *WebhookDispatcher) Deliver(ctx context.Context, pages []model.CreatedPage, keyName, url, secret string) string {
	if url == "" || len(pages) == 0 {
		return model.WebhookStatusSkipped
	}

	payload := webhookPayload{
		Event:      webhookEvent,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RequestID:  uuid.NewString(),
		APIKeyName: keyName,
		TotalPages: len(pages),
		Pages:      pages,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("webhook payload marshal failed", "error", err)
		return model.WebhookStatusFailed
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	for attempt := 1; attempt <= webhookMaxAttempts; attempt++ {
		if d.attempt(ctx, url, body, signature) {
			d.logger.Info("webhook delivered", "url", url, "attempt", attempt, "pages", len(pages))
			return model.WebhookStatusSent
		}
		if attempt < webhookMaxAttempts {
			d.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}

	d.logger.Warn("webhook delivery failed", "url", url, "attempts", webhookMaxAttempts)
	return model.WebhookStatusFailed
}

// attempt performs one POST. Success means the transport completed and the
// endpoint answered 2xx.
func (d *WebhookDispatcher) attempt(ctx context.Context, url string, body []byte, signature string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Warn("webhook request build failed", "url", url, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook attempt failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
