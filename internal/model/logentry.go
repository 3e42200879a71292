package model

import "time"

// Request log outcomes.
const (
	LogStatusSuccess = "SUCCESS"
	LogStatusFailed  = "FAILED"
)

// Webhook delivery outcomes recorded on a request log entry.
const (
	WebhookStatusSent    = "SENT"
	WebhookStatusFailed  = "FAILED"
	WebhookStatusSkipped = "SKIPPED"
)

// RequestLog is an append-only audit record of one authenticated request
// attempt. It doubles as the rate limiter's counting source: the limiter
// counts rows per key within the trailing hour.
type RequestLog struct {
	ID             int64     `json:"id"`
	APIKeyID       *int64    `json:"api_key_id,omitempty"`
	APIKeyName     string    `json:"api_key_name"`
	Endpoint       string    `json:"endpoint"`
	Status         string    `json:"status"`
	StatusCode     int       `json:"status_code"`
	PagesCreated   int       `json:"pages_created"`
	IPAddress      string    `json:"ip_address"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	WebhookStatus  string    `json:"webhook_status"`
	ErrorDetails   *string   `json:"error_details,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
