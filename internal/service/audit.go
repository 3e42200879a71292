package service

import (
	"context"
	"log/slog"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

// AuditLogger records the outcome of every authenticated request attempt.
// Recording is append-only and must never block or fail the response path:
// insert errors are logged and swallowed.
type AuditLogger struct {
	store  *store.Store
	logger *slog.Logger
}

func NewAuditLogger(st *store.Store, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{store: st, logger: logger}
}

// Record appends an audit entry. Errors never propagate to the caller.
func (a *AuditLogger) Record(ctx context.Context, entry *model.RequestLog) {
	if entry.WebhookStatus == "" {
		entry.WebhookStatus = model.WebhookStatusSkipped
	}
	if entry.APIKeyName == "" {
		entry.APIKeyName = "Unknown"
	}
	if err := a.store.InsertRequestLog(ctx, entry); err != nil {
		a.logger.Error("audit log insert failed",
			"endpoint", entry.Endpoint,
			"status", entry.Status,
			"error", err,
		)
	}
}
