package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
)

// logRow maps 1:1 to the request_logs table. Timestamps are stored as unix
// milliseconds so window queries are plain integer comparisons.
type logRow struct {
	ID             int64   `db:"id"`
	APIKeyID       *int64  `db:"api_key_id"`
	APIKeyName     string  `db:"api_key_name"`
	Endpoint       string  `db:"endpoint"`
	Status         string  `db:"status"`
	StatusCode     int     `db:"status_code"`
	PagesCreated   int     `db:"pages_created"`
	IPAddress      string  `db:"ip_address"`
	ResponseTimeMs float64 `db:"response_time_ms"`
	WebhookStatus  string  `db:"webhook_status"`
	ErrorDetails   *string `db:"error_details"`
	CreatedAtMs    int64   `db:"created_at_ms"`
}

func logRowFromModel(e *model.RequestLog) logRow {
	return logRow{
		ID:             e.ID,
		APIKeyID:       e.APIKeyID,
		APIKeyName:     e.APIKeyName,
		Endpoint:       e.Endpoint,
		Status:         e.Status,
		StatusCode:     e.StatusCode,
		PagesCreated:   e.PagesCreated,
		IPAddress:      e.IPAddress,
		ResponseTimeMs: e.ResponseTimeMs,
		WebhookStatus:  e.WebhookStatus,
		ErrorDetails:   e.ErrorDetails,
		CreatedAtMs:    e.CreatedAt.UnixMilli(),
	}
}

func (r logRow) toModel() model.RequestLog {
	return model.RequestLog{
		ID:             r.ID,
		APIKeyID:       r.APIKeyID,
		APIKeyName:     r.APIKeyName,
		Endpoint:       r.Endpoint,
		Status:         r.Status,
		StatusCode:     r.StatusCode,
		PagesCreated:   r.PagesCreated,
		IPAddress:      r.IPAddress,
		ResponseTimeMs: r.ResponseTimeMs,
		WebhookStatus:  r.WebhookStatus,
		ErrorDetails:   r.ErrorDetails,
		CreatedAt:      time.UnixMilli(r.CreatedAtMs).UTC(),
	}
}

// InsertRequestLog appends an audit record. Entries are never updated or
// deleted.
func (s *Store) InsertRequestLog(ctx context.Context, entry *model.RequestLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	row := logRowFromModel(entry)

	const q = `INSERT INTO request_logs
		(api_key_id, api_key_name, endpoint, status, status_code, pages_created,
		 ip_address, response_time_ms, webhook_status, error_details, created_at_ms)
		VALUES
		(:api_key_id, :api_key_name, :endpoint, :status, :status_code, :pages_created,
		 :ip_address, :response_time_ms, :webhook_status, :error_details, :created_at_ms)`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get request log id: %w", err)
	}
	entry.ID = id
	return nil
}

// CountRequestLogsSince returns the number of log entries for a key with
// created_at on or after the cutoff. Both successes and failures count.
func (s *Store) CountRequestLogsSince(ctx context.Context, keyID int64, since time.Time) (int, error) {
	var count int
	const q = "SELECT COUNT(*) FROM request_logs WHERE api_key_id = ? AND created_at_ms >= ?"
	if err := s.db.GetContext(ctx, &count, q, keyID, since.UnixMilli()); err != nil {
		return 0, fmt.Errorf("count request logs: %w", err)
	}
	return count, nil
}

// ListRequestLogs returns the most recent audit entries, newest first.
func (s *Store) ListRequestLogs(ctx context.Context, limit int) ([]model.RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []logRow
	const q = "SELECT * FROM request_logs ORDER BY created_at_ms DESC, id DESC LIMIT ?"
	if err := s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}

	entries := make([]model.RequestLog, len(rows))
	for i, r := range rows {
		entries[i] = r.toModel()
	}
	return entries, nil
}
