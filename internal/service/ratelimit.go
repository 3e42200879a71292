package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagesmith/pagesmith/internal/store"
)

// rateLimitWindow is the trailing window the limiter counts over. The window
// boundary moves continuously; there are no fixed buckets.
const rateLimitWindow = time.Hour

// RateLimiter blocks a key once it has accumulated limitPerHour request log
// entries (successes and failures alike) within the trailing hour.
type RateLimiter struct {
	store  *store.Store
	logger *slog.Logger
}

func NewRateLimiter(st *store.Store, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{store: st, logger: logger}
}

// IsLimited reports whether the key's next request would exceed the hourly
// limit. The count is taken from the store at invocation time, never cached.
// Two concurrent requests can both pass the check and overshoot by one; the
// limit is a soft admission guarantee. A counting failure lets the request
// through rather than rejecting on a store error.
func (r *RateLimiter) IsLimited(ctx context.Context, keyID int64, limitPerHour int) bool {
	since := time.Now().UTC().Add(-rateLimitWindow)
	count, err := r.store.CountRequestLogsSince(ctx, keyID, since)
	if err != nil {
		r.logger.Warn("rate limit count failed, allowing request", "key_id", keyID, "error", err)
		return false
	}
	return count >= limitPerHour
}
