package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// IPRateLimit returns an HTTP middleware that caps requests per client IP
// per minute. This is an edge guard against unauthenticated flooding; the
// per-key hourly limit enforced inside the auth pipeline is separate.
func IPRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
