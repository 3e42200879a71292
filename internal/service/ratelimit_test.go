package service

import (
	"context"
	"testing"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

func insertLogAt(t *testing.T, st *store.Store, keyID int64, status string, at time.Time) {
	t.Helper()
	entry := &model.RequestLog{
		APIKeyID:      &keyID,
		APIKeyName:    "limited",
		Endpoint:      "/api/v1/create-pages",
		Status:        status,
		StatusCode:    201,
		WebhookStatus: model.WebhookStatusSkipped,
		CreatedAt:     at,
	}
	if err := st.InsertRequestLog(context.Background(), entry); err != nil {
		t.Fatalf("InsertRequestLog: %v", err)
	}
}

func TestRateLimiterUnderLimit(t *testing.T) {
	st := newTestStore(t)
	limiter := NewRateLimiter(st, discardLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-time.Minute))
	}

	if limiter.IsLimited(ctx, 1, 5) {
		t.Error("4 of 5 requests used, should not be limited")
	}
	if !limiter.IsLimited(ctx, 1, 4) {
		t.Error("4 of 4 requests used, should be limited")
	}
}

func TestRateLimiterCountsFailures(t *testing.T) {
	st := newTestStore(t)
	limiter := NewRateLimiter(st, discardLogger())

	now := time.Now().UTC()
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-time.Minute))
	insertLogAt(t, st, 1, model.LogStatusFailed, now.Add(-time.Minute))

	if !limiter.IsLimited(context.Background(), 1, 2) {
		t.Error("failed requests must count against the limit")
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	st := newTestStore(t)
	limiter := NewRateLimiter(st, discardLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	// Two entries just outside the hour, one inside.
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-61*time.Minute))
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-2*time.Hour))
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-30*time.Minute))

	if limiter.IsLimited(ctx, 1, 2) {
		t.Error("entries outside the trailing hour must not count")
	}
	if !limiter.IsLimited(ctx, 1, 1) {
		t.Error("the in-window entry must count")
	}
}

func TestRateLimiterPerKeyIsolation(t *testing.T) {
	st := newTestStore(t)
	limiter := NewRateLimiter(st, discardLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-time.Minute))
	insertLogAt(t, st, 1, model.LogStatusSuccess, now.Add(-time.Minute))

	if !limiter.IsLimited(ctx, 1, 2) {
		t.Error("key 1 should be limited")
	}
	if limiter.IsLimited(ctx, 2, 2) {
		t.Error("key 2 has no traffic and must not be limited")
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	st := newTestStore(t)
	limiter := NewRateLimiter(st, discardLogger())

	// A closed store makes the count query fail; the limiter must allow the
	// request rather than reject on infrastructure errors.
	st.Close()
	if limiter.IsLimited(context.Background(), 1, 1) {
		t.Error("store failure must fail open")
	}
}
