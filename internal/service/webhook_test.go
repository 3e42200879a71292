package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pagesmith/pagesmith/internal/model"
)

// newTestDispatcher returns a dispatcher whose backoff sleeps are recorded
// instead of slept.
func newTestDispatcher() (*WebhookDispatcher, *[]time.Duration) {
	slept := &[]time.Duration{}
	d := NewWebhookDispatcher(discardLogger())
	d.sleep = func(dur time.Duration) { *slept = append(*slept, dur) }
	return d, slept
}

func testPages() []model.CreatedPage {
	return []model.CreatedPage{
		{ID: 1, Title: "First", URL: "http://localhost:8080/p/1"},
		{ID: 2, Title: "Second", URL: "http://localhost:8080/p/2"},
	}
}

func TestWebhookSkippedWithoutURL(t *testing.T) {
	d, slept := newTestDispatcher()

	status := d.Deliver(context.Background(), testPages(), "importer", "", "secret")
	if status != model.WebhookStatusSkipped {
		t.Errorf("got %q, want SKIPPED", status)
	}
	if len(*slept) != 0 {
		t.Error("no backoff expected when skipping")
	}
}

func TestWebhookSkippedWithoutPages(t *testing.T) {
	d, _ := newTestDispatcher()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	status := d.Deliver(context.Background(), nil, "importer", srv.URL, "secret")
	if status != model.WebhookStatusSkipped {
		t.Errorf("got %q, want SKIPPED", status)
	}
	if called {
		t.Error("no network call expected with zero pages")
	}
}

func TestWebhookDeliverySignedPayload(t *testing.T) {
	d, slept := newTestDispatcher()
	secret := "whsec_test"

	var gotBody []byte
	var gotSignature, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get(SignatureHeader)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := d.Deliver(context.Background(), testPages(), "importer", srv.URL, secret)
	if status != model.WebhookStatusSent {
		t.Fatalf("got %q, want SENT", status)
	}
	if len(*slept) != 0 {
		t.Error("no backoff expected on first-attempt success")
	}
	if gotContentType != "application/json" {
		t.Errorf("got content type %q", gotContentType)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Errorf("signature mismatch: got %q, want %q", gotSignature, want)
	}

	var payload struct {
		Event      string              `json:"event"`
		Timestamp  string              `json:"timestamp"`
		RequestID  string              `json:"request_id"`
		APIKeyName string              `json:"api_key_name"`
		TotalPages int                 `json:"total_pages"`
		Pages      []model.CreatedPage `json:"pages"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Event != "pages_created" {
		t.Errorf("got event %q", payload.Event)
	}
	if payload.APIKeyName != "importer" {
		t.Errorf("got key name %q", payload.APIKeyName)
	}
	if payload.TotalPages != 2 || len(payload.Pages) != 2 {
		t.Errorf("got total %d with %d pages", payload.TotalPages, len(payload.Pages))
	}
	if _, err := time.Parse(time.RFC3339, payload.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", payload.Timestamp, err)
	}
	if _, err := uuid.Parse(payload.RequestID); err != nil {
		t.Errorf("request_id %q is not a UUID: %v", payload.RequestID, err)
	}
	if payload.Pages[0].URL != "http://localhost:8080/p/1" {
		t.Errorf("got page URL %q", payload.Pages[0].URL)
	}
}

func TestWebhookRetriesThenSucceeds(t *testing.T) {
	d, slept := newTestDispatcher()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := d.Deliver(context.Background(), testPages(), "importer", srv.URL, "s")
	if status != model.WebhookStatusSent {
		t.Errorf("got %q, want SENT after retries", status)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("got %d backoffs %v, want %v", len(*slept), *slept, want)
	}
	for i, dur := range want {
		if (*slept)[i] != dur {
			t.Errorf("backoff %d: got %v, want %v", i, (*slept)[i], dur)
		}
	}
}

func TestWebhookAllAttemptsFail(t *testing.T) {
	d, slept := newTestDispatcher()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	status := d.Deliver(context.Background(), testPages(), "importer", srv.URL, "s")
	if status != model.WebhookStatusFailed {
		t.Errorf("got %q, want FAILED", status)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
	// No sleep after the final failure.
	if len(*slept) != 2 {
		t.Errorf("got %d backoffs %v, want 2", len(*slept), *slept)
	}
}

func TestWebhookUnreachableEndpoint(t *testing.T) {
	d, _ := newTestDispatcher()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	status := d.Deliver(context.Background(), testPages(), "importer", srv.URL, "s")
	if status != model.WebhookStatusFailed {
		t.Errorf("got %q, want FAILED for connection errors", status)
	}
}
