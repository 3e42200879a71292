package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore("") // in-memory
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateSecretShape(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("got %d chars, want 64", len(secret))
	}
	for _, c := range secret {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("non-hex character %q in secret", c)
		}
	}

	other, _ := GenerateSecret()
	if secret == other {
		t.Error("two generated secrets are identical")
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	secret, _ := GenerateSecret()

	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if hash == secret {
		t.Fatal("hash equals plaintext")
	}
	if !VerifySecret(secret, hash) {
		t.Error("correct secret did not verify")
	}
	if VerifySecret("wrong", hash) {
		t.Error("wrong secret verified")
	}
}

func TestKeyCreate(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)
	ctx := context.Background()

	key, plaintext, err := keys.Create(ctx, "importer", nil, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key.ID == 0 {
		t.Fatal("expected non-zero key ID")
	}
	if key.Status != model.KeyStatusActive {
		t.Errorf("got status %q, want ACTIVE", key.Status)
	}
	if key.ExpiresAt != nil {
		t.Error("expected no expiry with default never")
	}
	if key.Prefix != plaintext[:model.KeyPrefixLen] {
		t.Errorf("prefix %q does not match plaintext head", key.Prefix)
	}
	if !VerifySecret(plaintext, key.SecretHash) {
		t.Error("stored hash does not verify against the returned plaintext")
	}
}

func TestKeyCreateDefaultExpirationDays(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)

	key, _, err := keys.Create(context.Background(), "short-lived", nil, "30")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key.ExpiresAt == nil {
		t.Fatal("expected an expiry from the 30-day default")
	}
	want := time.Now().UTC().AddDate(0, 0, 30)
	if diff := key.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry %v not near %v", key.ExpiresAt, want)
	}
}

func TestKeyCreateAlreadyExpired(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)

	past := time.Now().UTC().Add(-24 * time.Hour)
	key, _, err := keys.Create(context.Background(), "stale", &past, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key.Status != model.KeyStatusExpired {
		t.Errorf("got status %q, want EXPIRED for a past expiry", key.Status)
	}
}

func TestKeyRegenerate(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)
	ctx := context.Background()

	key, oldPlaintext, err := keys.Create(ctx, "rotating", nil, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	regen, newPlaintext, err := keys.Regenerate(ctx, key.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if newPlaintext == oldPlaintext {
		t.Error("regenerated plaintext equals the old one")
	}
	if regen.Name != "rotating" {
		t.Errorf("name changed to %q", regen.Name)
	}
	if regen.RequestCount != 0 {
		t.Errorf("request count %d, want 0", regen.RequestCount)
	}
	if !VerifySecret(newPlaintext, regen.SecretHash) {
		t.Error("new plaintext does not verify")
	}
	if VerifySecret(oldPlaintext, regen.SecretHash) {
		t.Error("old plaintext still verifies after regenerate")
	}
}

func TestKeyRegenerateRevokedReactivates(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)
	ctx := context.Background()

	key, _, err := keys.Create(ctx, "revived", nil, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := keys.Revoke(ctx, key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	regen, _, err := keys.Regenerate(ctx, key.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if regen.Status != model.KeyStatusActive {
		t.Errorf("got status %q, want ACTIVE after regenerate", regen.Status)
	}
}

func TestKeyRegenerateExpiredRejected(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	key, _, err := keys.Create(ctx, "dead", &past, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, _, err = keys.Regenerate(ctx, key.ID)
	if !errors.Is(err, ErrRegenerateExpiredKey) {
		t.Errorf("expected ErrRegenerateExpiredKey, got %v", err)
	}
}

func TestKeyRevoke(t *testing.T) {
	st := newTestStore(t)
	keys := NewKeyService(st)
	ctx := context.Background()

	key, _, err := keys.Create(ctx, "doomed", nil, model.KeyExpirationNever)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := keys.Revoke(ctx, key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	got, err := st.GetAPIKey(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if got.Status != model.KeyStatusRevoked {
		t.Errorf("got status %q, want REVOKED", got.Status)
	}

	if err := keys.Revoke(ctx, 99999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
