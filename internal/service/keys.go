package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

// KeyService owns API key generation, verification, and lifecycle changes.
type KeyService struct {
	store *store.Store
}

func NewKeyService(st *store.Store) *KeyService {
	return &KeyService{store: st}
}

// GenerateSecret produces a new API key plaintext: 32 random bytes rendered
// as 64 hex characters. The first KeyPrefixLen characters become the lookup
// prefix.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret returns a bcrypt hash of the plaintext secret.
func HashSecret(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash key secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether the plaintext matches the stored hash.
// bcrypt's comparison is constant-time.
func VerifySecret(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Create generates a new API key. expiresAt overrides the configured default
// expiration; pass nil to apply the default ("never" disables expiry). The
// plaintext is returned exactly once and never persisted. A key created with
// an expiration already in the past is stored as EXPIRED.
func (s *KeyService) Create(ctx context.Context, name string, expiresAt *time.Time, defaultExpiration string) (*model.APIKey, string, error) {
	plaintext, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	status := model.KeyStatusActive

	if expiresAt == nil && defaultExpiration != "" && defaultExpiration != model.KeyExpirationNever {
		days, convErr := strconv.Atoi(defaultExpiration)
		if convErr != nil {
			return nil, "", fmt.Errorf("invalid default expiration %q", defaultExpiration)
		}
		t := now.AddDate(0, 0, days)
		expiresAt = &t
	}
	if expiresAt != nil && expiresAt.Before(now) {
		status = model.KeyStatusExpired
	}

	key := &model.APIKey{
		Name:        name,
		SecretHash:  hash,
		Prefix:      plaintext[:model.KeyPrefixLen],
		Status:      status,
		Permissions: model.PermissionReadWrite,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, plaintext, nil
}

// Regenerate issues a fresh secret for an existing key, invalidating the old
// plaintext. Name, expiry, creation time, and last-used are preserved; the
// request count resets and the status is forced back to ACTIVE. Expired keys
// cannot be regenerated, only newly created.
func (s *KeyService) Regenerate(ctx context.Context, id int64) (*model.APIKey, string, error) {
	key, err := s.store.GetAPIKey(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if key.Status == model.KeyStatusExpired {
		return nil, "", ErrRegenerateExpiredKey
	}

	plaintext, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, "", err
	}

	if err := s.store.ReplaceAPIKeySecret(ctx, id, hash, plaintext[:model.KeyPrefixLen]); err != nil {
		return nil, "", err
	}

	key, err = s.store.GetAPIKey(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return key, plaintext, nil
}

// Revoke marks a key as REVOKED. Revoked keys fail authentication but remain
// in the store for auditability.
func (s *KeyService) Revoke(ctx context.Context, id int64) error {
	return s.store.SetAPIKeyStatus(ctx, id, model.KeyStatusRevoked)
}
