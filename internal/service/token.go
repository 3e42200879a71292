package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

// tokenType is written into the token header's typ field.
const tokenType = "TOKEN"

// TokenClaims is the payload carried by a signed short-lived token. The
// referenced key is re-validated against the store on every use; a valid
// token wrapping a revoked or expired key is rejected.
type TokenClaims struct {
	KeyID       int64  `json:"key_id"`
	KeyName     string `json:"key_name"`
	Permissions string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenService encodes and verifies HMAC-SHA256 signed bearer tokens. The
// signing secret is process-wide, generated once, and persisted in the
// settings table.
type TokenService struct {
	store *store.Store
}

func NewTokenService(st *store.Store) *TokenService {
	return &TokenService{store: st}
}

// signingSecret returns the persisted signing secret, generating and
// persisting a fresh 256-bit one on first use.
func (s *TokenService) signingSecret(ctx context.Context) ([]byte, error) {
	value, err := s.store.GetSetting(ctx, store.SettingTokenSigningSecret)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if value == "" {
		value, err = newSigningSecret()
		if err != nil {
			return nil, err
		}
		if err := s.store.SetSetting(ctx, store.SettingTokenSigningSecret, value); err != nil {
			return nil, err
		}
	}
	return []byte(value), nil
}

func newSigningSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RotateSecret replaces the signing secret, invalidating all outstanding
// tokens.
func (s *TokenService) RotateSecret(ctx context.Context) error {
	secret, err := newSigningSecret()
	if err != nil {
		return err
	}
	return s.store.SetSetting(ctx, store.SettingTokenSigningSecret, secret)
}

// Issue mints a signed token for the given key with the given lifetime.
// Issued-at and not-before are set to now, expiry to now+ttl.
func (s *TokenService) Issue(ctx context.Context, key *model.APIKey, ttl time.Duration) (string, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := TokenClaims{
		KeyID:       key.ID,
		KeyName:     key.Name,
		Permissions: key.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["typ"] = tokenType

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes and validates a token, returning its claims. Failures map
// onto the token error sentinels: structural problems, algorithm mismatches,
// bad signatures, and time-bound violations are all distinguished.
func (s *TokenService) Verify(ctx context.Context, tokenStr string) (*TokenClaims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, ErrMalformedToken
	}

	secret, err := s.signingSecret(ctx)
	if err != nil {
		return nil, err
	}

	claims := &TokenClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupportedAlgorithm
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedAlgorithm),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrUnsupportedAlgorithm
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, ErrMalformedPayload
		}
	}
	return claims, nil
}
