package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

const bearerPrefix = "Bearer "

// AuthOptions carries the per-request inputs to the pipeline.
type AuthOptions struct {
	// Settings is the immutable configuration snapshot for this request.
	Settings model.Settings
	// AllowToken enables token credentials. The token issuance endpoint
	// sets this false so only raw API keys can mint tokens.
	AllowToken bool
}

// AuthService runs the fixed-order authentication pipeline: service enabled,
// header presence, credential resolution (token first, then API key), expiry,
// status, permission, rate limit. The first failure is terminal.
type AuthService struct {
	store   *store.Store
	tokens  *TokenService
	limiter *RateLimiter
	logger  *slog.Logger
}

func NewAuthService(st *store.Store, tokens *TokenService, limiter *RateLimiter, logger *slog.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, limiter: limiter, logger: logger}
}

// Authenticate resolves and validates the bearer credential in authHeader.
// On success the resolved key record is returned. On failure the returned
// key is non-nil when resolution succeeded but a later check failed, so the
// caller can attribute the audit entry.
func (a *AuthService) Authenticate(ctx context.Context, authHeader string, opts AuthOptions) (*model.APIKey, *AuthError) {
	if !opts.Settings.APIEnabled {
		return nil, errServiceUnavailable()
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return nil, errNoAuth()
	}
	credential := strings.TrimPrefix(authHeader, bearerPrefix)
	if credential == "" {
		return nil, errNoAuth()
	}

	key, authFail := a.resolveCredential(ctx, credential, opts)
	if authFail != nil {
		return key, authFail
	}

	if fail := a.validateKey(ctx, key); fail != nil {
		return key, fail
	}

	if a.limiter.IsLimited(ctx, key.ID, opts.Settings.RateLimitPerHour) {
		return key, errRateLimitExceeded()
	}

	return key, nil
}

// resolveCredential turns the opaque bearer string into an API key record.
// When token auth is enabled the credential is tried as a signed token
// first; any token failure falls through to API key resolution so a raw key
// that happens to contain dots still authenticates.
func (a *AuthService) resolveCredential(ctx context.Context, credential string, opts AuthOptions) (*model.APIKey, *AuthError) {
	if opts.AllowToken && opts.Settings.TokenAuthEnabled {
		claims, err := a.tokens.Verify(ctx, credential)
		if err == nil {
			key, getErr := a.store.GetAPIKey(ctx, claims.KeyID)
			if getErr != nil {
				if errors.Is(getErr, store.ErrNotFound) {
					// Valid signature over a key that no longer exists.
					return nil, errInvalidAuth()
				}
				return nil, a.internalError("lookup key for token", getErr)
			}
			return key, nil
		}
	}

	if len(credential) < model.KeyPrefixLen {
		return nil, errInvalidAuth()
	}

	key, err := a.store.GetAPIKeyByPrefix(ctx, credential[:model.KeyPrefixLen])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No credential form recognized at all.
			return nil, errInvalidAuth()
		}
		return nil, a.internalError("lookup key by prefix", err)
	}

	if !VerifySecret(credential, key.SecretHash) {
		return nil, errInvalidKey()
	}
	return key, nil
}

// validateKey runs the expiry, status, and permission checks against the
// key's current stored state. The expiry check lazily flips a still-ACTIVE
// key to EXPIRED; the transition is persisted and observable.
func (a *AuthService) validateKey(ctx context.Context, key *model.APIKey) *AuthError {
	now := time.Now().UTC()

	if key.IsExpired(now) {
		if key.Status == model.KeyStatusActive {
			if err := a.store.SetAPIKeyStatus(ctx, key.ID, model.KeyStatusExpired); err != nil {
				a.logger.Warn("failed to mark key expired", "key_id", key.ID, "error", err)
			}
			key.Status = model.KeyStatusExpired
		}
		return errExpiredKey()
	}

	if key.Status != model.KeyStatusActive {
		message := "API key is " + strings.ToLower(key.Status)
		if key.Status == model.KeyStatusRevoked {
			message = "API key is revoked"
		}
		return errInvalidKeyStatus(message)
	}

	if !key.CanWrite() {
		return errInsufficientPermissions()
	}
	return nil
}

func (a *AuthService) internalError(op string, err error) *AuthError {
	a.logger.Error("auth pipeline store failure", "op", op, "error", err)
	return authErr("internal_error", http.StatusInternalServerError, "Internal authentication error")
}
