package service

import (
	"errors"
	"net/http"
)

// AuthError is a terminal authentication pipeline failure. Code is a stable
// machine-readable identifier; Status is the HTTP status the handler layer
// responds with.
type AuthError struct {
	Code    string
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func authErr(code string, status int, message string) *AuthError {
	return &AuthError{Code: code, Status: status, Message: message}
}

// Pipeline failures, in check order. Every failure short-circuits the request.
func errServiceUnavailable() *AuthError {
	return authErr("service_unavailable", http.StatusServiceUnavailable, "API is currently disabled")
}

func errNoAuth() *AuthError {
	return authErr("no_auth", http.StatusUnauthorized, "Missing or invalid Authorization header")
}

func errInvalidAuth() *AuthError {
	return authErr("invalid_auth", http.StatusUnauthorized, "Invalid authentication token or API key")
}

func errInvalidKey() *AuthError {
	return authErr("invalid_key", http.StatusForbidden, "Invalid API key")
}

func errExpiredKey() *AuthError {
	return authErr("expired_key", http.StatusForbidden, "API key has expired")
}

func errInvalidKeyStatus(message string) *AuthError {
	return authErr("invalid_key_status", http.StatusForbidden, message)
}

func errInsufficientPermissions() *AuthError {
	return authErr("insufficient_permissions", http.StatusForbidden, "This key does not have write permissions")
}

func errRateLimitExceeded() *AuthError {
	return authErr("rate_limit", http.StatusTooManyRequests, "Rate limit exceeded")
}

// Token verification failures. All of them collapse to errInvalidAuth at the
// pipeline boundary; the distinct sentinels exist for token-endpoint tests
// and logging.
var (
	ErrMalformedToken       = errors.New("malformed token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrBadSignature         = errors.New("invalid token signature")
	ErrMalformedPayload     = errors.New("malformed token payload")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenNotYetValid     = errors.New("token not yet valid")
)

// Key management failures.
var (
	ErrRegenerateExpiredKey = errors.New("cannot regenerate an expired key")
)
