package model

import "time"

// API key lifecycle states.
const (
	KeyStatusActive  = "ACTIVE"
	KeyStatusRevoked = "REVOKED"
	KeyStatusExpired = "EXPIRED"
)

// API key permission levels. Read-only keys can never create pages or
// mint tokens.
const (
	PermissionRead      = "read"
	PermissionReadWrite = "read_write"
)

// KeyPrefixLen is the number of leading plaintext characters stored as the
// non-secret lookup prefix.
const KeyPrefixLen = 8

// APIKey represents an API key used to authenticate page-creation requests.
// The raw key is never stored; only a bcrypt hash and a short prefix for
// lookup are persisted.
type APIKey struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	SecretHash   string     `json:"-" db:"secret_hash"` // bcrypt hash, never expose
	Prefix       string     `json:"prefix" db:"key_prefix"`
	Status       string     `json:"status" db:"status"`
	Permissions  string     `json:"permissions" db:"permissions"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastUsed     *time.Time `json:"last_used,omitempty" db:"last_used"`
	RequestCount int64      `json:"request_count" db:"request_count"`
}

// IsExpired reports whether the key has an expiration date in the past,
// regardless of its stored status.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// CanWrite reports whether the key may perform write operations.
func (k *APIKey) CanWrite() bool {
	return k.Permissions == PermissionReadWrite
}
