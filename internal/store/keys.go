package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
)

// CreateAPIKey inserts a new API key record. The secret_hash must already be
// set. The ID and CreatedAt fields are populated after insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO api_keys
		(name, secret_hash, key_prefix, status, permissions, created_at, expires_at, last_used, request_count)
		VALUES
		(:name, :secret_hash, :key_prefix, :status, :permissions, :created_at, :expires_at, :last_used, :request_count)`

	result, err := s.db.NamedExecContext(ctx, q, key)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get api key id: %w", err)
	}
	key.ID = id
	return nil
}

// GetAPIKey returns an API key by ID.
func (s *Store) GetAPIKey(ctx context.Context, id int64) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.GetContext(ctx, &key, "SELECT * FROM api_keys WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &key, nil
}

// GetAPIKeyByPrefix looks up an API key by its non-secret prefix. The full
// secret is verified separately against the stored hash. Prefixes are not
// guaranteed globally unique; a collision is resolved by the hash comparison
// failing, so the newest matching row is returned.
func (s *Store) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*model.APIKey, error) {
	var key model.APIKey
	const q = "SELECT * FROM api_keys WHERE key_prefix = ? ORDER BY id DESC LIMIT 1"
	if err := s.db.GetContext(ctx, &key, q, prefix); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all API keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, "SELECT * FROM api_keys ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// SetAPIKeyStatus updates the lifecycle status of a key. Used for revocation
// and the lazy ACTIVE->EXPIRED transition on first use of an expired key.
func (s *Store) SetAPIKeyStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("set api key status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set api key status rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAPIKeyUsage bumps request_count and touches last_used in a single
// UPDATE so concurrent requests against the same key never lose updates.
func (s *Store) IncrementAPIKeyUsage(ctx context.Context, id int64, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET request_count = request_count + 1, last_used = ? WHERE id = ?",
		now.UTC(), id)
	if err != nil {
		return fmt.Errorf("increment api key usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment api key usage rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAPIKeySecret swaps in a fresh hash and prefix for an existing key,
// forces the status back to ACTIVE, and resets the request count. Name,
// expiry, created_at, and last_used are untouched.
func (s *Store) ReplaceAPIKeySecret(ctx context.Context, id int64, secretHash, prefix string) error {
	const q = `UPDATE api_keys SET
		secret_hash = ?, key_prefix = ?, status = ?, request_count = 0
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, q, secretHash, prefix, model.KeyStatusActive, id)
	if err != nil {
		return fmt.Errorf("replace api key secret: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace api key secret rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAPIKey removes an API key record.
func (s *Store) DeleteAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
