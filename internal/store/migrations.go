package store

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS api_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			secret_hash TEXT NOT NULL,
			key_prefix TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			permissions TEXT NOT NULL DEFAULT 'read_write',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME,
			last_used DATETIME,
			request_count INTEGER NOT NULL DEFAULT 0
		)`,

		// created_at is stored as unix milliseconds so the rate limiter's
		// sliding-window count can use plain integer comparison.
		`CREATE TABLE IF NOT EXISTS request_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			api_key_id INTEGER,
			api_key_name TEXT NOT NULL DEFAULT 'Unknown',
			endpoint TEXT NOT NULL,
			status TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			pages_created INTEGER NOT NULL DEFAULT 0,
			ip_address TEXT NOT NULL DEFAULT '',
			response_time_ms REAL NOT NULL DEFAULT 0,
			webhook_status TEXT NOT NULL DEFAULT 'SKIPPED',
			error_details TEXT,
			created_at_ms INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'publish',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS created_pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			page_id INTEGER NOT NULL,
			page_title TEXT NOT NULL,
			page_url TEXT NOT NULL,
			api_key_id INTEGER NOT NULL,
			api_key_name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_key_time ON request_logs(api_key_id, created_at_ms)`,
		`CREATE INDEX IF NOT EXISTS idx_created_pages_key ON created_pages(api_key_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return s.seedDefaultSettings()
}
