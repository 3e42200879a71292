package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pagesmith/pagesmith/internal/model"
)

// Settings keys persisted in the settings table.
const (
	SettingWebhookURL             = "webhook_url"
	SettingWebhookSecret          = "webhook_secret"
	SettingRateLimitPerHour       = "rate_limit_per_hour"
	SettingAPIEnabled             = "api_enabled"
	SettingKeyExpirationDefault   = "key_expiration_default"
	SettingTokenAuthEnabled       = "token_auth_enabled"
	SettingTokenExpirationSeconds = "token_expiration_seconds"
	SettingTokenSigningSecret     = "token_signing_secret"
	SettingBaseURL                = "base_url"
)

func (s *Store) seedDefaultSettings() error {
	defaults := model.DefaultSettings()
	seed := map[string]string{
		SettingWebhookURL:             defaults.WebhookURL,
		SettingWebhookSecret:          defaults.WebhookSecret,
		SettingRateLimitPerHour:       strconv.Itoa(defaults.RateLimitPerHour),
		SettingAPIEnabled:             strconv.FormatBool(defaults.APIEnabled),
		SettingKeyExpirationDefault:   defaults.KeyExpirationDefault,
		SettingTokenAuthEnabled:       strconv.FormatBool(defaults.TokenAuthEnabled),
		SettingTokenExpirationSeconds: strconv.Itoa(defaults.TokenExpirationSeconds),
		SettingBaseURL:                defaults.BaseURL,
	}
	for key, value := range seed {
		if _, err := s.db.Exec(
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

// GetSetting returns a single setting value. Returns ErrNotFound when the
// key has never been set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a single setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// LoadSettings reads the full settings table into an immutable snapshot.
// Unparseable or missing values fall back to defaults. The request path
// loads one snapshot per request rather than consulting the table piecemeal.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	type kv struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	var rows []kv
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM settings"); err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := model.DefaultSettings()
	for _, row := range rows {
		switch row.Key {
		case SettingWebhookURL:
			settings.WebhookURL = row.Value
		case SettingWebhookSecret:
			settings.WebhookSecret = row.Value
		case SettingRateLimitPerHour:
			if n, err := strconv.Atoi(row.Value); err == nil && n > 0 {
				settings.RateLimitPerHour = n
			}
		case SettingAPIEnabled:
			if b, err := strconv.ParseBool(row.Value); err == nil {
				settings.APIEnabled = b
			}
		case SettingKeyExpirationDefault:
			if row.Value != "" {
				settings.KeyExpirationDefault = row.Value
			}
		case SettingTokenAuthEnabled:
			if b, err := strconv.ParseBool(row.Value); err == nil {
				settings.TokenAuthEnabled = b
			}
		case SettingTokenExpirationSeconds:
			if n, err := strconv.Atoi(row.Value); err == nil && n > 0 {
				settings.TokenExpirationSeconds = n
			}
		case SettingBaseURL:
			if row.Value != "" {
				settings.BaseURL = row.Value
			}
		}
	}
	return settings, nil
}
