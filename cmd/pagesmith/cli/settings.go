package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pagesmith/pagesmith/internal/service"
	"github.com/pagesmith/pagesmith/internal/store"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change service settings",
		Long: `Settings live in the SQLite store and are read fresh on every API request,
so changes take effect without restarting the server.`,
	}

	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsRotateTokenSecretCmd())

	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow()
		},
	}
}

func runSettingsShow() error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	settings, err := st.LoadSettings(context.Background())
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	secret := "(not set)"
	if settings.WebhookSecret != "" {
		secret = "(set, hidden)"
	}
	webhookURL := settings.WebhookURL
	if webhookURL == "" {
		webhookURL = "(not set, webhooks skipped)"
	}

	fmt.Printf("%-26s %v\n", store.SettingAPIEnabled, settings.APIEnabled)
	fmt.Printf("%-26s %d\n", store.SettingRateLimitPerHour, settings.RateLimitPerHour)
	fmt.Printf("%-26s %s\n", store.SettingKeyExpirationDefault, settings.KeyExpirationDefault)
	fmt.Printf("%-26s %v\n", store.SettingTokenAuthEnabled, settings.TokenAuthEnabled)
	fmt.Printf("%-26s %d\n", store.SettingTokenExpirationSeconds, settings.TokenExpirationSeconds)
	fmt.Printf("%-26s %s\n", store.SettingWebhookURL, webhookURL)
	fmt.Printf("%-26s %s\n", store.SettingWebhookSecret, secret)
	fmt.Printf("%-26s %s\n", store.SettingBaseURL, settings.BaseURL)
	return nil
}

// settableKeys are the settings the CLI accepts for "settings set". The
// token signing secret is deliberately absent; it rotates, never sets.
var settableKeys = map[string]func(value string) error{
	store.SettingAPIEnabled:             validateBool,
	store.SettingTokenAuthEnabled:       validateBool,
	store.SettingRateLimitPerHour:       validatePositiveInt,
	store.SettingTokenExpirationSeconds: validatePositiveInt,
	store.SettingKeyExpirationDefault:   validateExpiration,
	store.SettingWebhookURL:             validateAny,
	store.SettingWebhookSecret:          validateAny,
	store.SettingBaseURL:                validateAny,
	"telemetry_enabled":                 validateBool,
}

func validateBool(v string) error {
	if _, err := strconv.ParseBool(v); err != nil {
		return fmt.Errorf("expected true or false, got %q", v)
	}
	return nil
}

func validatePositiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("expected a positive integer, got %q", v)
	}
	return nil
}

func validateExpiration(v string) error {
	if v == "never" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf(`expected "never" or a positive number of days, got %q`, v)
	}
	return nil
}

func validateAny(string) error { return nil }

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Set a setting value",
		Long: `Set a setting. For webhook_secret the value may be omitted; it is then
read from a hidden terminal prompt so the secret stays out of shell history.`,
		Example: `  pagesmith settings set rate_limit_per_hour 500
  pagesmith settings set webhook_url https://hooks.example.com/pagesmith
  pagesmith settings set webhook_secret`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			return runSettingsSet(key, value, len(args) == 2)
		},
	}
}

func runSettingsSet(key, value string, valueGiven bool) error {
	validate, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (see: pagesmith settings show)", key)
	}

	if !valueGiven {
		if key != store.SettingWebhookSecret {
			return fmt.Errorf("setting %q requires a value", key)
		}
		fmt.Print("Webhook secret: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		value = string(raw)
	}

	if err := validate(value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.SetSetting(context.Background(), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if key == store.SettingWebhookSecret {
		fmt.Println("webhook_secret updated.")
	} else {
		fmt.Printf("%s = %s\n", key, value)
	}
	return nil
}

func newSettingsRotateTokenSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-token-secret",
		Short: "Rotate the token signing secret",
		Long:  "Generate a fresh signing secret. All outstanding tokens become invalid immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsRotateTokenSecret()
		},
	}
}

func runSettingsRotateTokenSecret() error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tokens := service.NewTokenService(st)
	if err := tokens.RotateSecret(context.Background()); err != nil {
		return fmt.Errorf("rotate token secret: %w", err)
	}
	fmt.Println("Token signing secret rotated. Outstanding tokens are now invalid.")
	return nil
}
