package model

// Default expiration choices for newly generated keys, in days.
// "never" disables default expiry.
const (
	KeyExpirationNever = "never"
)

// Settings is an immutable snapshot of the service's runtime configuration,
// loaded from the settings table once per request. Mutations happen through
// the CLI, never through the request path.
type Settings struct {
	WebhookURL             string
	WebhookSecret          string
	RateLimitPerHour       int
	APIEnabled             bool
	KeyExpirationDefault   string
	TokenAuthEnabled       bool
	TokenExpirationSeconds int
	BaseURL                string
}

// DefaultSettings returns the settings applied on first run.
func DefaultSettings() Settings {
	return Settings{
		WebhookURL:             "",
		WebhookSecret:          "",
		RateLimitPerHour:       100,
		APIEnabled:             true,
		KeyExpirationDefault:   KeyExpirationNever,
		TokenAuthEnabled:       true,
		TokenExpirationSeconds: 3600,
		BaseURL:                "http://localhost:8080",
	}
}
