package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/service"
	"github.com/pagesmith/pagesmith/internal/store"
)

type contextKeyAuth string

const (
	// AuthKeyContextKey is the context key for the authenticated API key.
	AuthKeyContextKey contextKeyAuth = "auth_api_key"
	// SettingsContextKey is the context key for the per-request settings
	// snapshot.
	SettingsContextKey contextKeyAuth = "settings_snapshot"
)

// Authenticate returns an HTTP middleware that loads a settings snapshot,
// runs the authentication pipeline against the request's bearer credential,
// and attaches the resolved key and the snapshot to the request context.
//
// Every pipeline failure is terminal: the error response is written, the
// attempt is audit-logged, and the handler never runs. allowToken controls
// whether signed tokens are accepted as credentials; the token issuance
// endpoint requires a raw API key.
func Authenticate(auth *service.AuthService, audit *service.AuditLogger, st *store.Store, allowToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			settings, err := st.LoadSettings(ctx)
			if err != nil {
				writeAuthError(w, &service.AuthError{
					Code:    "internal_error",
					Status:  http.StatusInternalServerError,
					Message: "Failed to load service configuration",
				})
				return
			}

			key, authFail := auth.Authenticate(ctx, r.Header.Get("Authorization"), service.AuthOptions{
				Settings:   settings,
				AllowToken: allowToken,
			})
			if authFail != nil {
				entry := &model.RequestLog{
					Endpoint:       r.URL.Path,
					Status:         model.LogStatusFailed,
					StatusCode:     authFail.Status,
					IPAddress:      ClientIP(r),
					ResponseTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
					WebhookStatus:  model.WebhookStatusSkipped,
					ErrorDetails:   &authFail.Message,
				}
				if key != nil {
					entry.APIKeyID = &key.ID
					entry.APIKeyName = key.Name
				}
				audit.Record(ctx, entry)
				writeAuthError(w, authFail)
				return
			}

			ctx = context.WithValue(ctx, AuthKeyContextKey, key)
			ctx = context.WithValue(ctx, SettingsContextKey, settings)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey extracts the authenticated key from the context. Returns nil for
// unauthenticated requests.
func GetAPIKey(ctx context.Context) *model.APIKey {
	if key, ok := ctx.Value(AuthKeyContextKey).(*model.APIKey); ok {
		return key
	}
	return nil
}

// GetSettings extracts the per-request settings snapshot from the context.
func GetSettings(ctx context.Context) model.Settings {
	if settings, ok := ctx.Value(SettingsContextKey).(model.Settings); ok {
		return settings
	}
	return model.DefaultSettings()
}

// ClientIP returns the request's client address without the port. RealIP
// middleware runs earlier in the chain, so RemoteAddr already reflects
// forwarding headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeAuthError(w http.ResponseWriter, authFail *service.AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authFail.Status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    authFail.Code,
			Status:  authFail.Status,
			Message: authFail.Message,
		},
	})
}
