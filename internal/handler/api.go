package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/pagestore"
	mw "github.com/pagesmith/pagesmith/internal/server/middleware"
	"github.com/pagesmith/pagesmith/internal/service"
	"github.com/pagesmith/pagesmith/internal/store"
)

// APIHandler serves the authenticated page-creation surface: token issuance
// and batch page creation. Both run behind the Authenticate middleware, so
// the resolved key and the settings snapshot are always in context here.
type APIHandler struct {
	store    *store.Store
	tokens   *service.TokenService
	webhooks *service.WebhookDispatcher
	audit    *service.AuditLogger
	pages    pagestore.PageStore
	logger   *slog.Logger
}

func NewAPIHandler(st *store.Store, tokens *service.TokenService, webhooks *service.WebhookDispatcher, audit *service.AuditLogger, pages pagestore.PageStore, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		store:    st,
		tokens:   tokens,
		webhooks: webhooks,
		audit:    audit,
		pages:    pages,
		logger:   logger,
	}
}

// IssueToken mints a short-lived signed token for the authenticated API key.
// Only raw keys reach this handler; tokens are not accepted as credentials
// for minting further tokens.
func (h *APIHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	key := mw.GetAPIKey(ctx)
	settings := mw.GetSettings(ctx)

	ttl := time.Duration(settings.TokenExpirationSeconds) * time.Second
	token, err := h.tokens.Issue(ctx, key, ttl)
	if err != nil {
		h.logger.Error("token issuance failed", "key_id", key.ID, "error", err)
		detail := "Token issuance failed"
		h.logRequest(ctx, r, key, model.LogStatusFailed, http.StatusInternalServerError, 0, start, &detail, model.WebhookStatusSkipped)
		writeError(w, http.StatusInternalServerError, "internal_error", detail)
		return
	}

	h.touchKey(ctx, key.ID)
	h.logRequest(ctx, r, key, model.LogStatusSuccess, http.StatusOK, 0, start, nil, model.WebhookStatusSkipped)

	writeJSON(w, http.StatusOK, model.TokenResponse{
		Success:   true,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: settings.TokenExpirationSeconds,
		ExpiresAt: time.Now().Add(ttl).UTC().Format(time.RFC3339),
	})
}

// createPagesRequest is the body of a create-pages call.
type createPagesRequest struct {
	Pages []model.PageRequest `json:"pages"`
}

// CreatePages creates each requested page, tolerating per-item failures:
// pages that fail validation or insertion produce entries in the errors
// array while the rest are created. After creation the webhook notification
// is delivered synchronously; its outcome is recorded in the audit entry
// and never surfaced to the caller as an error.
func (h *APIHandler) CreatePages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	key := mw.GetAPIKey(ctx)
	settings := mw.GetSettings(ctx)

	var req createPagesRequest
	if err := readJSON(r, &req); err != nil || req.Pages == nil {
		detail := "Missing pages array"
		h.logRequest(ctx, r, key, model.LogStatusFailed, http.StatusBadRequest, 0, start, &detail, model.WebhookStatusSkipped)
		writeError(w, http.StatusBadRequest, "invalid_params", detail)
		return
	}

	created := []model.CreatedPage{}
	itemErrors := []string{}

	for _, page := range req.Pages {
		id, url, err := h.pages.CreatePage(ctx, page.Title, page.Content, page.Status)
		if err != nil {
			itemErrors = append(itemErrors, err.Error())
			continue
		}
		created = append(created, model.CreatedPage{ID: id, Title: page.Title, URL: url})

		rec := &model.CreatedPageRecord{
			PageID:     id,
			PageTitle:  page.Title,
			PageURL:    url,
			APIKeyID:   key.ID,
			APIKeyName: key.Name,
		}
		if err := h.store.RecordCreatedPage(ctx, rec); err != nil {
			h.logger.Warn("created page attribution failed", "page_id", id, "error", err)
		}
	}

	webhookStatus := h.webhooks.Deliver(ctx, created, key.Name, settings.WebhookURL, settings.WebhookSecret)

	h.touchKey(ctx, key.ID)
	h.logRequest(ctx, r, key, model.LogStatusSuccess, http.StatusCreated, len(created), start, nil, webhookStatus)

	writeJSON(w, http.StatusCreated, model.CreatePagesResponse{
		Success: true,
		Pages:   created,
		Errors:  itemErrors,
	})
}

// touchKey bumps the key's usage counter. Counter failures are logged, never
// surfaced.
func (h *APIHandler) touchKey(ctx context.Context, id int64) {
	if err := h.store.IncrementAPIKeyUsage(ctx, id, time.Now()); err != nil {
		h.logger.Warn("usage increment failed", "key_id", id, "error", err)
	}
}

// logRequest appends the audit entry for a handled request.
func (h *APIHandler) logRequest(ctx context.Context, r *http.Request, key *model.APIKey, status string, code, pagesCreated int, start time.Time, errDetail *string, webhookStatus string) {
	entry := &model.RequestLog{
		Endpoint:       r.URL.Path,
		Status:         status,
		StatusCode:     code,
		PagesCreated:   pagesCreated,
		IPAddress:      mw.ClientIP(r),
		ResponseTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		WebhookStatus:  webhookStatus,
		ErrorDetails:   errDetail,
	}
	if key != nil {
		entry.APIKeyID = &key.ID
		entry.APIKeyName = key.Name
	}
	h.audit.Record(ctx, entry)
}
