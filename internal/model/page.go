package model

import "time"

// Page statuses accepted by the page store.
const (
	PageStatusPublish = "publish"
	PageStatusDraft   = "draft"
)

// Page is a content record created through the API.
type Page struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PageRequest is one page entry in a create-pages request body.
type PageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
}

// CreatedPage is the per-page result returned to the caller and included in
// the webhook payload.
type CreatedPage struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CreatedPageRecord attributes a created page to the API key that created it.
type CreatedPageRecord struct {
	ID         int64     `json:"id" db:"id"`
	PageID     int64     `json:"page_id" db:"page_id"`
	PageTitle  string    `json:"page_title" db:"page_title"`
	PageURL    string    `json:"page_url" db:"page_url"`
	APIKeyID   int64     `json:"api_key_id" db:"api_key_id"`
	APIKeyName string    `json:"api_key_name" db:"api_key_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
