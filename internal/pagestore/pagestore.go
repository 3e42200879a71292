// Package pagestore defines the content-store collaborator that performs the
// page-creation side effect, plus a SQLite-backed default implementation.
package pagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

// ErrEmptyTitle is returned when a page is submitted without a title.
var ErrEmptyTitle = errors.New("page title is required")

// PageStore creates content records. Implementations return the new record's
// ID and its public permalink.
type PageStore interface {
	CreatePage(ctx context.Context, title, content, status string) (id int64, url string, err error)
}

// Local is the built-in PageStore backed by the service's own SQLite store.
type Local struct {
	store   *store.Store
	baseURL string
}

// NewLocal creates a Local page store. baseURL is the public origin used to
// build permalinks.
func NewLocal(st *store.Store, baseURL string) *Local {
	return &Local{store: st, baseURL: strings.TrimRight(baseURL, "/")}
}

// CreatePage inserts a page record. An empty title is rejected; an empty
// status defaults to publish.
func (l *Local) CreatePage(ctx context.Context, title, content, status string) (int64, string, error) {
	if strings.TrimSpace(title) == "" {
		return 0, "", ErrEmptyTitle
	}
	if status == "" {
		status = model.PageStatusPublish
	}

	page := &model.Page{
		Title:   strings.TrimSpace(title),
		Content: content,
		Status:  status,
	}
	if err := l.store.InsertPage(ctx, page); err != nil {
		return 0, "", err
	}
	return page.ID, fmt.Sprintf("%s/p/%d", l.baseURL, page.ID), nil
}
