package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagesmith/pagesmith/internal/model"
)

// InsertPage creates a content record. The ID and CreatedAt fields are
// populated after insert.
func (s *Store) InsertPage(ctx context.Context, page *model.Page) error {
	page.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO pages (title, content, status, created_at)
		VALUES (:title, :content, :status, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, page)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get page id: %w", err)
	}
	page.ID = id
	return nil
}

// GetPage returns a page by ID.
func (s *Store) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	var page model.Page
	if err := s.db.GetContext(ctx, &page, "SELECT * FROM pages WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &page, nil
}

// RecordCreatedPage attributes a created page to the API key that made the
// request.
func (s *Store) RecordCreatedPage(ctx context.Context, rec *model.CreatedPageRecord) error {
	rec.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO created_pages
		(page_id, page_title, page_url, api_key_id, api_key_name, created_at)
		VALUES
		(:page_id, :page_title, :page_url, :api_key_id, :api_key_name, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, rec)
	if err != nil {
		return fmt.Errorf("record created page: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get created page id: %w", err)
	}
	rec.ID = id
	return nil
}

// CountCreatedPages returns the total number of pages created through the API.
func (s *Store) CountCreatedPages(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM created_pages"); err != nil {
		return 0, fmt.Errorf("count created pages: %w", err)
	}
	return count, nil
}

// ListCreatedPages returns created-page attribution records, newest first.
func (s *Store) ListCreatedPages(ctx context.Context, limit int) ([]model.CreatedPageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []model.CreatedPageRecord
	const q = "SELECT * FROM created_pages ORDER BY id DESC LIMIT ?"
	if err := s.db.SelectContext(ctx, &recs, q, limit); err != nil {
		return nil, fmt.Errorf("list created pages: %w", err)
	}
	return recs, nil
}
