package pagestore

import (
	"context"
	"errors"
	"testing"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/store"
)

func newTestLocal(t *testing.T) (*Local, *store.Store) {
	t.Helper()
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewLocal(st, "https://pages.example.com/"), st
}

func TestCreatePage(t *testing.T) {
	local, st := newTestLocal(t)
	ctx := context.Background()

	id, url, err := local.CreatePage(ctx, "Launch notes", "body", "")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero page ID")
	}
	// Trailing slash on the base URL is normalized away.
	want := "https://pages.example.com/p/1"
	if url != want {
		t.Errorf("got url %q, want %q", url, want)
	}

	page, err := st.GetPage(ctx, id)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Status != model.PageStatusPublish {
		t.Errorf("got status %q, want publish default", page.Status)
	}
}

func TestCreatePageEmptyTitle(t *testing.T) {
	local, _ := newTestLocal(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, _, err := local.CreatePage(context.Background(), title, "body", "")
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
}

func TestCreatePageTrimsTitle(t *testing.T) {
	local, st := newTestLocal(t)
	ctx := context.Background()

	id, _, err := local.CreatePage(ctx, "  Padded  ", "", model.PageStatusDraft)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	page, err := st.GetPage(ctx, id)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Title != "Padded" {
		t.Errorf("got title %q, want trimmed", page.Title)
	}
	if page.Status != model.PageStatusDraft {
		t.Errorf("got status %q, want draft", page.Status)
	}
}
