package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"portfolio-ai/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("file::memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResume(id, slug, name string) *domain.Resume {
	return &domain.Resume{
		ID:      id,
		Slug:    slug,
		Name:    name,
		Summary: "Backend engineer.",
		Skills:  map[string][]string{"languages": {"Go", "SQL"}},
		SideProjects: domain.SideProjects{
			{Title: "kv", Summary: "A toy key-value store", Links: map[string]string{"github": "https://example.com/kv"}},
		},
	}
}

func TestSQLiteStore_Chatbot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Chatbot(ctx)
	if !errors.Is(err, domain.ErrChatbotUnusable) {
		t.Fatalf("missing record: got %v, want ErrChatbotUnusable", err)
	}

	if err := s.SetChatbot(ctx, domain.ChatbotConfig{Bio: "Software engineer", Prompt: "Be concise."}); err != nil {
		t.Fatalf("SetChatbot: %v", err)
	}
	cfg, err := s.Chatbot(ctx)
	if err != nil {
		t.Fatalf("Chatbot: %v", err)
	}
	if cfg.Bio != "Software engineer" || cfg.Prompt != "Be concise." {
		t.Errorf("Chatbot = %+v", cfg)
	}

	if err := s.SetChatbot(ctx, domain.ChatbotConfig{Bio: "Software engineer", Prompt: "  "}); err != nil {
		t.Fatalf("SetChatbot: %v", err)
	}
	if _, err := s.Chatbot(ctx); !errors.Is(err, domain.ErrChatbotUnusable) {
		t.Errorf("blank prompt: got %v, want ErrChatbotUnusable", err)
	}
}

func TestSQLiteStore_Resumes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.DefaultResume(ctx); !errors.Is(err, domain.ErrResumeNotFound) {
		t.Fatalf("empty store: got %v, want ErrResumeNotFound", err)
	}

	if err := s.SaveResume(ctx, sampleResume("1", "jane", "Jane Doe"), false); err != nil {
		t.Fatalf("SaveResume: %v", err)
	}
	if err := s.SaveResume(ctx, sampleResume("2", "john", "John Roe"), true); err != nil {
		t.Fatalf("SaveResume: %v", err)
	}

	def, err := s.DefaultResume(ctx)
	if err != nil {
		t.Fatalf("DefaultResume: %v", err)
	}
	if def.Slug != "john" {
		t.Errorf("DefaultResume slug = %q, want john", def.Slug)
	}

	got, err := s.ResumeBySlug(ctx, "jane")
	if err != nil {
		t.Fatalf("ResumeBySlug: %v", err)
	}
	if got.Name != "Jane Doe" || len(got.SideProjects) != 1 || got.Skills["languages"][0] != "Go" {
		t.Errorf("ResumeBySlug = %+v", got)
	}
	if got.CreatedAt == "" || got.UpdatedAt == "" {
		t.Error("timestamps should be set on save")
	}

	_, err = s.ResumeBySlug(ctx, "nobody")
	if !errors.Is(err, domain.ErrResumeNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown slug: got %v", err)
	}

	// Re-flag the first resume as default.
	if err := s.SaveResume(ctx, sampleResume("1", "jane", "Jane Doe"), true); err != nil {
		t.Fatalf("SaveResume: %v", err)
	}
	def, _ = s.DefaultResume(ctx)
	if def.Slug != "jane" {
		t.Errorf("DefaultResume slug = %q, want jane", def.Slug)
	}
}

func TestSQLiteStore_SaveResumeRequiresKeys(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveResume(context.Background(), &domain.Resume{Name: "x"}, false)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Errorf("Ping after close: got %v, want ErrStore", err)
	}
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	ctx := context.Background()
	if err := s.SaveResume(ctx, sampleResume("1", "jane", "Jane Doe"), true); err != nil {
		t.Fatalf("SaveResume: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.DefaultResume(ctx); err != nil {
		t.Errorf("DefaultResume after reopen: %v", err)
	}
}
