package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"portfolio-ai/internal/domain"
)

// SQLiteStore implements domain.ResumeStore and domain.ChatbotStore on SQLite.
// Resumes are stored as JSON documents keyed by id and slug.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	inMemory := isMemoryPath(dbPath)
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("%w: create store dir: %v", domain.ErrStore, err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", domain.ErrStore, err)
	}
	if inMemory {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", domain.ErrStore, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrStore, err)
	}
	return &SQLiteStore{db: db}, nil
}

func isMemoryPath(p string) bool {
	return p == ":memory:" || strings.HasPrefix(p, "file::memory:")
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resumes (
			id         TEXT PRIMARY KEY,
			slug       TEXT NOT NULL UNIQUE,
			is_default INTEGER NOT NULL DEFAULT 0,
			data       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chatbot (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			bio        TEXT NOT NULL DEFAULT '',
			prompt     TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers a trivial query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStore, err)
	}
	return nil
}

// Chatbot returns the single chatbot configuration record. A missing or
// unusable record yields an error wrapping domain.ErrChatbotUnusable.
func (s *SQLiteStore) Chatbot(ctx context.Context) (*domain.ChatbotConfig, error) {
	var cfg domain.ChatbotConfig
	err := s.db.QueryRowContext(ctx, "SELECT bio, prompt FROM chatbot WHERE id = 1").Scan(&cfg.Bio, &cfg.Prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewDomainError("SQLiteStore.Chatbot", domain.ErrChatbotUnusable, "no chatbot record")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query chatbot: %v", domain.ErrStore, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetChatbot replaces the chatbot configuration record.
func (s *SQLiteStore) SetChatbot(ctx context.Context, cfg domain.ChatbotConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chatbot (id, bio, prompt, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET bio = excluded.bio, prompt = excluded.prompt, updated_at = excluded.updated_at`,
		cfg.Bio, cfg.Prompt, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: save chatbot: %v", domain.ErrStore, err)
	}
	return nil
}

// DefaultResume returns the resume flagged as default, or the oldest one
// when none is flagged.
func (s *SQLiteStore) DefaultResume(ctx context.Context) (*domain.Resume, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT data FROM resumes ORDER BY is_default DESC, created_at ASC, id ASC LIMIT 1")
	return scanResume(row, "SQLiteStore.DefaultResume")
}

// ResumeBySlug returns the resume with the given slug.
func (s *SQLiteStore) ResumeBySlug(ctx context.Context, slug string) (*domain.Resume, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM resumes WHERE slug = ?", slug)
	return scanResume(row, "SQLiteStore.ResumeBySlug")
}

// SaveResume inserts or replaces a resume. When isDefault is set every other
// resume loses the default flag.
func (s *SQLiteStore) SaveResume(ctx context.Context, r *domain.Resume, isDefault bool) error {
	if r.ID == "" || r.Slug == "" {
		return domain.NewDomainError("SQLiteStore.SaveResume", domain.ErrInvalidInput, "id and slug are required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if r.CreatedAt == "" {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStore, err)
	}
	defer tx.Rollback()

	if isDefault {
		if _, err := tx.ExecContext(ctx, "UPDATE resumes SET is_default = 0 WHERE id <> ?", r.ID); err != nil {
			return fmt.Errorf("%w: clear default: %v", domain.ErrStore, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO resumes (id, slug, is_default, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET slug = excluded.slug, is_default = excluded.is_default,
		   data = excluded.data, updated_at = excluded.updated_at`,
		r.ID, r.Slug, boolToInt(isDefault), string(data), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: save resume: %v", domain.ErrStore, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStore, err)
	}
	return nil
}

func scanResume(row *sql.Row, op string) (*domain.Resume, error) {
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapOp(op, domain.ErrResumeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query resume: %v", domain.ErrStore, err)
	}

	var r domain.Resume
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("%w: decode resume: %v", domain.ErrStore, err)
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var (
	_ domain.ResumeStore  = (*SQLiteStore)(nil)
	_ domain.ChatbotStore = (*SQLiteStore)(nil)
)
