// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the outcome of every finished job in a local
// SQLite database and exports it as YAML or JSON.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docbatch/pkg/types"
)

const (
	dbFile            = "history.db"
	defaultMaxResults = 20
)

// Entry is one finished job.
type Entry struct {
	ID         string          `json:"id" yaml:"id"`
	Tool       types.Tool      `json:"tool" yaml:"tool"`
	State      string          `json:"state" yaml:"state"`
	Kind       types.ErrorKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message    string          `json:"message,omitempty" yaml:"message,omitempty"`
	ItemIndex  int             `json:"item_index" yaml:"item_index"`
	Items      int             `json:"items" yaml:"items"`
	Pages      int             `json:"pages" yaml:"pages"`
	Filename   string          `json:"filename,omitempty" yaml:"filename,omitempty"`
	Bytes      int64           `json:"bytes" yaml:"bytes"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the job ran.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Store manages the history SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("history directory is not set")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.Dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the database and exports.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			state TEXT NOT NULL,
			kind TEXT,
			message TEXT,
			item_index INTEGER NOT NULL DEFAULT -1,
			items INTEGER NOT NULL DEFAULT 0,
			pages INTEGER NOT NULL DEFAULT 0,
			filename TEXT,
			bytes INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_tool ON jobs(tool)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_finished_at ON jobs(finished_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e, replacing any earlier entry with the same ID.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("history entry has no job id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, tool, state, kind, message, item_index, items, pages, filename, bytes, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			tool=excluded.tool, state=excluded.state, kind=excluded.kind,
			message=excluded.message, item_index=excluded.item_index,
			items=excluded.items, pages=excluded.pages, filename=excluded.filename,
			bytes=excluded.bytes, started_at=excluded.started_at,
			finished_at=excluded.finished_at`,
		e.ID, string(e.Tool), e.State, string(e.Kind), e.Message, e.ItemIndex,
		e.Items, e.Pages, e.Filename, e.Bytes,
		e.StartedAt.UTC().Format(time.RFC3339Nano),
		e.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", e.ID, err)
	}
	return nil
}
