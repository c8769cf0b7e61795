// Package store persists analyzed papers in SQLite. A *Store is opened once
// by the caller and passed to whoever needs it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no paper has the requested id.
var ErrNotFound = errors.New("paper not found")

// Paper is the stored metadata for one uploaded document.
type Paper struct {
	ID          string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PaperTitle  string    `json:"paper_title"`
	CharCount   int       `json:"char_count"`
	NumSections int       `json:"num_sections"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Sections []sections.DisplaySection `json:"sections,omitempty"`
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps the SQLite handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL,
	paper_title  TEXT NOT NULL,
	char_count   INTEGER NOT NULL,
	num_sections INTEGER NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_papers_hash ON papers(content_hash);
CREATE INDEX IF NOT EXISTS idx_papers_created ON papers(created_at);

CREATE TABLE IF NOT EXISTS sections (
	paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	title    TEXT NOT NULL,
	name     TEXT NOT NULL,
	content  TEXT NOT NULL,
	PRIMARY KEY (paper_id, position)
);
`

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Info("paper store ready", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) bool {
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn("store ping failed", "error", err)
		return false
	}
	return true
}

// Insert stores p with its sections and returns the new id. p.ID and
// p.CreatedAt are filled in when empty.
func (s *Store) Insert(ctx context.Context, p Paper) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.NumSections == 0 {
		p.NumSections = len(p.Sections)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, filename, content_type, size_bytes, paper_title, char_count, num_sections, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Filename, p.ContentType, p.SizeBytes, p.PaperTitle, p.CharCount, p.NumSections, p.ContentHash,
		p.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert paper: %w", err)
	}

	for i, sec := range p.Sections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (paper_id, position, title, name, content) VALUES (?, ?, ?, ?, ?)`,
			p.ID, i, sec.Title, sec.Name, sec.Content,
		); err != nil {
			return "", fmt.Errorf("insert section %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit insert: %w", err)
	}
	return p.ID, nil
}

// Get returns a paper with its sections.
func (s *Store) Get(ctx context.Context, id string) (*Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, content_type, size_bytes, paper_title, char_count, num_sections, content_hash, created_at
		 FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get paper %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, name, content FROM sections WHERE paper_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get sections %s: %w", id, err)
	}
	defer rows.Close()

	p.Sections = []sections.DisplaySection{}
	for rows.Next() {
		var sec sections.DisplaySection
		if err := rows.Scan(&sec.Title, &sec.Name, &sec.Content); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		p.Sections = append(p.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sections %s: %w", id, err)
	}
	return p, nil
}

// List returns paper metadata (without sections), newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, content_type, size_bytes, paper_title, char_count, num_sections, content_hash, created_at
		 FROM papers ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	papers := []Paper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

// FindByHash returns the id of a paper with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM papers WHERE content_hash = ? ORDER BY created_at LIMIT 1`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return id, true, nil
}

// Delete removes a paper and its sections.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete paper %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete paper %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every paper and returns how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers`)
	if err != nil {
		return 0, fmt.Errorf("delete all papers: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(sc scanner) (*Paper, error) {
	var p Paper
	var created string
	if err := sc.Scan(&p.ID, &p.Filename, &p.ContentType, &p.SizeBytes, &p.PaperTitle,
		&p.CharCount, &p.NumSections, &p.ContentHash, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	p.CreatedAt = t
	return &p, nil
}

// Count returns the number of stored papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count papers: %w", err)
	}
	return n, nil
}
