// Package store persists converted documents and their chunks in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/dgallion1/mdstruct/internal/doctree"
)

// timeLayout keeps created_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when no document has the requested ID.
var ErrNotFound = errors.New("document not found")

// DuplicateError is returned by Put when another document already holds
// the same content hash.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate content of document %s", e.ExistingID)
}

// Record is one stored document.
type Record struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	Title       string            `json:"title"`
	ContentHash string            `json:"content_hash"`
	Document    *doctree.Document `json:"document,omitempty"`
	Chunks      []doctree.Chunk   `json:"chunks,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Store manages the document database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			title TEXT,
			content_hash TEXT NOT NULL,
			tree TEXT NOT NULL,
			chunks TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`DROP INDEX IF EXISTS idx_documents_content_hash`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_content_hash_unique ON documents(content_hash)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces a record. A zero CreatedAt is set to now. If a
// different record already has the same content hash, Put stores nothing
// and returns a *DuplicateError.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return errors.New("record id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	treeJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	chunks := rec.Chunks
	if chunks == nil {
		chunks = []doctree.Chunk{}
	}
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, title, content_hash, tree, chunks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			filename=excluded.filename, title=excluded.title,
			content_hash=excluded.content_hash, tree=excluded.tree,
			chunks=excluded.chunks, created_at=excluded.created_at`,
		rec.ID, rec.Filename, rec.Title, rec.ContentHash,
		string(treeJSON), string(chunksJSON), rec.CreatedAt.UTC().Format(timeLayout),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		existing, findErr := s.FindByHash(ctx, rec.ContentHash)
		if findErr != nil {
			return fmt.Errorf("upserting document %s: %w", rec.ID, err)
		}
		return &DuplicateError{ExistingID: existing.ID}
	}
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads a full record including its tree and chunks.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, title, content_hash, tree, chunks, created_at
		 FROM documents WHERE id = ?`, id)
	return scanFull(row)
}

// FindByHash returns the record with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, title, content_hash, tree, chunks, created_at
		 FROM documents WHERE content_hash = ?
		 ORDER BY created_at DESC LIMIT 1`, hash)
	return scanFull(row)
}

// List returns summaries (no tree or chunks), newest first. A limit of
// zero or less means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, filename, title, content_hash, created_at
		FROM documents ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Title, &rec.ContentHash, &created); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record. It returns ErrNotFound if none existed.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFull(row *sql.Row) (*Record, error) {
	var rec Record
	var treeJSON, chunksJSON, created string
	err := row.Scan(&rec.ID, &rec.Filename, &rec.Title, &rec.ContentHash, &treeJSON, &chunksJSON, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(treeJSON), &rec.Document); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", rec.ID, err)
	}
	if rec.Document != nil {
		if err := doctree.Check(rec.Document.Root); err != nil {
			return nil, fmt.Errorf("document %s: malformed tree: %w", rec.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(chunksJSON), &rec.Chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks %s: %w", rec.ID, err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	return &rec, nil
}
