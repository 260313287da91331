// Package sqlite reads elements from a SQLite table of JSON payloads.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"gtasync/internal/source/core"
	"gtasync/pkg/domain"
)

const defaultPath = "gtasync.db"

// Store serves elements from the elements table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating when needed) the database at path and ensures the
// elements table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS elements (
		id INTEGER PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create elements table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file in use.
func (s *Store) Path() string { return s.path }

// Save upserts e.
func (s *Store) Save(ctx context.Context, e domain.Element) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode element %d: %w", e.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO elements (id, payload) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		e.ID, payload)
	if err != nil {
		return fmt.Errorf("save element %d: %w", e.ID, err)
	}
	return nil
}

// FetchElement implements core.Fetcher.
func (s *Store) FetchElement(ctx context.Context, id int64) (domain.Element, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM elements WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Element{}, core.NotFound(id)
	}
	if err != nil {
		return domain.Element{}, fmt.Errorf("select element %d: %w", id, err)
	}
	return core.Decode(id, payload)
}

// Driver implements core.Fetcher.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Close implements core.Fetcher.
func (s *Store) Close() error { return s.db.Close() }
