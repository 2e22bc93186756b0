package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore persists fields in a single-row-per-key SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
// Use ":memory:" for an in-memory database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load reads the persisted fields. Returns ErrNotFound if nothing is stored.
func (s *SQLiteStore) Load(ctx context.Context) (fields PersistedFields, err error) {
	defer func() { observe("sqlite", "load", err) }()

	var data []byte
	err = s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", RootKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PersistedFields{}, ErrNotFound
		}
		return PersistedFields{}, fmt.Errorf("query persisted state: %w", err)
	}

	return decode(data)
}

// Save upserts the persisted fields.
func (s *SQLiteStore) Save(ctx context.Context, fields PersistedFields) (err error) {
	defer func() { observe("sqlite", "save", err) }()

	data, err := encode(fields)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		RootKey, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert persisted state: %w", err)
	}

	StoreSize.WithLabelValues("sqlite").Set(float64(len(data)))
	return nil
}

// Delete removes the persisted fields.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", RootKey); err != nil {
		return fmt.Errorf("delete persisted state: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
