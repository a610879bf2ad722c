package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

// SQLiteBlobStore is the durable BlobStore backed by SQLite via
// ncruces/go-sqlite3 (database/sql interface). The connection is opened
// lazily on first use; concurrent first calls share a single initialization,
// so every operation is safe to call without an explicit open step.
type SQLiteBlobStore struct {
	dsn string

	once    sync.Once
	initErr error

	mu sync.RWMutex
	db *sql.DB
}

var _ BlobStore = (*SQLiteBlobStore)(nil)

// NewSQLiteBlobStore creates a blob store for the given data source name.
// Use ":memory:" for in-memory or a file path for persistent storage. No
// connection is opened until the first operation.
func NewSQLiteBlobStore(dsn string) *SQLiteBlobStore {
	return &SQLiteBlobStore{dsn: dsn}
}

func (s *SQLiteBlobStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite3", s.dsn)
		if err != nil {
			s.initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		if _, err := db.Exec(blobSchema); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("failed to create schema: %w", err)
			return
		}
		s.db = db
	})
	return s.initErr
}

// Close closes the database connection, if one was ever opened.
func (s *SQLiteBlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores or replaces the payload for key.
func (s *SQLiteBlobStore) Put(ctx context.Context, key, payload string) error {
	if err := s.init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, err)
	}
	return nil
}

// Get returns the payload for key, or "" if the key is absent.
func (s *SQLiteBlobStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.init(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM blobs WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get blob %s: %w", key, err)
	}
	return payload, nil
}

// Delete removes the payload for key. Deleting an absent key is a no-op.
func (s *SQLiteBlobStore) Delete(ctx context.Context, key string) error {
	if err := s.init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Clear removes every stored blob.
func (s *SQLiteBlobStore) Clear(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs`); err != nil {
		return fmt.Errorf("failed to clear blobs: %w", err)
	}
	return nil
}

// Keys returns all stored keys, for inspection tooling.
func (s *SQLiteBlobStore) Keys(ctx context.Context) ([]string, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM blobs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan blob key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
