package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSnapshotQuota caps the snapshot document at 4 MiB, matching the
// small-slot budget the engine is designed around.
const DefaultSnapshotQuota = 4 << 20

// FileSnapshotStore keeps the snapshot document in a single file. Writes go
// through a temp file and rename so readers never observe a partial
// document.
type FileSnapshotStore struct {
	path  string
	quota int
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore creates a file-backed snapshot slot at path.
// quota <= 0 selects DefaultSnapshotQuota.
func NewFileSnapshotStore(path string, quota int) *FileSnapshotStore {
	if quota <= 0 {
		quota = DefaultSnapshotQuota
	}
	return &FileSnapshotStore{path: path, quota: quota}
}

// Read returns the stored document, or "" when the file does not exist.
func (s *FileSnapshotStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	return string(data), nil
}

// Write replaces the snapshot file atomically, or fails whole with
// ErrQuotaExceeded when the document exceeds the quota.
func (s *FileSnapshotStore) Write(doc string) error {
	if len(doc) > s.quota {
		return fmt.Errorf("snapshot is %d bytes (limit %d): %w", len(doc), s.quota, ErrQuotaExceeded)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Remove deletes the snapshot file. Removing an absent file is a no-op.
func (s *FileSnapshotStore) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}
