package store

import (
	"context"
	"sync"
)

// MemBlobStore is an in-memory BlobStore. Used in tests and as a volatile
// fallback when no durable backend is available.
type MemBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

var _ BlobStore = (*MemBlobStore)(nil)

// NewMemBlobStore creates an empty in-memory blob store.
func NewMemBlobStore() *MemBlobStore {
	return &MemBlobStore{blobs: make(map[string]string)}
}

// Put stores or replaces the payload for key.
func (s *MemBlobStore) Put(_ context.Context, key, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = payload
	return nil
}

// Get returns the payload for key, or "" if absent.
func (s *MemBlobStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blobs[key], nil
}

// Delete removes the payload for key.
func (s *MemBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Clear removes every stored blob.
func (s *MemBlobStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string]string)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// MemSnapshotStore is an in-memory SnapshotStore with a byte quota,
// mirroring the capacity behavior of the browser-backed slot.
type MemSnapshotStore struct {
	mu    sync.RWMutex
	doc   string
	has   bool
	quota int
}

var _ SnapshotStore = (*MemSnapshotStore)(nil)

// NewMemSnapshotStore creates an empty snapshot slot. quota <= 0 means
// unlimited.
func NewMemSnapshotStore(quota int) *MemSnapshotStore {
	return &MemSnapshotStore{quota: quota}
}

// Read returns the stored document, or "" when the slot is empty.
func (s *MemSnapshotStore) Read() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return "", nil
	}
	return s.doc, nil
}

// Write replaces the slot contents, or fails whole with ErrQuotaExceeded.
func (s *MemSnapshotStore) Write(doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 && len(doc) > s.quota {
		return ErrQuotaExceeded
	}
	s.doc = doc
	s.has = true
	return nil
}

// Remove empties the slot.
func (s *MemSnapshotStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = ""
	s.has = false
	return nil
}
