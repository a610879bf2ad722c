package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestSQLiteBlobStoreCRUD(t *testing.T) {
	s := NewSQLiteBlobStore(":memory:")
	defer s.Close()
	ctx := context.Background()

	// Get before init must lazily open and report absent
	v, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty payload for missing key, got %q", v)
	}

	if err := s.Put(ctx, "k1", "payload-1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, err = s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "payload-1" {
		t.Errorf("expected payload-1, got %q", v)
	}

	// Upsert replaces
	if err := s.Put(ctx, "k1", "payload-2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, _ = s.Get(ctx, "k1")
	if v != "payload-2" {
		t.Errorf("expected payload-2 after upsert, got %q", v)
	}

	// Delete is idempotent
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	v, _ = s.Get(ctx, "k1")
	if v != "" {
		t.Errorf("expected empty payload after delete, got %q", v)
	}
}

func TestSQLiteBlobStoreClear(t *testing.T) {
	s := NewSQLiteBlobStore(":memory:")
	defer s.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, k, "x"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	keys, _ = s.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("expected no keys after clear, got %d", len(keys))
	}
}

func TestSQLiteBlobStoreConcurrentInit(t *testing.T) {
	s := NewSQLiteBlobStore(":memory:")
	defer s.Close()
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			done <- s.Put(ctx, "key", "v")
		}(i)
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Put failed: %v", err)
		}
	}
}

func TestMemBlobStore(t *testing.T) {
	s := NewMemBlobStore()
	ctx := context.Background()

	if err := s.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, err := s.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	v, _ = s.Get(ctx, "absent")
	if v != "" {
		t.Errorf("expected empty for absent key, got %q", v)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store after clear")
	}
}

func TestMemSnapshotStoreQuota(t *testing.T) {
	s := NewMemSnapshotStore(10)

	if err := s.Write("short"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	err := s.Write(strings.Repeat("x", 11))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Slot keeps the previous document after a quota failure
	doc, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if doc != "short" {
		t.Errorf("expected previous document preserved, got %q", doc)
	}
}

func TestFileSnapshotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	s := NewFileSnapshotStore(path, 0)

	doc, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if doc != "" {
		t.Errorf("expected empty document for absent file, got %q", doc)
	}

	if err := s.Write(`{"user":{}}`); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	doc, err = s.Read()
	if err != nil || doc != `{"user":{}}` {
		t.Fatalf("Read = %q, %v", doc, err)
	}

	if err := s.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("Remove of absent file failed: %v", err)
	}
	doc, _ = s.Read()
	if doc != "" {
		t.Errorf("expected empty document after remove, got %q", doc)
	}
}

func TestFileSnapshotStoreQuota(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	s := NewFileSnapshotStore(path, 8)

	if err := s.Write("12345678"); err != nil {
		t.Fatalf("Write at quota failed: %v", err)
	}
	err := s.Write("123456789")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	doc, _ := s.Read()
	if doc != "12345678" {
		t.Errorf("expected previous document preserved, got %q", doc)
	}
}
