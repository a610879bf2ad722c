//go:build js && wasm

package main

import (
	"context"
	"syscall/js"
	"testing"
)

func requireIndexedDB(t *testing.T) {
	t.Helper()
	if js.Global().Get("indexedDB").IsUndefined() {
		t.Skip("host has no indexedDB")
	}
}

func TestIndexedDBBlobsRoundTrip(t *testing.T) {
	requireIndexedDB(t)
	ctx := context.Background()
	blobs := newIndexedDBBlobs("gocurhat-test", "blobs")
	t.Cleanup(func() { _ = blobs.Clear(ctx) })

	if err := blobs.Put(ctx, "user-profile-pic", "data:image/png;base64,AAA"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := blobs.Get(ctx, "user-profile-pic")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "data:image/png;base64,AAA" {
		t.Errorf("got %q", got)
	}

	if err := blobs.Delete(ctx, "user-profile-pic"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = blobs.Get(ctx, "user-profile-pic")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != "" {
		t.Errorf("deleted key should read empty, got %q", got)
	}
}

func TestIndexedDBBlobsAbsentKey(t *testing.T) {
	requireIndexedDB(t)
	blobs := newIndexedDBBlobs("gocurhat-test", "blobs")
	got, err := blobs.Get(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "" {
		t.Errorf("absent key should read empty, got %q", got)
	}
}

// A second bridge over the same database must see blobs written through the
// first one, which is what a page reload amounts to.
func TestIndexedDBBlobsSurviveReopen(t *testing.T) {
	requireIndexedDB(t)
	ctx := context.Background()
	first := newIndexedDBBlobs("gocurhat-test", "blobs")
	t.Cleanup(func() { _ = first.Clear(ctx) })

	if err := first.Put(ctx, "story-s1", "data:image/jpeg;base64,BBB"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second := newIndexedDBBlobs("gocurhat-test", "blobs")
	got, err := second.Get(ctx, "story-s1")
	if err != nil {
		t.Fatalf("Get through reopened store failed: %v", err)
	}
	if got != "data:image/jpeg;base64,BBB" {
		t.Errorf("blob lost across reopen, got %q", got)
	}
}
