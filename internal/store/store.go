// Package store provides the two persistence backends the hydration engine
// is built on: a durable blob store for large media payloads and a single
// small snapshot slot for the serialized state document.
package store

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by SnapshotStore.Write when the document does
// not fit in the slot. Callers distinguish it with errors.Is and must leave
// in-memory state untouched.
var ErrQuotaExceeded = errors.New("snapshot quota exceeded")

// BlobStore is an async key/payload store for externalized media. Payloads
// are opaque strings (in practice data URIs). Get returns "" with a nil
// error for absent keys; Delete is idempotent.
type BlobStore interface {
	Put(ctx context.Context, key, payload string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SnapshotStore is a synchronous single-slot document store. Read returns ""
// with a nil error when no snapshot exists. Write replaces the slot whole or
// fails with ErrQuotaExceeded, never partially.
type SnapshotStore interface {
	Read() (string, error)
	Write(doc string) error
	Remove() error
}
