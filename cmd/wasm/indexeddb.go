//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/temancurhat/gocurhat/internal/store"
)

// indexedDBBlobs bridges the browser's IndexedDB into the BlobStore
// interface so externalized media survives page reloads. The database is
// opened lazily exactly once; concurrent first calls share the single
// initialization.
type indexedDBBlobs struct {
	dbName    string
	storeName string

	once    sync.Once
	initErr error
	db      js.Value
}

var _ store.BlobStore = (*indexedDBBlobs)(nil)

func newIndexedDBBlobs(dbName, storeName string) *indexedDBBlobs {
	return &indexedDBBlobs{dbName: dbName, storeName: storeName}
}

func (b *indexedDBBlobs) init() error {
	b.once.Do(func() {
		idb := js.Global().Get("indexedDB")
		if idb.IsUndefined() {
			b.initErr = fmt.Errorf("indexedDB not available")
			return
		}
		req := idb.Call("open", b.dbName, 1)
		upgrade := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			db := args[0].Get("target").Get("result")
			if !db.Get("objectStoreNames").Call("contains", b.storeName).Bool() {
				db.Call("createObjectStore", b.storeName)
			}
			return nil
		})
		req.Set("onupgradeneeded", upgrade)
		res, err := awaitRequest(req)
		upgrade.Release()
		if err != nil {
			b.initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		b.db = res
	})
	return b.initErr
}

// awaitRequest blocks until an IDBRequest settles. Handlers are released
// only after the request has fired them.
func awaitRequest(req js.Value) (js.Value, error) {
	type result struct {
		value js.Value
		err   error
	}
	ch := make(chan result, 1)
	success := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		ch <- result{value: req.Get("result")}
		return nil
	})
	failure := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		msg := "request failed"
		if e := req.Get("error"); e.Truthy() {
			msg = e.Get("message").String()
		}
		ch <- result{err: fmt.Errorf("%s", msg)}
		return nil
	})
	req.Set("onsuccess", success)
	req.Set("onerror", failure)
	r := <-ch
	success.Release()
	failure.Release()
	return r.value, r.err
}

func (b *indexedDBBlobs) objectStore(mode string) (js.Value, error) {
	if err := b.init(); err != nil {
		return js.Value{}, err
	}
	tx := b.db.Call("transaction", b.storeName, mode)
	return tx.Call("objectStore", b.storeName), nil
}

// Put stores or replaces the payload for key.
func (b *indexedDBBlobs) Put(_ context.Context, key, payload string) error {
	os, err := b.objectStore("readwrite")
	if err != nil {
		return err
	}
	if _, err := awaitRequest(os.Call("put", payload, key)); err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, err)
	}
	return nil
}

// Get returns the payload for key, or "" if the key is absent.
func (b *indexedDBBlobs) Get(_ context.Context, key string) (string, error) {
	os, err := b.objectStore("readonly")
	if err != nil {
		return "", err
	}
	res, err := awaitRequest(os.Call("get", key))
	if err != nil {
		return "", fmt.Errorf("failed to get blob %s: %w", key, err)
	}
	if res.IsUndefined() || res.IsNull() {
		return "", nil
	}
	return res.String(), nil
}

// Delete removes the payload for key. Deleting an absent key is a no-op.
func (b *indexedDBBlobs) Delete(_ context.Context, key string) error {
	os, err := b.objectStore("readwrite")
	if err != nil {
		return err
	}
	if _, err := awaitRequest(os.Call("delete", key)); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Clear removes every stored blob.
func (b *indexedDBBlobs) Clear(_ context.Context) error {
	os, err := b.objectStore("readwrite")
	if err != nil {
		return err
	}
	if _, err := awaitRequest(os.Call("clear")); err != nil {
		return fmt.Errorf("failed to clear blobs: %w", err)
	}
	return nil
}
