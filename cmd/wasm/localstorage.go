//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/temancurhat/gocurhat/internal/store"
)

// localStorageSnapshot bridges the browser's localStorage into the
// SnapshotStore interface. The browser enforces the quota; a thrown
// QuotaExceededError surfaces as store.ErrQuotaExceeded.
type localStorageSnapshot struct {
	key string
}

var _ store.SnapshotStore = (*localStorageSnapshot)(nil)

func newLocalStorageSnapshot(key string) *localStorageSnapshot {
	return &localStorageSnapshot{key: key}
}

func (l *localStorageSnapshot) Read() (string, error) {
	v := js.Global().Get("localStorage").Call("getItem", l.key)
	if v.IsNull() || v.IsUndefined() {
		return "", nil
	}
	return v.String(), nil
}

func (l *localStorageSnapshot) Write(doc string) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if jsErr, ok := r.(js.Error); ok && jsErr.Value.Get("name").String() == "QuotaExceededError" {
			err = fmt.Errorf("localStorage full: %w", store.ErrQuotaExceeded)
			return
		}
		err = fmt.Errorf("localStorage write failed: %v", r)
	}()
	js.Global().Get("localStorage").Call("setItem", l.key, doc)
	return nil
}

func (l *localStorageSnapshot) Remove() error {
	js.Global().Get("localStorage").Call("removeItem", l.key)
	return nil
}
