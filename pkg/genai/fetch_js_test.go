//go:build js && wasm
// +build js,wasm

package genai

import (
	"context"
	"errors"
	"syscall/js"
	"testing"
	"time"
)

// installFakeFetch swaps a fetch stub into the global scope that hands the
// resolver back to the test, so settlement timing is under test control.
func installFakeFetch(t *testing.T) chan js.Value {
	t.Helper()
	resolvers := make(chan js.Value, 1)
	executor := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolvers <- args[0]
		return nil
	})
	fake := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.Global().Get("Promise").New(executor)
	})
	old := js.Global().Get("fetch")
	js.Global().Set("fetch", fake)
	t.Cleanup(func() {
		js.Global().Set("fetch", old)
		fake.Release()
		executor.Release()
	})
	return resolvers
}

func fakeResponse(text string) js.Value {
	textFn := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.Global().Get("Promise").Call("resolve", text)
	})
	resp := js.Global().Get("Object").New()
	resp.Set("text", textFn)
	return resp
}

// A fetch abandoned on cancel must tolerate the browser settling the
// promise afterwards without invoking a released callback.
func TestFetchCancelThenLateResolve(t *testing.T) {
	resolvers := installFakeFetch(t)

	svc := NewService(configWithoutKey())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.fetch(ctx, "POST", "https://example.invalid/generate", "{}")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Settle the promise after the caller has gone away. The callbacks must
	// still be alive, or the runtime panics on a released js.Func.
	resolve := <-resolvers
	resolve.Invoke(fakeResponse("late body"))
	time.Sleep(100 * time.Millisecond)
}

func TestFetchResolvedBody(t *testing.T) {
	resolvers := installFakeFetch(t)

	svc := NewService(configWithoutKey())
	done := make(chan struct{})
	var body string
	var err error
	go func() {
		body, err = svc.fetch(context.Background(), "GET", "https://example.invalid/generate", "")
		close(done)
	}()

	resolve := <-resolvers
	resolve.Invoke(fakeResponse(`{"ok":true}`))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never returned")
	}
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if body != `{"ok":true}` {
		t.Errorf("got body %q", body)
	}
}
