//go:build js && wasm
// +build js,wasm

package genai

import (
	"context"
	"fmt"
	"syscall/js"
)

// fetch performs the HTTP request through the browser's fetch API, which
// handles CORS and credentials the way the hosting page expects.
func (s *Service) fetch(ctx context.Context, method, url, body string) (string, error) {
	jsFetch := js.Global().Get("fetch")
	if jsFetch.IsUndefined() {
		return "", fmt.Errorf("fetch not available")
	}

	headers := js.Global().Get("Object").New()
	headers.Set("Content-Type", "application/json")

	options := js.Global().Get("Object").New()
	options.Set("method", method)
	options.Set("headers", headers)
	if body != "" {
		options.Set("body", body)
	}

	promise := jsFetch.Invoke(url, options)

	type result struct {
		text string
		err  error
	}
	resultCh := make(chan result, 1)

	// All callbacks are declared before the chain is wired so none is read
	// before assignment, and they are released only after the chain has
	// settled. The browser may still resolve the promise after ctx is
	// canceled, so an early return must not release them.
	var then, catch, textThen js.Func
	textThen = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resultCh <- result{text: args[0].String()}
		return nil
	})
	then = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		args[0].Call("text").Call("then", textThen)
		return nil
	})
	catch = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resultCh <- result{err: fmt.Errorf("%s", args[0].Get("message").String())}
		return nil
	})
	promise.Call("then", then).Call("catch", catch)

	release := func() {
		then.Release()
		catch.Release()
		textThen.Release()
	}

	select {
	case <-ctx.Done():
		// Keep the funcs alive until the abandoned promise settles.
		go func() {
			<-resultCh
			release()
		}()
		return "", ctx.Err()
	case r := <-resultCh:
		release()
		return r.text, r.err
	}
}
