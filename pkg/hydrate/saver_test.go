package hydrate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/state"
)

func namedState(name string) *state.AppState {
	st := state.NewAppState()
	st.User = &state.User{Name: name, Gender: "male", Age: 20}
	return st
}

func snapshotUserName(t *testing.T, snaps store.SnapshotStore) string {
	t.Helper()
	raw, err := snaps.Read()
	require.NoError(t, err)
	if raw == "" {
		return ""
	}
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.NotNil(t, doc.User)
	return doc.User.Name
}

func TestSaverWritesLatestState(t *testing.T) {
	engine, _, snaps := newTestEngine(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	saver := NewSaver(engine, log)

	ctx, cancel := context.WithCancel(context.Background())
	go saver.Run(ctx)

	saver.Notify(namedState("first"))

	require.Eventually(t, func() bool {
		return snapshotUserName(t, snaps) == "first"
	}, 2*time.Second, 10*time.Millisecond)

	saver.Notify(namedState("second"))
	require.Eventually(t, func() bool {
		return snapshotUserName(t, snaps) == "second"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	saver.Wait()
}

func TestSaverCoalescesToLastWrite(t *testing.T) {
	engine, _, snaps := newTestEngine(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	saver := NewSaver(engine, log)

	// Queue a burst before the runner starts; only the newest may win.
	for _, name := range []string{"a", "b", "c", "final"} {
		saver.Notify(namedState(name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go saver.Run(ctx)

	require.Eventually(t, func() bool {
		return snapshotUserName(t, snaps) == "final"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	saver.Wait()
}

func TestSaverDrainDropsQueuedState(t *testing.T) {
	engine, _, snaps := newTestEngine(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	saver := NewSaver(engine, log)

	// A save queued before a reset must not be written after it, or the
	// wiped tree would come back as a snapshot full of dangling refs.
	saver.Notify(namedState("pre-reset"))
	saver.Drain()
	_, err := engine.Reset(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go saver.Run(ctx)

	require.Never(t, func() bool {
		raw, err := snaps.Read()
		return err == nil && raw != ""
	}, 300*time.Millisecond, 20*time.Millisecond)

	cancel()
	saver.Wait()
}

func TestSaverQuotaCallback(t *testing.T) {
	blobs := store.NewMemBlobStore()
	snaps := store.NewMemSnapshotStore(8)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	engine := NewEngine(blobs, snaps, log)
	saver := NewSaver(engine, log)

	quotaCh := make(chan error, 1)
	saver.OnQuota = func(err error) { quotaCh <- err }

	ctx, cancel := context.WithCancel(context.Background())
	go saver.Run(ctx)

	saver.Notify(namedState("too-big-for-slot"))

	select {
	case err := <-quotaCh:
		assert.True(t, errors.Is(err, store.ErrQuotaExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("quota callback never fired")
	}

	cancel()
	saver.Wait()
}
