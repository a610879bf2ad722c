package hydrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// Stage is the engine lifecycle phase.
type Stage int32

const (
	StageUninitialized Stage = iota
	StageLoading
	StageReady
)

// Engine orchestrates load, save, and reset over the two stores. Both store
// handles are injected; the engine owns neither.
type Engine struct {
	blobs store.BlobStore
	snaps store.SnapshotStore
	log   *logrus.Entry

	mu    sync.Mutex
	stage Stage
}

// NewEngine builds an engine over the given stores.
func NewEngine(blobs store.BlobStore, snaps store.SnapshotStore, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		blobs: blobs,
		snaps: snaps,
		log:   log.WithField("component", "hydrate"),
	}
}

// Stage returns the current lifecycle phase.
func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) setStage(s Stage) {
	e.mu.Lock()
	e.stage = s
	e.mu.Unlock()
}

// Load restores the state tree from the snapshot, rehydrating media from
// the blob store. Load never fails: an absent snapshot yields the fresh
// default tree, and a corrupt or schema-invalid snapshot is logged,
// removed, and replaced by the fresh tree. The engine is READY afterwards
// in every case.
func (e *Engine) Load(ctx context.Context) *state.AppState {
	e.setStage(StageLoading)
	defer e.setStage(StageReady)

	raw, err := e.snaps.Read()
	if err != nil {
		e.log.WithError(err).Warn("snapshot read failed, starting fresh")
		return state.NewAppState()
	}
	if raw == "" {
		return state.NewAppState()
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		e.log.WithError(err).Warn("snapshot unusable, removing and starting fresh")
		if rerr := e.snaps.Remove(); rerr != nil {
			e.log.WithError(rerr).Warn("failed to remove bad snapshot")
		}
		return state.NewAppState()
	}

	inline(ctx, e.blobs, e.log, doc)
	return e.assemble(doc)
}

// assemble turns a hydrated document into the live tree, merging settings
// with current defaults and rebuilding derived caches.
func (e *Engine) assemble(doc *Document) *state.AppState {
	st := state.NewAppState()
	st.User = doc.User
	st.Contacts = doc.Contacts
	if st.Contacts == nil {
		st.Contacts = []*state.AIContact{}
	}

	if doc.ImageCreator != nil {
		if len(doc.ImageCreator.Messages) > 0 {
			st.ImageCreator.Messages = doc.ImageCreator.Messages
		}
		st.ImageCreator.Settings = mergeImageSettings(doc.ImageCreator.Settings)
	}
	rebuildGeneratedImages(&st.ImageCreator)

	if doc.RemoveBg != nil && len(doc.RemoveBg.Messages) > 0 {
		st.RemoveBg.Messages = doc.RemoveBg.Messages
	}
	if doc.CreatorTools != nil {
		if len(doc.CreatorTools.Messages) > 0 {
			st.CreatorTools.Messages = doc.CreatorTools.Messages
		}
		if doc.CreatorTools.Settings.Mode != "" {
			st.CreatorTools.Settings = doc.CreatorTools.Settings
		}
	}
	if doc.VideoGen != nil {
		if len(doc.VideoGen.Messages) > 0 {
			st.VideoGen.Messages = doc.VideoGen.Messages
		}
		st.VideoGen.Settings = mergeVideoGenSettings(doc.VideoGen.Settings)
	}

	if doc.ActiveScreen != "" {
		st.ActiveScreen = doc.ActiveScreen
	}
	st.ActiveChat = e.restoreActiveChat(doc, st)
	return st
}

// restoreActiveChat re-opens the previously active chat only if its target
// still exists; a dangling pointer falls back to no chat on the default
// screen.
func (e *Engine) restoreActiveChat(doc *Document, st *state.AppState) state.ActiveChat {
	if doc.ActiveChat == nil || doc.ActiveChat.ID == "" {
		return state.ActiveChat{}
	}
	ac := *doc.ActiveChat
	switch ac.Type {
	case state.ChatTypeContact:
		if st.Contact(ac.ID) != nil {
			return ac
		}
	case state.ChatTypeTool:
		if state.IsToolID(ac.ID) {
			return ac
		}
	}
	e.log.WithField("chat", ac.ID).Info("active chat no longer exists, ignoring")
	return state.ActiveChat{}
}

// mergeImageSettings fills settings fields absent from an older snapshot
// with current defaults. Present values always win.
func mergeImageSettings(s state.ImageSettings) state.ImageSettings {
	def := state.DefaultImageSettings()
	if s.Quality == "" {
		s.Quality = def.Quality
	}
	if s.Style == "" {
		s.Style = def.Style
	}
	if s.AspectRatio == "" {
		s.AspectRatio = def.AspectRatio
	}
	if s.CameraAngle == "" {
		s.CameraAngle = def.CameraAngle
	}
	if s.ShotType == "" {
		s.ShotType = def.ShotType
	}
	return s
}

func mergeVideoGenSettings(s state.VideoGenSettings) state.VideoGenSettings {
	def := state.DefaultVideoGenSettings()
	if s.Orientation == "" {
		s.Orientation = def.Orientation
	}
	if s.VideoModel == "" {
		s.VideoModel = def.VideoModel
	}
	return s
}

// Save persists the tree: media is externalized to the blob store, then the
// reduced document is written to the snapshot slot. A quota failure is
// returned wrapping store.ErrQuotaExceeded; the caller's in-memory state is
// never touched (Save works on a clone throughout). Saving before a user
// profile exists is a no-op.
func (e *Engine) Save(ctx context.Context, st *state.AppState) error {
	if st == nil || st.User == nil {
		return nil
	}
	doc := buildDocument(st.Clone())
	if err := externalize(ctx, e.blobs, doc); err != nil {
		return fmt.Errorf("failed to externalize media: %w", err)
	}
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := e.snaps.Write(raw); err != nil {
		// Quota failures stay errors.Is-able through the wrap.
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Reset wipes both stores and returns the fresh default tree.
func (e *Engine) Reset(ctx context.Context) (*state.AppState, error) {
	if err := e.blobs.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear blob store: %w", err)
	}
	if err := e.snaps.Remove(); err != nil {
		return nil, fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return state.NewAppState(), nil
}
