package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/temancurhat/gocurhat/pkg/state"
)

// Document is the serialized snapshot shape. Field names are stable: old
// snapshots must keep decoding as the model grows, so new fields are only
// ever added, and settings absent from an old document fall back to
// defaults on load.
type Document struct {
	User         *state.User                `json:"user"`
	Contacts     []*state.AIContact         `json:"contacts"`
	ImageCreator *state.ImageCreatorSession `json:"imageCreatorState,omitempty"`
	RemoveBg     *state.RemoveBgSession     `json:"removeBgState,omitempty"`
	CreatorTools *state.CreatorToolsSession `json:"creatorToolsState,omitempty"`
	VideoGen     *state.VideoGenSession     `json:"videoGenState,omitempty"`
	ActiveChat   *state.ActiveChat          `json:"activeChat,omitempty"`
	ActiveScreen state.Screen               `json:"activeScreen,omitempty"`
}

// buildDocument shapes a cloned tree into the persisted document. The
// derived generatedImages cache is dropped here; it is rebuilt from the
// message log on load.
func buildDocument(st *state.AppState) *Document {
	doc := &Document{
		User:         st.User,
		Contacts:     st.Contacts,
		ActiveScreen: st.ActiveScreen,
	}
	ic := st.ImageCreator
	ic.GeneratedImages = nil
	doc.ImageCreator = &ic
	rb := st.RemoveBg
	doc.RemoveBg = &rb
	ct := st.CreatorTools
	doc.CreatorTools = &ct
	vg := st.VideoGen
	doc.VideoGen = &vg
	if st.ActiveChat.ID != "" {
		ac := st.ActiveChat
		doc.ActiveChat = &ac
	}
	return doc
}

// encodeDocument serializes the document for the snapshot slot.
func encodeDocument(doc *Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(data), nil
}

// decodeDocument parses a snapshot slot payload. A document without a user
// is structurally invalid: the save path never persists one, so its
// presence is the minimum schema check.
func decodeDocument(raw string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.User == nil {
		return nil, fmt.Errorf("snapshot has no user profile")
	}
	return &doc, nil
}
