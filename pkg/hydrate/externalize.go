package hydrate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// externalize replaces every inline-media field in the document with a
// reference token, writing the payloads to the blob store. All puts run
// concurrently and are joined before the caller writes the snapshot, so a
// snapshot never references a blob that was not at least attempted. The
// document must be built from a clone; fields are rewritten in place.
//
// There is no atomicity across puts: a failed save can leave some blobs
// written. Keys are deterministic, so the next successful save converges.
func externalize(ctx context.Context, blobs store.BlobStore, doc *Document) error {
	g, ctx := errgroup.WithContext(ctx)

	stash := func(field *string, key string) {
		payload := *field
		if !IsInlineMedia(payload) {
			return
		}
		*field = RefToken(key)
		g.Go(func() error {
			return blobs.Put(ctx, key, payload)
		})
	}

	if doc.User != nil {
		stash(&doc.User.ProfilePicURL, UserProfilePicKey)
		for i := range doc.User.Stories {
			stash(&doc.User.Stories[i].ImageURL, StoryKey(doc.User.Stories[i].ID))
		}
	}
	for _, c := range doc.Contacts {
		stash(&c.ProfilePicURL, ContactProfileKey(c.ID))
		externalizeMessages(stash, c.Messages)
	}
	if doc.ImageCreator != nil {
		externalizeMessages(stash, doc.ImageCreator.Messages)
	}
	if doc.RemoveBg != nil {
		externalizeMessages(stash, doc.RemoveBg.Messages)
	}
	if doc.CreatorTools != nil {
		externalizeMessages(stash, doc.CreatorTools.Messages)
	}
	if doc.VideoGen != nil {
		externalizeMessages(stash, doc.VideoGen.Messages)
	}

	return g.Wait()
}

func externalizeMessages(stash func(*string, string), msgs []state.Message) {
	for i := range msgs {
		m := &msgs[i]
		stash(&m.ImageURL, MessageImageKey(m.ID))
		stash(&m.VideoURL, MessageVideoKey(m.ID))
		for p := range m.Storyboard {
			stash(&m.Storyboard[p].ImageURL, StoryboardPanelKey(m.ID, p))
		}
	}
}
