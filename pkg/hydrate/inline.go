package hydrate

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// inline resolves every reference token in the document back to its blob
// payload, concurrently. Degradation is per-field and silent for the rest
// of the tree: a missing blob empties its field, a backend failure is
// logged and empties its field. inline never fails the load.
func inline(ctx context.Context, blobs store.BlobStore, log *logrus.Entry, doc *Document) {
	g, ctx := errgroup.WithContext(ctx)

	resolve := func(field *string) {
		key, ok := ParseRef(*field)
		if !ok {
			return
		}
		g.Go(func() error {
			payload, err := blobs.Get(ctx, key)
			if err != nil {
				log.WithField("key", key).WithError(err).Warn("blob fetch failed, dropping media")
				*field = ""
				return nil
			}
			// "" means the blob is gone; the field degrades to empty
			// rather than leaking the token into the UI.
			*field = payload
			return nil
		})
	}

	if doc.User != nil {
		resolve(&doc.User.ProfilePicURL)
		for i := range doc.User.Stories {
			resolve(&doc.User.Stories[i].ImageURL)
		}
	}
	for _, c := range doc.Contacts {
		resolve(&c.ProfilePicURL)
		inlineMessages(resolve, c.Messages)
	}
	if doc.ImageCreator != nil {
		inlineMessages(resolve, doc.ImageCreator.Messages)
	}
	if doc.RemoveBg != nil {
		inlineMessages(resolve, doc.RemoveBg.Messages)
	}
	if doc.CreatorTools != nil {
		inlineMessages(resolve, doc.CreatorTools.Messages)
	}
	if doc.VideoGen != nil {
		inlineMessages(resolve, doc.VideoGen.Messages)
	}

	g.Wait()
}

func inlineMessages(resolve func(*string), msgs []state.Message) {
	for i := range msgs {
		m := &msgs[i]
		resolve(&m.ImageURL)
		resolve(&m.VideoURL)
		for p := range m.Storyboard {
			resolve(&m.Storyboard[p].ImageURL)
		}
	}
}

// rebuildGeneratedImages recomputes the image-creator derived cache: every
// AI message with media, in message order. Never persisted.
func rebuildGeneratedImages(sess *state.ImageCreatorSession) {
	sess.GeneratedImages = nil
	for _, m := range sess.Messages {
		if m.Sender == state.SenderAI && m.ImageURL != "" {
			sess.GeneratedImages = append(sess.GeneratedImages, m.ImageURL)
		}
	}
}
