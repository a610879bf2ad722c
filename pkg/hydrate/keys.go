// Package hydrate implements the hybrid persistence scheme: large inline
// media is externalized to the blob store under deterministic keys and
// replaced by reference tokens before the small snapshot document is
// written; loading reverses the substitution.
package hydrate

import (
	"fmt"
	"strings"
)

// refPrefix marks a persisted field value as a blob reference.
const refPrefix = "ref:"

// Blob keys are pure functions of stable entity ids, so re-saving the same
// entity overwrites its blob instead of accumulating copies.

// UserProfilePicKey is the blob key for the user's profile picture.
const UserProfilePicKey = "user-profile-pic"

// StoryKey returns the blob key for a story's image.
func StoryKey(storyID string) string {
	return "story-" + storyID
}

// ContactProfileKey returns the blob key for a contact's profile picture.
func ContactProfileKey(contactID string) string {
	return "contact-profile-" + contactID
}

// MessageImageKey returns the blob key for a message's image.
func MessageImageKey(messageID string) string {
	return "message-image-" + messageID
}

// MessageVideoKey returns the blob key for a message's video.
func MessageVideoKey(messageID string) string {
	return "message-video-" + messageID
}

// StoryboardPanelKey returns the blob key for one storyboard panel's image,
// addressed by owning message id and panel index.
func StoryboardPanelKey(messageID string, panelIndex int) string {
	return fmt.Sprintf("storyboard-%s-%d", messageID, panelIndex)
}

// IsInlineMedia reports whether a field value is inline media that must be
// externalized. Remote URLs and reference tokens pass through untouched.
func IsInlineMedia(v string) bool {
	return strings.HasPrefix(v, "data:image") || strings.HasPrefix(v, "data:video")
}

// RefToken wraps a blob key as the persisted field value.
func RefToken(key string) string {
	return refPrefix + key
}

// ParseRef extracts the blob key from a reference token. ok is false for
// any value that is not a token.
func ParseRef(v string) (key string, ok bool) {
	if !strings.HasPrefix(v, refPrefix) {
		return "", false
	}
	return v[len(refPrefix):], true
}
