package state

import "time"

// DefaultImageSettings returns the image-creator settings used for a fresh
// session and as the merge base when loading older snapshots.
func DefaultImageSettings() ImageSettings {
	return ImageSettings{
		Quality:     "imagen-4",
		Style:       "realistic",
		AspectRatio: "1:1",
		CameraAngle: "eye-level",
		ShotType:    "medium",
	}
}

// DefaultVideoGenSettings returns the video-generation settings baseline.
func DefaultVideoGenSettings() VideoGenSettings {
	return VideoGenSettings{
		Orientation: "landscape",
		VideoModel:  "veo-2",
	}
}

// DefaultCreatorToolsSettings returns the creator-tools settings baseline.
func DefaultCreatorToolsSettings() CreatorToolsSettings {
	return CreatorToolsSettings{Mode: ModeScript}
}

// NewAppState builds the fresh default tree: no user, no contacts, the four
// tool sessions seeded with their greeting message, tools screen active.
func NewAppState() *AppState {
	now := time.Now()
	return &AppState{
		ImageCreator: ImageCreatorSession{
			Messages: []Message{{
				ID:        "tool-init-1",
				Text:      "Hi! Describe the image you want and I'll create it for you.",
				Sender:    SenderAI,
				Timestamp: now,
			}},
			Settings: DefaultImageSettings(),
		},
		RemoveBg: RemoveBgSession{
			Messages: []Message{{
				ID:        "tool-rb-init-1",
				Text:      "Send me a photo and I'll remove its background.",
				Sender:    SenderAI,
				Timestamp: now,
			}},
		},
		CreatorTools: CreatorToolsSession{
			Messages: []Message{{
				ID:        "tool-ct-init-1",
				Text:      "Tell me your story idea and I'll turn it into a script, storyboard, or shot list.",
				Sender:    SenderAI,
				Timestamp: now,
			}},
			Settings: DefaultCreatorToolsSettings(),
		},
		VideoGen: VideoGenSession{
			Messages: []Message{{
				ID:        "tool-vg-init-1",
				Text:      "Describe a scene and I'll generate a short video for it.",
				Sender:    SenderAI,
				Timestamp: now,
			}},
			Settings: DefaultVideoGenSettings(),
		},
		ActiveScreen: ScreenTools,
	}
}
