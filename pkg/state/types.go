// Package state defines the in-memory application state tree for GoCurhat.
// This is the unified data model shared by the persistence engine and the
// chat/tool services; every container carries camelCase JSON tags so the
// tree doubles as the serialized snapshot shape.
package state

import "time"

// Emotion is the mood tag carried by AI contacts and their messages.
type Emotion string

const (
	EmotionSenang  Emotion = "senang"
	EmotionSedih   Emotion = "sedih"
	EmotionMarah   Emotion = "marah"
	EmotionBadmood Emotion = "badmood"
	EmotionSuka    Emotion = "suka"
	EmotionNetral  Emotion = "netral"
	EmotionSange   Emotion = "sange"
)

// MessageSender discriminates who authored a message.
type MessageSender string

const (
	SenderAI   MessageSender = "ai"
	SenderUser MessageSender = "user"
)

// AIGender selects which persona pool a contact is drawn from.
type AIGender string

const (
	GenderMale   AIGender = "male"
	GenderFemale AIGender = "female"
)

// AIRole is the relationship a contact plays toward the user.
type AIRole string

const (
	RolePacar   AIRole = "pacar"
	RoleBestie  AIRole = "bestie"
	RoleTeman   AIRole = "teman"
	RoleMusuh   AIRole = "musuh"
	RoleSecrets AIRole = "secrets"
)

// CreatorToolsMode selects which screenwriting artifact the creator tool produces.
type CreatorToolsMode string

const (
	ModeScript     CreatorToolsMode = "script"
	ModeStoryboard CreatorToolsMode = "storyboard"
	ModeShotlist   CreatorToolsMode = "shotlist"
)

// Screen identifies a top-level UI screen for the active-view pointer.
type Screen string

const (
	ScreenTools   Screen = "TOOLS"
	ScreenChats   Screen = "CHATS"
	ScreenStory   Screen = "STORY"
	ScreenProfile Screen = "PROFILE"
)

// ChatType discriminates the active chat target.
type ChatType string

const (
	ChatTypeContact ChatType = "contact"
	ChatTypeTool    ChatType = "tool"
)

// Fixed tool session ids. These are singletons: never created or deleted,
// only reset.
const (
	ToolImageCreator = "ai-image-creator"
	ToolRemoveBg     = "ai-remove-background"
	ToolCreatorTools = "ai-creator-tools"
	ToolVideoGen     = "ai-video-gen"
)

// AspectRatio etc. are free-form string settings validated by the UI layer.
type (
	AspectRatio      string
	CameraAngle      string
	ShotType         string
	ImageStyle       string
	VideoOrientation string
)

// RepliedTo is the quoted excerpt a message replies to.
type RepliedTo struct {
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
}

// StoryboardPanel is one panel of a storyboard carried inside a message.
// Panels have no id of their own; they are addressed by (message id, index).
type StoryboardPanel struct {
	Scene             int    `json:"scene"`
	VisualDescription string `json:"visualDescription"`
	CameraNotes       string `json:"cameraNotes"`
	ActionNotes       string `json:"actionNotes"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

// ShotlistItem is one row of a shot list.
type ShotlistItem struct {
	SceneShot string `json:"sceneShot"`
	ShotSize  string `json:"shotSize"`
	Movement  string `json:"movement"`
	Gear      string `json:"gear"`
	Location  string `json:"location"`
	ExtInt    string `json:"extInt"` // "EXT" | "INT"
	Notes     string `json:"notes"`
	Preferred bool   `json:"preferred"`
	Duration  string `json:"duration"`
	Sound     bool   `json:"sound"`
}

// Shotlist is the structured shot-list payload attached to a message.
// Contains no media; it passes through the snapshot codec untouched.
type Shotlist struct {
	ProductionTitle string         `json:"productionTitle"`
	Director        string         `json:"director"`
	Locations       string         `json:"locations"`
	Items           []ShotlistItem `json:"items"`
}

// Message is a single conversation message, owned by a contact or a tool
// session. ImageURL/VideoURL may hold inline media (data URIs), remote URLs,
// or reference tokens while persisted.
type Message struct {
	ID              string            `json:"id"`
	Text            string            `json:"text"`
	Sender          MessageSender     `json:"sender"`
	Timestamp       time.Time         `json:"timestamp"`
	Emotion         Emotion           `json:"emotion,omitempty"`
	RepliedTo       *RepliedTo        `json:"repliedTo,omitempty"`
	ImageURL        string            `json:"imageUrl,omitempty"`
	ImagePrompt     string            `json:"imagePrompt,omitempty"`
	VideoURL        string            `json:"videoUrl,omitempty"`
	VideoPrompt     string            `json:"videoPrompt,omitempty"`
	RepliedToStory  *StoryItem        `json:"repliedToStory,omitempty"`
	Storyboard      []StoryboardPanel `json:"storyboard,omitempty"`
	Shotlist        *Shotlist         `json:"shotlist,omitempty"`
	CreatorToolMode CreatorToolsMode  `json:"creatorToolMode,omitempty"`
	ScriptTitle     string            `json:"scriptTitle,omitempty"`
	Logline         string            `json:"logline,omitempty"`
	Synopsis        string            `json:"synopsis,omitempty"`
}

// StoryItem is a user-posted story, either text on a background color or an
// image with a caption. Owned exclusively by the user profile.
type StoryItem struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"` // "text" | "image"
	Content         string    `json:"content"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// User is the local user profile.
type User struct {
	Name          string      `json:"name"`
	Gender        string      `json:"gender"` // "male" | "female"
	Age           int         `json:"age"`
	Bio           string      `json:"bio,omitempty"`
	ProfilePicURL string      `json:"profilePicUrl,omitempty"`
	Stories       []StoryItem `json:"stories,omitempty"`
}

// AIPersonality is the small trait sheet a persona is built from.
type AIPersonality struct {
	Hobby string `json:"hobby"`
	Food  string `json:"food"`
	Drink string `json:"drink"`
	Film  string `json:"film"`
}

// AIContact is one AI persona the user chats with. At most three exist at a
// time; the cap is enforced by the chat service.
type AIContact struct {
	ID               string        `json:"id"`
	Gender           AIGender      `json:"gender"`
	Name             string        `json:"name"`
	Personality      AIPersonality `json:"personality"`
	ProfilePicURL    string        `json:"profilePicUrl"`
	ProfilePicPrompt string        `json:"profilePicPrompt"`
	Messages         []Message     `json:"messages"`
	Emotion          Emotion       `json:"emotion"`
	NudgeCount       int           `json:"nudgeCount"`
	UnreadCount      int           `json:"unreadCount"`
	Role             AIRole        `json:"role"`
}

// ImageSettings configures the image-creator tool. Reference URL lists are
// user-supplied and pass through persistence unmodified.
type ImageSettings struct {
	Quality        string      `json:"quality"`
	IsConsistent   bool        `json:"isConsistent"`
	Style          ImageStyle  `json:"style"`
	AspectRatio    AspectRatio `json:"aspectRatio"`
	CameraAngle    CameraAngle `json:"cameraAngle"`
	ShotType       ShotType    `json:"shotType"`
	SubjectRefURLs []string    `json:"subjectRefUrls,omitempty"`
	SceneryRefURLs []string    `json:"sceneryRefUrls,omitempty"`
	StyleRefURLs   []string    `json:"styleRefUrls,omitempty"`
}

// VideoGenSettings configures the video-generation tool.
type VideoGenSettings struct {
	Orientation VideoOrientation `json:"orientation"`
	VideoModel  string           `json:"videoModel"`
	ImageRefURL string           `json:"imageRefUrl,omitempty"`
}

// CreatorToolsSettings configures the creator-tools session.
type CreatorToolsSettings struct {
	Mode CreatorToolsMode `json:"mode"`
}

// ImageCreatorSession is the image-creator tool state. GeneratedImages is a
// derived cache of every AI-generated image in message order; it is never
// persisted and is rebuilt from Messages on load.
type ImageCreatorSession struct {
	Messages        []Message     `json:"messages"`
	GeneratedImages []string      `json:"generatedImages,omitempty"`
	Settings        ImageSettings `json:"settings"`
}

// RemoveBgSession is the background-removal tool state.
type RemoveBgSession struct {
	Messages []Message `json:"messages"`
}

// CreatorToolsSession is the creator-tools (script/storyboard/shotlist) state.
type CreatorToolsSession struct {
	Messages []Message            `json:"messages"`
	Settings CreatorToolsSettings `json:"settings"`
}

// VideoGenSession is the video-generation tool state.
type VideoGenSession struct {
	Messages []Message        `json:"messages"`
	Settings VideoGenSettings `json:"settings"`
}

// ActiveChat is the restored active-view pointer. Zero value means no chat
// is open.
type ActiveChat struct {
	ID   string   `json:"id"`
	Type ChatType `json:"type"`
}

// AppState is the root of the in-memory state tree. It is created empty at
// first run, hydrated from the snapshot on startup, and rebuilt from
// defaults on reset.
type AppState struct {
	User         *User               `json:"user"`
	Contacts     []*AIContact        `json:"contacts"`
	ImageCreator ImageCreatorSession `json:"imageCreatorState"`
	RemoveBg     RemoveBgSession     `json:"removeBgState"`
	CreatorTools CreatorToolsSession `json:"creatorToolsState"`
	VideoGen     VideoGenSession     `json:"videoGenState"`
	ActiveChat   ActiveChat          `json:"activeChat"`
	ActiveScreen Screen              `json:"activeScreen"`
}

// IsToolID reports whether id names one of the four fixed tool sessions.
func IsToolID(id string) bool {
	switch id {
	case ToolImageCreator, ToolRemoveBg, ToolCreatorTools, ToolVideoGen:
		return true
	}
	return false
}

// Contact returns the contact with the given id, or nil.
func (s *AppState) Contact(id string) *AIContact {
	for _, c := range s.Contacts {
		if c.ID == id {
			return c
		}
	}
	return nil
}
