// Package genai is the thin client boundary to the generative models. It
// produces typed results (chat replies with emotion tags, data-URI media,
// creative writing artifacts) and hides the transport: browser fetch under
// js/wasm, net/http natively.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temancurhat/gocurhat/internal/config"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// ReplyAction is an optional side effect a chat reply requests.
type ReplyAction string

const (
	ActionNone      ReplyAction = ""
	ActionSendPhoto ReplyAction = "send_photo"
)

// Reply is a structured chat reply from a persona.
type Reply struct {
	Text        string
	Emotion     state.Emotion
	Action      ReplyAction
	PhotoPrompt string
}

// Creative is the result of a creator-tools generation.
type Creative struct {
	Mode        state.CreatorToolsMode
	ScriptTitle string
	Logline     string
	Synopsis    string
	Body        string
	Storyboard  []state.StoryboardPanel
	Shotlist    *state.Shotlist
}

// Generator is the collaborator interface the chat service depends on.
// Implementations must be safe for concurrent use.
type Generator interface {
	ChatReply(ctx context.Context, contact *state.AIContact, user *state.User, text string) (Reply, error)
	NudgeReply(ctx context.Context, contact *state.AIContact, user *state.User) (Reply, error)
	StoryReply(ctx context.Context, contact *state.AIContact, user *state.User, story state.StoryItem) (Reply, error)
	PersonaImage(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string, settings state.ImageSettings) (string, error)
	RemoveBackground(ctx context.Context, imageDataURI string) (string, error)
	GenerateVideo(ctx context.Context, prompt string, settings state.VideoGenSettings) (string, error)
	CreativeContent(ctx context.Context, idea string, mode state.CreatorToolsMode) (Creative, error)
}

// Service is the Gemini-backed Generator.
type Service struct {
	cfg config.Config
}

var _ Generator = (*Service)(nil)

// NewService creates a generator with the given configuration.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// IsConfigured reports whether an API key is present.
func (s *Service) IsConfigured() bool {
	return s.cfg.GoogleAPIKey != ""
}

// replyEnvelope is the JSON shape the text model is instructed to answer
// with for conversational turns.
type replyEnvelope struct {
	Response    string `json:"response"`
	Emotion     string `json:"emotion"`
	Action      string `json:"action,omitempty"`
	PhotoPrompt string `json:"photoPrompt,omitempty"`
}

// ChatReply asks the persona for a reply to the user's message.
func (s *Service) ChatReply(ctx context.Context, contact *state.AIContact, user *state.User, text string) (Reply, error) {
	prompt := fmt.Sprintf("You are %s, role %s, talking to %s. They said: %q", contact.Name, contact.Role, userName(user), text)
	return s.reply(ctx, contact, prompt)
}

// NudgeReply asks the persona for a short follow-up when the user has left
// its last message unanswered.
func (s *Service) NudgeReply(ctx context.Context, contact *state.AIContact, user *state.User) (Reply, error) {
	prompt := fmt.Sprintf("You are %s. %s has not replied for a while. Send a short nudge.", contact.Name, userName(user))
	return s.reply(ctx, contact, prompt)
}

// StoryReply asks the persona for a reaction to a story the user posted.
func (s *Service) StoryReply(ctx context.Context, contact *state.AIContact, user *state.User, story state.StoryItem) (Reply, error) {
	prompt := fmt.Sprintf("You are %s. %s posted a story: %q. React to it in one short message.", contact.Name, userName(user), story.Content)
	return s.reply(ctx, contact, prompt)
}

func (s *Service) reply(ctx context.Context, contact *state.AIContact, prompt string) (Reply, error) {
	if !s.IsConfigured() {
		return Reply{Text: "...", Emotion: state.EmotionNetral}, nil
	}
	sys := `Answer as JSON only: {"response": "...", "emotion": "senang|sedih|marah|badmood|suka|netral|sange", "action": "send_photo" or omit, "photoPrompt": "..." when sending a photo}`
	raw, err := s.generateText(ctx, prompt, sys)
	if err != nil {
		return Reply{}, err
	}
	return parseReply(raw, contact.Emotion)
}

// parseReply decodes the model's JSON envelope, tolerating code fences and
// surrounding prose. A malformed envelope falls back to treating the whole
// text as the reply body.
func parseReply(raw string, fallback state.Emotion) (Reply, error) {
	body := extractJSON(raw)
	var env replyEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil || env.Response == "" {
		return Reply{Text: strings.TrimSpace(raw), Emotion: fallback}, nil
	}
	r := Reply{
		Text:        env.Response,
		Emotion:     state.Emotion(env.Emotion),
		PhotoPrompt: env.PhotoPrompt,
	}
	if env.Action == string(ActionSendPhoto) {
		r.Action = ActionSendPhoto
	}
	if !validEmotion(r.Emotion) {
		r.Emotion = fallback
	}
	return r, nil
}

func validEmotion(e state.Emotion) bool {
	switch e {
	case state.EmotionSenang, state.EmotionSedih, state.EmotionMarah,
		state.EmotionBadmood, state.EmotionSuka, state.EmotionNetral, state.EmotionSange:
		return true
	}
	return false
}

// extractJSON strips markdown code fences and locates the outermost JSON
// object in a model response.
func extractJSON(raw string) string {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		if i := strings.LastIndex(t, "```"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1]
	}
	return t
}

// PersonaImage generates a profile picture for a contact.
func (s *Service) PersonaImage(ctx context.Context, prompt string) (string, error) {
	return s.generateImage(ctx, prompt, "1:1")
}

// GenerateImage runs the image-creator tool generation.
func (s *Service) GenerateImage(ctx context.Context, prompt string, settings state.ImageSettings) (string, error) {
	full := prompt
	if settings.Style != "" {
		full = fmt.Sprintf("%s, %s style, %s angle, %s shot", prompt, settings.Style, settings.CameraAngle, settings.ShotType)
	}
	return s.generateImage(ctx, full, string(settings.AspectRatio))
}

// RemoveBackground produces a background-free version of the given image.
func (s *Service) RemoveBackground(ctx context.Context, imageDataURI string) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("generator not configured")
	}
	return s.editImage(ctx, imageDataURI, "Remove the background, output the subject on a plain transparent background.")
}

// GenerateVideo runs the video tool generation and returns a data URI.
func (s *Service) GenerateVideo(ctx context.Context, prompt string, settings state.VideoGenSettings) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("generator not configured")
	}
	return s.generateVideo(ctx, prompt, settings)
}

// creativeEnvelope mirrors the creator-tools JSON instruction.
type creativeEnvelope struct {
	Title      string                  `json:"title"`
	Logline    string                  `json:"logline"`
	Synopsis   string                  `json:"synopsis"`
	Body       string                  `json:"body"`
	Storyboard []state.StoryboardPanel `json:"storyboard,omitempty"`
	Shotlist   *state.Shotlist         `json:"shotlist,omitempty"`
}

// CreativeContent turns a story idea into a script, storyboard, or shot
// list depending on mode.
func (s *Service) CreativeContent(ctx context.Context, idea string, mode state.CreatorToolsMode) (Creative, error) {
	if !s.IsConfigured() {
		return Creative{Mode: mode, Body: "Generator is not configured."}, nil
	}
	sys := creativeInstruction(mode)
	raw, err := s.generateText(ctx, idea, sys)
	if err != nil {
		return Creative{}, err
	}
	var env creativeEnvelope
	if err := json.Unmarshal([]byte(extractJSON(raw)), &env); err != nil {
		return Creative{Mode: mode, Body: strings.TrimSpace(raw)}, nil
	}
	return Creative{
		Mode:        mode,
		ScriptTitle: env.Title,
		Logline:     env.Logline,
		Synopsis:    env.Synopsis,
		Body:        env.Body,
		Storyboard:  env.Storyboard,
		Shotlist:    env.Shotlist,
	}, nil
}

func creativeInstruction(mode state.CreatorToolsMode) string {
	switch mode {
	case state.ModeStoryboard:
		return `Answer as JSON: {"title", "logline", "synopsis", "storyboard": [{"scene", "visualDescription", "cameraNotes", "actionNotes"}]}`
	case state.ModeShotlist:
		return `Answer as JSON: {"title", "logline", "shotlist": {"productionTitle", "director", "locations", "items": [{"sceneShot", "shotSize", "movement", "gear", "location", "extInt", "notes", "duration"}]}}`
	default:
		return `Answer as JSON: {"title", "logline", "synopsis", "body"} where body is the full script text`
	}
}

func userName(u *state.User) string {
	if u == nil || u.Name == "" {
		return "the user"
	}
	return u.Name
}
