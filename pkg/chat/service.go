// Package chat is the mutation surface over the hydrated state tree: user
// profile, contacts and their conversations, stories, and the four tool
// sessions. Every mutation hands the saver a fresh clone, so persistence
// always trails the latest committed change.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/genai"
	"github.com/temancurhat/gocurhat/pkg/hydrate"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// MaxContacts caps how many AI contacts can exist at once.
const MaxContacts = 3

var (
	ErrNoUser         = errors.New("no user profile")
	ErrContactLimit   = errors.New("contact limit reached")
	ErrUnknownContact = errors.New("unknown contact")
	ErrUnknownTool    = errors.New("unknown tool")
)

// Nudge pacing: a contact whose last message the user ignored follows up
// after each interval in turn, at most maxNudges times. Hostile contacts
// never chase.
var nudgeIntervals = []time.Duration{2 * time.Minute, 1 * time.Minute, 7 * time.Minute}

const (
	maxNudges       = 3
	nudgeTick       = 30 * time.Second
	storyReplyDelay = 30 * time.Second
)

// Service owns the live tree. All exported methods are safe for concurrent
// use; reads get clones, never the live tree.
type Service struct {
	mu    sync.Mutex
	st    *state.AppState
	gen   genai.Generator
	blobs store.BlobStore
	saver *hydrate.Saver
	log   *logrus.Entry

	now func() time.Time
}

// NewService wraps an already-loaded tree.
func NewService(st *state.AppState, gen genai.Generator, blobs store.BlobStore, saver *hydrate.Saver, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		st:    st,
		gen:   gen,
		blobs: blobs,
		saver: saver,
		log:   log.WithField("component", "chat"),
		now:   time.Now,
	}
}

// State returns a clone of the current tree.
func (s *Service) State() *state.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// notify queues a save. Must be called with the lock held.
func (s *Service) notify() {
	if s.saver != nil {
		s.saver.Notify(s.st.Clone())
	}
}

func generateID() string {
	return uuid.NewString()
}

// =============================================================================
// User profile
// =============================================================================

// SetupUser creates the user profile. Persistence starts here; nothing is
// saved before a profile exists.
func (s *Service) SetupUser(name, gender string, age int, bio string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.User = &state.User{Name: name, Gender: gender, Age: age, Bio: bio}
	s.notify()
}

// UpdateUser edits the basic profile fields.
func (s *Service) UpdateUser(name string, age int, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.User == nil {
		return ErrNoUser
	}
	s.st.User.Name = name
	s.st.User.Age = age
	s.st.User.Bio = bio
	s.notify()
	return nil
}

// SetProfilePicture replaces the user's profile picture. Clearing it also
// deletes the externalized blob; the key is derived, no reverse index
// exists.
func (s *Service) SetProfilePicture(ctx context.Context, dataURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.User == nil {
		return ErrNoUser
	}
	s.st.User.ProfilePicURL = dataURI
	if dataURI == "" {
		if err := s.blobs.Delete(ctx, hydrate.UserProfilePicKey); err != nil {
			s.log.WithError(err).Warn("failed to delete profile picture blob")
		}
	}
	s.notify()
	return nil
}

// =============================================================================
// Contacts
// =============================================================================

// AddContact creates a new AI contact of the given gender and role, up to
// the contact cap. The profile picture is generated in the background; the
// contact is usable immediately.
func (s *Service) AddContact(ctx context.Context, gender state.AIGender, role state.AIRole) (*state.AIContact, error) {
	s.mu.Lock()
	if s.st.User == nil {
		s.mu.Unlock()
		return nil, ErrNoUser
	}
	if len(s.st.Contacts) >= MaxContacts {
		s.mu.Unlock()
		return nil, ErrContactLimit
	}
	taken := make(map[string]bool)
	for _, c := range s.st.Contacts {
		taken[c.Name] = true
	}
	p := pickPersona(gender, taken)
	c := &state.AIContact{
		ID:               generateID(),
		Gender:           gender,
		Name:             p.name,
		Personality:      p.traits,
		ProfilePicPrompt: p.prompt,
		Emotion:          state.EmotionNetral,
		Role:             role,
		Messages: []state.Message{{
			ID:        generateID(),
			Text:      fmt.Sprintf("Hi! I'm %s. Nice to meet you!", p.name),
			Sender:    state.SenderAI,
			Timestamp: s.now(),
			Emotion:   state.EmotionSenang,
		}},
	}
	s.st.Contacts = append(s.st.Contacts, c)
	s.notify()
	out := c.Clone()
	s.mu.Unlock()

	go s.generateProfilePic(ctx, c.ID, p.prompt)
	return out, nil
}

// generateProfilePic fills in a contact's picture once the model delivers
// it. The contact may be gone by then; the result is simply dropped.
func (s *Service) generateProfilePic(ctx context.Context, contactID, prompt string) {
	pic, err := s.gen.PersonaImage(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Warn("profile picture generation failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.st.Contact(contactID)
	if c == nil {
		return
	}
	c.ProfilePicURL = pic
	s.notify()
}

// SelectContact opens a contact chat, clearing its unread counter and nudge
// streak.
func (s *Service) SelectContact(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.st.Contact(id)
	if c == nil {
		return ErrUnknownContact
	}
	c.UnreadCount = 0
	c.NudgeCount = 0
	s.st.ActiveChat = state.ActiveChat{ID: id, Type: state.ChatTypeContact}
	s.st.ActiveScreen = state.ScreenChats
	s.notify()
	return nil
}

// SelectTool opens one of the four tool sessions.
func (s *Service) SelectTool(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !state.IsToolID(id) {
		return ErrUnknownTool
	}
	s.st.ActiveChat = state.ActiveChat{ID: id, Type: state.ChatTypeTool}
	s.st.ActiveScreen = state.ScreenTools
	s.notify()
	return nil
}

// CloseChat clears the active chat pointer.
func (s *Service) CloseChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ActiveChat = state.ActiveChat{}
	s.notify()
}

// SetActiveScreen records the current top-level screen.
func (s *Service) SetActiveScreen(screen state.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ActiveScreen = screen
	s.notify()
}

// DeleteContact removes a contact and its externalized media. Keys are
// derived from the ids in its message log, so no reverse index is needed.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	s.mu.Lock()
	var gone *state.AIContact
	for i, c := range s.st.Contacts {
		if c.ID == id {
			gone = c
			s.st.Contacts = append(s.st.Contacts[:i], s.st.Contacts[i+1:]...)
			break
		}
	}
	if gone == nil {
		s.mu.Unlock()
		return ErrUnknownContact
	}
	if s.st.ActiveChat.ID == id {
		s.st.ActiveChat = state.ActiveChat{}
	}
	s.notify()
	s.mu.Unlock()

	keys := []string{hydrate.ContactProfileKey(id)}
	keys = append(keys, messageBlobKeys(gone.Messages)...)
	s.deleteBlobs(ctx, keys)
	return nil
}

// messageBlobKeys derives every blob key a message log can own.
func messageBlobKeys(msgs []state.Message) []string {
	var keys []string
	for _, m := range msgs {
		keys = append(keys, hydrate.MessageImageKey(m.ID), hydrate.MessageVideoKey(m.ID))
		for p := range m.Storyboard {
			keys = append(keys, hydrate.StoryboardPanelKey(m.ID, p))
		}
	}
	return keys
}

func (s *Service) deleteBlobs(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.blobs.Delete(ctx, k); err != nil {
			s.log.WithField("key", k).WithError(err).Warn("failed to delete blob")
		}
	}
}

// =============================================================================
// Messaging
// =============================================================================

// SendMessage appends the user's message to a contact conversation and
// applies the persona's reply. A reply can ask to attach a generated photo.
func (s *Service) SendMessage(ctx context.Context, contactID, text string, repliedTo *state.RepliedTo) error {
	s.mu.Lock()
	c := s.st.Contact(contactID)
	if c == nil {
		s.mu.Unlock()
		return ErrUnknownContact
	}
	user := s.st.User.Clone()
	contact := c.Clone()
	c.Messages = append(c.Messages, state.Message{
		ID:        generateID(),
		Text:      text,
		Sender:    state.SenderUser,
		Timestamp: s.now(),
		RepliedTo: repliedTo,
	})
	c.NudgeCount = 0
	s.notify()
	s.mu.Unlock()

	reply, err := s.gen.ChatReply(ctx, contact, user, text)
	if err != nil {
		return fmt.Errorf("failed to get reply: %w", err)
	}

	msg := state.Message{
		ID:        generateID(),
		Text:      reply.Text,
		Sender:    state.SenderAI,
		Timestamp: s.now(),
		Emotion:   reply.Emotion,
	}
	if reply.Action == genai.ActionSendPhoto && reply.PhotoPrompt != "" {
		pic, err := s.gen.GenerateImage(ctx, reply.PhotoPrompt, state.DefaultImageSettings())
		if err != nil {
			s.log.WithError(err).Warn("reply photo generation failed")
		} else {
			msg.ImageURL = pic
			msg.ImagePrompt = reply.PhotoPrompt
		}
	}

	s.applyContactMessage(contactID, msg, reply.Emotion)
	return nil
}

// applyContactMessage commits an AI message to a contact that may have been
// mutated, or deleted, while the model was thinking.
func (s *Service) applyContactMessage(contactID string, msg state.Message, emotion state.Emotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.st.Contact(contactID)
	if c == nil {
		return
	}
	c.Messages = append(c.Messages, msg)
	if emotion != "" {
		c.Emotion = emotion
	}
	if s.st.ActiveChat.ID != contactID {
		c.UnreadCount++
	}
	s.notify()
}

// RunNudger drives unprompted follow-ups on a fixed tick until ctx is
// canceled. Call on its own goroutine.
func (s *Service) RunNudger(ctx context.Context) {
	ticker := time.NewTicker(nudgeTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.nudgeDue(ctx)
		}
	}
}

func (s *Service) nudgeDue(ctx context.Context) {
	s.mu.Lock()
	user := s.st.User.Clone()
	var todo []*state.AIContact
	for _, c := range s.st.Contacts {
		if s.nudgeReady(c) {
			todo = append(todo, c.Clone())
		}
	}
	s.mu.Unlock()

	for _, contact := range todo {
		reply, err := s.gen.NudgeReply(ctx, contact, user)
		if err != nil {
			s.log.WithError(err).Warn("nudge generation failed")
			continue
		}
		s.mu.Lock()
		c := s.st.Contact(contact.ID)
		// Re-check: the user may have replied while the model was busy.
		if c != nil && s.nudgeReady(c) {
			c.Messages = append(c.Messages, state.Message{
				ID:        generateID(),
				Text:      reply.Text,
				Sender:    state.SenderAI,
				Timestamp: s.now(),
				Emotion:   reply.Emotion,
			})
			c.NudgeCount++
			if s.st.ActiveChat.ID != c.ID {
				c.UnreadCount++
			}
			s.notify()
		}
		s.mu.Unlock()
	}
}

// nudgeReady reports whether the contact's nudge interval has elapsed since
// its last message without a user reply. Caller holds the lock.
func (s *Service) nudgeReady(c *state.AIContact) bool {
	if c.Role == state.RoleMusuh || c.NudgeCount >= maxNudges || len(c.Messages) == 0 {
		return false
	}
	last := c.Messages[len(c.Messages)-1]
	if last.Sender != state.SenderAI {
		return false
	}
	return s.now().Sub(last.Timestamp) >= nudgeIntervals[c.NudgeCount]
}

// =============================================================================
// Stories
// =============================================================================

// PostStory appends a story to the user profile. A random contact reacts to
// it after a short delay.
func (s *Service) PostStory(ctx context.Context, storyType, content, imageURL, backgroundColor string) (state.StoryItem, error) {
	s.mu.Lock()
	if s.st.User == nil {
		s.mu.Unlock()
		return state.StoryItem{}, ErrNoUser
	}
	item := state.StoryItem{
		ID:              generateID(),
		Type:            storyType,
		Content:         content,
		ImageURL:        imageURL,
		BackgroundColor: backgroundColor,
		Timestamp:       s.now(),
	}
	s.st.User.Stories = append(s.st.User.Stories, item)
	hasContacts := len(s.st.Contacts) > 0
	s.notify()
	s.mu.Unlock()

	if hasContacts {
		go s.reactToStory(ctx, item)
	}
	return item, nil
}

func (s *Service) reactToStory(ctx context.Context, story state.StoryItem) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(storyReplyDelay):
	}

	s.mu.Lock()
	if len(s.st.Contacts) == 0 {
		s.mu.Unlock()
		return
	}
	picked := s.st.Contacts[rand.Intn(len(s.st.Contacts))]
	contact := picked.Clone()
	user := s.st.User.Clone()
	s.mu.Unlock()

	reply, err := s.gen.StoryReply(ctx, contact, user, story)
	if err != nil {
		s.log.WithError(err).Warn("story reaction failed")
		return
	}
	st := story
	s.applyContactMessage(contact.ID, state.Message{
		ID:             generateID(),
		Text:           reply.Text,
		Sender:         state.SenderAI,
		Timestamp:      s.now(),
		Emotion:        reply.Emotion,
		RepliedToStory: &st,
	}, reply.Emotion)
}

// DeleteStory removes a story and its externalized image blob.
func (s *Service) DeleteStory(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.st.User == nil {
		s.mu.Unlock()
		return ErrNoUser
	}
	found := false
	for i, st := range s.st.User.Stories {
		if st.ID == id {
			s.st.User.Stories = append(s.st.User.Stories[:i], s.st.User.Stories[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.notify()
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("story %s not found", id)
	}
	s.deleteBlobs(ctx, []string{hydrate.StoryKey(id)})
	return nil
}

// =============================================================================
// Tool sessions
// =============================================================================

// GenerateImage runs the image-creator tool: user prompt in, generated
// image message out, derived cache extended.
func (s *Service) GenerateImage(ctx context.Context, prompt string) error {
	s.mu.Lock()
	settings := s.st.ImageCreator.Settings.Clone()
	s.st.ImageCreator.Messages = append(s.st.ImageCreator.Messages, state.Message{
		ID:        generateID(),
		Text:      prompt,
		Sender:    state.SenderUser,
		Timestamp: s.now(),
	})
	s.notify()
	s.mu.Unlock()

	pic, err := s.gen.GenerateImage(ctx, prompt, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.ImageCreator.Messages = append(s.st.ImageCreator.Messages, state.Message{
			ID:        generateID(),
			Text:      "Sorry, I couldn't create that image. Try again?",
			Sender:    state.SenderAI,
			Timestamp: s.now(),
		})
		s.notify()
		return fmt.Errorf("failed to generate image: %w", err)
	}
	s.st.ImageCreator.Messages = append(s.st.ImageCreator.Messages, state.Message{
		ID:          generateID(),
		Text:        "Here you go!",
		Sender:      state.SenderAI,
		Timestamp:   s.now(),
		ImageURL:    pic,
		ImagePrompt: prompt,
	})
	s.st.ImageCreator.GeneratedImages = append(s.st.ImageCreator.GeneratedImages, pic)
	s.notify()
	return nil
}

// RemoveBackground runs the background-removal tool on an uploaded image.
func (s *Service) RemoveBackground(ctx context.Context, imageDataURI string) error {
	s.mu.Lock()
	s.st.RemoveBg.Messages = append(s.st.RemoveBg.Messages, state.Message{
		ID:        generateID(),
		Text:      "Remove the background from this photo.",
		Sender:    state.SenderUser,
		Timestamp: s.now(),
		ImageURL:  imageDataURI,
	})
	s.notify()
	s.mu.Unlock()

	out, err := s.gen.RemoveBackground(ctx, imageDataURI)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.RemoveBg.Messages = append(s.st.RemoveBg.Messages, state.Message{
			ID:        generateID(),
			Text:      "Sorry, I couldn't process that photo.",
			Sender:    state.SenderAI,
			Timestamp: s.now(),
		})
		s.notify()
		return fmt.Errorf("failed to remove background: %w", err)
	}
	s.st.RemoveBg.Messages = append(s.st.RemoveBg.Messages, state.Message{
		ID:        generateID(),
		Text:      "Done! Background removed.",
		Sender:    state.SenderAI,
		Timestamp: s.now(),
		ImageURL:  out,
	})
	s.notify()
	return nil
}

// GenerateVideo runs the video tool.
func (s *Service) GenerateVideo(ctx context.Context, prompt string) error {
	s.mu.Lock()
	settings := s.st.VideoGen.Settings
	s.st.VideoGen.Messages = append(s.st.VideoGen.Messages, state.Message{
		ID:        generateID(),
		Text:      prompt,
		Sender:    state.SenderUser,
		Timestamp: s.now(),
	})
	s.notify()
	s.mu.Unlock()

	vid, err := s.gen.GenerateVideo(ctx, prompt, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.VideoGen.Messages = append(s.st.VideoGen.Messages, state.Message{
			ID:        generateID(),
			Text:      "Sorry, the video didn't come out. Try a different prompt?",
			Sender:    state.SenderAI,
			Timestamp: s.now(),
		})
		s.notify()
		return fmt.Errorf("failed to generate video: %w", err)
	}
	s.st.VideoGen.Messages = append(s.st.VideoGen.Messages, state.Message{
		ID:          generateID(),
		Text:        "Your video is ready!",
		Sender:      state.SenderAI,
		Timestamp:   s.now(),
		VideoURL:    vid,
		VideoPrompt: prompt,
	})
	s.notify()
	return nil
}

// CreateContent runs the creator tool in its current mode.
func (s *Service) CreateContent(ctx context.Context, idea string) error {
	s.mu.Lock()
	mode := s.st.CreatorTools.Settings.Mode
	s.st.CreatorTools.Messages = append(s.st.CreatorTools.Messages, state.Message{
		ID:        generateID(),
		Text:      idea,
		Sender:    state.SenderUser,
		Timestamp: s.now(),
	})
	s.notify()
	s.mu.Unlock()

	out, err := s.gen.CreativeContent(ctx, idea, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.CreatorTools.Messages = append(s.st.CreatorTools.Messages, state.Message{
			ID:        generateID(),
			Text:      "Sorry, I couldn't work that idea out. Give me more detail?",
			Sender:    state.SenderAI,
			Timestamp: s.now(),
		})
		s.notify()
		return fmt.Errorf("failed to create content: %w", err)
	}
	s.st.CreatorTools.Messages = append(s.st.CreatorTools.Messages, state.Message{
		ID:              generateID(),
		Text:            out.Body,
		Sender:          state.SenderAI,
		Timestamp:       s.now(),
		CreatorToolMode: out.Mode,
		ScriptTitle:     out.ScriptTitle,
		Logline:         out.Logline,
		Synopsis:        out.Synopsis,
		Storyboard:      out.Storyboard,
		Shotlist:        out.Shotlist,
	})
	s.notify()
	return nil
}

// UpdateImageSettings replaces the image-creator settings.
func (s *Service) UpdateImageSettings(settings state.ImageSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ImageCreator.Settings = settings.Clone()
	s.notify()
}

// UpdateVideoSettings replaces the video tool settings.
func (s *Service) UpdateVideoSettings(settings state.VideoGenSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.VideoGen.Settings = settings
	s.notify()
}

// SetCreatorMode switches the creator tool between script, storyboard, and
// shot list.
func (s *Service) SetCreatorMode(mode state.CreatorToolsMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CreatorTools.Settings.Mode = mode
	s.notify()
}

// ResetTool restores one tool session to its greeting state, deleting the
// media blobs its messages owned.
func (s *Service) ResetTool(ctx context.Context, toolID string) error {
	s.mu.Lock()
	fresh := state.NewAppState()
	var old []state.Message
	switch toolID {
	case state.ToolImageCreator:
		old = s.st.ImageCreator.Messages
		s.st.ImageCreator = fresh.ImageCreator
	case state.ToolRemoveBg:
		old = s.st.RemoveBg.Messages
		s.st.RemoveBg = fresh.RemoveBg
	case state.ToolCreatorTools:
		old = s.st.CreatorTools.Messages
		s.st.CreatorTools = fresh.CreatorTools
	case state.ToolVideoGen:
		old = s.st.VideoGen.Messages
		s.st.VideoGen = fresh.VideoGen
	default:
		s.mu.Unlock()
		return ErrUnknownTool
	}
	s.notify()
	s.mu.Unlock()

	s.deleteBlobs(ctx, messageBlobKeys(old))
	return nil
}

// ResetApp wipes both stores via the engine and swaps in the fresh tree.
// Any save still queued from before the wipe is dropped first, or it would
// write the old tree back over the empty stores.
func (s *Service) ResetApp(ctx context.Context, engine *hydrate.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saver != nil {
		s.saver.Drain()
	}
	fresh, err := engine.Reset(ctx)
	if err != nil {
		return err
	}
	s.st = fresh
	return nil
}
