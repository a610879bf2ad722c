package chat

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/genai"
	"github.com/temancurhat/gocurhat/pkg/hydrate"
	"github.com/temancurhat/gocurhat/pkg/state"
)

// fakeGenerator returns canned results so tests never hit the network.
type fakeGenerator struct {
	reply    genai.Reply
	replyErr error
	imageURI string
	imageErr error
}

func (f *fakeGenerator) ChatReply(context.Context, *state.AIContact, *state.User, string) (genai.Reply, error) {
	return f.reply, f.replyErr
}
func (f *fakeGenerator) NudgeReply(context.Context, *state.AIContact, *state.User) (genai.Reply, error) {
	return f.reply, f.replyErr
}
func (f *fakeGenerator) StoryReply(context.Context, *state.AIContact, *state.User, state.StoryItem) (genai.Reply, error) {
	return f.reply, f.replyErr
}
func (f *fakeGenerator) PersonaImage(context.Context, string) (string, error) {
	return f.imageURI, f.imageErr
}
func (f *fakeGenerator) GenerateImage(context.Context, string, state.ImageSettings) (string, error) {
	return f.imageURI, f.imageErr
}
func (f *fakeGenerator) RemoveBackground(context.Context, string) (string, error) {
	return f.imageURI, f.imageErr
}
func (f *fakeGenerator) GenerateVideo(context.Context, string, state.VideoGenSettings) (string, error) {
	return f.imageURI, f.imageErr
}
func (f *fakeGenerator) CreativeContent(_ context.Context, _ string, mode state.CreatorToolsMode) (genai.Creative, error) {
	return genai.Creative{Mode: mode, Body: "a script"}, nil
}

var _ genai.Generator = (*fakeGenerator)(nil)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestService(t *testing.T) (*Service, *fakeGenerator, *store.MemBlobStore) {
	t.Helper()
	gen := &fakeGenerator{
		reply:    genai.Reply{Text: "hey!", Emotion: state.EmotionSenang},
		imageURI: "data:image/png;base64,QUJD",
	}
	blobs := store.NewMemBlobStore()
	svc := NewService(state.NewAppState(), gen, blobs, nil, quietLogger())
	return svc, gen, blobs
}

func TestSetupAndUpdateUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.Error(t, svc.UpdateUser("x", 1, ""), "update before setup must fail")

	svc.SetupUser("Andi", "male", 24, "hello")
	st := svc.State()
	require.NotNil(t, st.User)
	assert.Equal(t, "Andi", st.User.Name)

	require.NoError(t, svc.UpdateUser("Andi R", 25, "updated"))
	st = svc.State()
	assert.Equal(t, "Andi R", st.User.Name)
	assert.Equal(t, 25, st.User.Age)
}

func TestStateReturnsClone(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")

	st := svc.State()
	st.User.Name = "mutated"
	assert.Equal(t, "Andi", svc.State().User.Name)
}

func TestAddContactCap(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddContact(context.Background(), state.GenderFemale, state.RoleBestie)
	assert.ErrorIs(t, err, ErrNoUser)

	svc.SetupUser("Andi", "male", 24, "")
	for i := 0; i < MaxContacts; i++ {
		c, err := svc.AddContact(context.Background(), state.GenderFemale, state.RoleBestie)
		require.NoError(t, err)
		require.Len(t, c.Messages, 1, "new contact greets immediately")
		assert.Equal(t, state.SenderAI, c.Messages[0].Sender)
	}
	_, err = svc.AddContact(context.Background(), state.GenderMale, state.RoleTeman)
	assert.ErrorIs(t, err, ErrContactLimit)
	assert.Len(t, svc.State().Contacts, MaxContacts)
}

func TestSendMessageAppliesReply(t *testing.T) {
	svc, gen, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")
	c, err := svc.AddContact(context.Background(), state.GenderFemale, state.RolePacar)
	require.NoError(t, err)
	gen.reply = genai.Reply{Text: "miss you", Emotion: state.EmotionSuka}

	require.NoError(t, svc.SendMessage(context.Background(), c.ID, "hi!", nil))

	got := svc.State().Contact(c.ID)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 3) // greeting, user, reply
	assert.Equal(t, state.SenderUser, got.Messages[1].Sender)
	assert.Equal(t, "hi!", got.Messages[1].Text)
	assert.Equal(t, "miss you", got.Messages[2].Text)
	assert.Equal(t, state.EmotionSuka, got.Messages[2].Emotion)
	assert.Equal(t, state.EmotionSuka, got.Emotion, "contact mood follows the reply")
	assert.Equal(t, 1, got.UnreadCount, "inactive chat accumulates unread")
}

func TestSendMessageWithPhotoAction(t *testing.T) {
	svc, gen, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")
	c, err := svc.AddContact(context.Background(), state.GenderFemale, state.RolePacar)
	require.NoError(t, err)
	gen.reply = genai.Reply{
		Text:        "here's a pic",
		Emotion:     state.EmotionSenang,
		Action:      genai.ActionSendPhoto,
		PhotoPrompt: "selfie at the beach",
	}

	require.NoError(t, svc.SendMessage(context.Background(), c.ID, "send a photo", nil))

	got := svc.State().Contact(c.ID)
	last := got.Messages[len(got.Messages)-1]
	assert.Equal(t, gen.imageURI, last.ImageURL)
	assert.Equal(t, "selfie at the beach", last.ImagePrompt)
}

func TestSelectContactClearsCounters(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")
	c, err := svc.AddContact(context.Background(), state.GenderFemale, state.RoleBestie)
	require.NoError(t, err)
	require.NoError(t, svc.SendMessage(context.Background(), c.ID, "hi", nil))
	require.Equal(t, 1, svc.State().Contact(c.ID).UnreadCount)

	require.NoError(t, svc.SelectContact(c.ID))
	got := svc.State()
	assert.Zero(t, got.Contact(c.ID).UnreadCount)
	assert.Equal(t, state.ActiveChat{ID: c.ID, Type: state.ChatTypeContact}, got.ActiveChat)
}

func TestDeleteContactRemovesBlobs(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	svc.SetupUser("Andi", "male", 24, "")
	c, err := svc.AddContact(ctx, state.GenderFemale, state.RoleBestie)
	require.NoError(t, err)
	require.NoError(t, svc.SendMessage(ctx, c.ID, "hi", nil))

	// Externalized media this contact would own
	got := svc.State().Contact(c.ID)
	msgID := got.Messages[len(got.Messages)-1].ID
	require.NoError(t, blobs.Put(ctx, hydrate.ContactProfileKey(c.ID), "pic"))
	require.NoError(t, blobs.Put(ctx, hydrate.MessageImageKey(msgID), "img"))

	require.NoError(t, svc.DeleteContact(ctx, c.ID))

	assert.Nil(t, svc.State().Contact(c.ID))
	v, _ := blobs.Get(ctx, hydrate.ContactProfileKey(c.ID))
	assert.Empty(t, v)
	v, _ = blobs.Get(ctx, hydrate.MessageImageKey(msgID))
	assert.Empty(t, v)

	assert.ErrorIs(t, svc.DeleteContact(ctx, c.ID), ErrUnknownContact)
}

func TestDeleteContactClearsActiveChat(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	svc.SetupUser("Andi", "male", 24, "")
	c, err := svc.AddContact(ctx, state.GenderFemale, state.RoleBestie)
	require.NoError(t, err)
	require.NoError(t, svc.SelectContact(c.ID))

	require.NoError(t, svc.DeleteContact(ctx, c.ID))
	assert.Equal(t, state.ActiveChat{}, svc.State().ActiveChat)
}

func TestSetProfilePictureClearDeletesBlob(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	svc.SetupUser("Andi", "male", 24, "")
	require.NoError(t, blobs.Put(ctx, hydrate.UserProfilePicKey, "old-pic"))

	require.NoError(t, svc.SetProfilePicture(ctx, ""))
	v, _ := blobs.Get(ctx, hydrate.UserProfilePicKey)
	assert.Empty(t, v)
	assert.Empty(t, svc.State().User.ProfilePicURL)
}

func TestStoryLifecycle(t *testing.T) {
	svc, _, blobs := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")

	// A canceled context keeps the delayed reaction from firing
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item, err := svc.PostStory(ctx, "image", "sunset", "data:image/png;base64,AAAA", "")
	require.NoError(t, err)
	require.Len(t, svc.State().User.Stories, 1)

	require.NoError(t, blobs.Put(context.Background(), hydrate.StoryKey(item.ID), "payload"))
	require.NoError(t, svc.DeleteStory(context.Background(), item.ID))
	assert.Empty(t, svc.State().User.Stories)
	v, _ := blobs.Get(context.Background(), hydrate.StoryKey(item.ID))
	assert.Empty(t, v)
}

func TestNudgeReady(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	mk := func(role state.AIRole, nudges int, sender state.MessageSender, age time.Duration) *state.AIContact {
		return &state.AIContact{
			ID: "c", Role: role, NudgeCount: nudges,
			Messages: []state.Message{{Sender: sender, Timestamp: base.Add(-age)}},
		}
	}

	assert.True(t, svc.nudgeReady(mk(state.RoleBestie, 0, state.SenderAI, 3*time.Minute)))
	assert.False(t, svc.nudgeReady(mk(state.RoleBestie, 0, state.SenderAI, time.Minute)), "first interval is 2m")
	assert.True(t, svc.nudgeReady(mk(state.RoleBestie, 1, state.SenderAI, 90*time.Second)), "second interval is 1m")
	assert.False(t, svc.nudgeReady(mk(state.RoleBestie, 2, state.SenderAI, 5*time.Minute)), "third interval is 7m")
	assert.True(t, svc.nudgeReady(mk(state.RoleBestie, 2, state.SenderAI, 8*time.Minute)))
	assert.False(t, svc.nudgeReady(mk(state.RoleBestie, 3, state.SenderAI, time.Hour)), "nudges cap at 3")
	assert.False(t, svc.nudgeReady(mk(state.RoleMusuh, 0, state.SenderAI, time.Hour)), "hostile contacts never chase")
	assert.False(t, svc.nudgeReady(mk(state.RoleBestie, 0, state.SenderUser, time.Hour)), "user spoke last")
}

func TestGenerateImageExtendsDerivedCache(t *testing.T) {
	svc, gen, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")

	require.NoError(t, svc.GenerateImage(context.Background(), "a red cat"))

	st := svc.State()
	require.Len(t, st.ImageCreator.Messages, 3) // greeting, prompt, result
	last := st.ImageCreator.Messages[2]
	assert.Equal(t, gen.imageURI, last.ImageURL)
	assert.Equal(t, "a red cat", last.ImagePrompt)
	require.Len(t, st.ImageCreator.GeneratedImages, 1)
	assert.Equal(t, gen.imageURI, st.ImageCreator.GeneratedImages[0])
}

func TestCreateContentUsesMode(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetupUser("Andi", "male", 24, "")
	svc.SetCreatorMode(state.ModeStoryboard)

	require.NoError(t, svc.CreateContent(context.Background(), "heist gone wrong"))

	st := svc.State()
	last := st.CreatorTools.Messages[len(st.CreatorTools.Messages)-1]
	assert.Equal(t, state.ModeStoryboard, last.CreatorToolMode)
}

func TestResetToolRestoresGreeting(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	svc.SetupUser("Andi", "male", 24, "")
	require.NoError(t, svc.GenerateImage(ctx, "a cat"))
	st := svc.State()
	require.Len(t, st.ImageCreator.Messages, 3)
	resultID := st.ImageCreator.Messages[2].ID
	require.NoError(t, blobs.Put(ctx, hydrate.MessageImageKey(resultID), "payload"))

	require.NoError(t, svc.ResetTool(ctx, state.ToolImageCreator))

	st = svc.State()
	assert.Len(t, st.ImageCreator.Messages, 1)
	assert.Empty(t, st.ImageCreator.GeneratedImages)
	v, _ := blobs.Get(ctx, hydrate.MessageImageKey(resultID))
	assert.Empty(t, v)

	assert.ErrorIs(t, svc.ResetTool(ctx, "bogus"), ErrUnknownTool)
}

func TestResetAppSwapsFreshTree(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	svc.SetupUser("Andi", "male", 24, "")
	require.NoError(t, blobs.Put(ctx, "leftover", "x"))

	snaps := store.NewMemSnapshotStore(0)
	engine := hydrate.NewEngine(blobs, snaps, quietLogger())
	require.NoError(t, svc.ResetApp(ctx, engine))

	st := svc.State()
	assert.Nil(t, st.User)
	assert.Zero(t, blobs.Len())
}

func TestResetAppDropsQueuedSave(t *testing.T) {
	blobs := store.NewMemBlobStore()
	snaps := store.NewMemSnapshotStore(0)
	engine := hydrate.NewEngine(blobs, snaps, quietLogger())
	saver := hydrate.NewSaver(engine, quietLogger())
	gen := &fakeGenerator{reply: genai.Reply{Text: "hey!", Emotion: state.EmotionSenang}}
	svc := NewService(state.NewAppState(), gen, blobs, saver, quietLogger())
	ctx := context.Background()

	// Mutate so a save sits queued, then reset before the saver runs. The
	// queued pre-reset tree must never land in the wiped snapshot.
	svc.SetupUser("Andi", "male", 24, "")
	require.NoError(t, svc.ResetApp(ctx, engine))

	runCtx, cancel := context.WithCancel(ctx)
	go saver.Run(runCtx)

	require.Never(t, func() bool {
		raw, err := snaps.Read()
		return err == nil && raw != ""
	}, 300*time.Millisecond, 20*time.Millisecond)

	cancel()
	saver.Wait()
}
