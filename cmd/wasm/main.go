//go:build js && wasm

// WASM entry point. Wires the stores, hydration engine, saver, and chat
// service, and exposes the application surface to JavaScript. Blocking
// operations return Promises so the event loop never stalls.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"github.com/temancurhat/gocurhat/internal/config"
	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/chat"
	"github.com/temancurhat/gocurhat/pkg/genai"
	"github.com/temancurhat/gocurhat/pkg/hydrate"
	"github.com/temancurhat/gocurhat/pkg/search"
	"github.com/temancurhat/gocurhat/pkg/state"
)

const Version = "1.0.0"

const snapshotKey = "gocurhat-state"

var (
	log     = logrus.New()
	engine  *hydrate.Engine
	saver   *hydrate.Saver
	chatSvc *chat.Service
)

func main() {
	cfg := config.Default()
	if v := js.Global().Get("GOCURHAT_API_KEY"); v.Type() == js.TypeString {
		cfg.GoogleAPIKey = v.String()
	}

	// Blobs live in IndexedDB so externalized media survives reloads.
	// Headless hosts without indexedDB get an in-memory store instead.
	var blobs store.BlobStore = newIndexedDBBlobs("gocurhat", "blobs")
	if js.Global().Get("indexedDB").IsUndefined() {
		log.Warn("indexedDB unavailable, blobs will not persist")
		blobs = store.NewSQLiteBlobStore(":memory:")
	}
	snaps := newLocalStorageSnapshot(snapshotKey)
	engine = hydrate.NewEngine(blobs, snaps, log)
	saver = hydrate.NewSaver(engine, log)
	saver.OnQuota = func(err error) {
		alert := js.Global().Get("alert")
		if alert.Type() == js.TypeFunction {
			alert.Invoke("Storage is full. Your latest changes could not be saved.")
		}
	}

	ctx := context.Background()
	go saver.Run(ctx)

	st := engine.Load(ctx)
	gen := genai.NewService(cfg)
	chatSvc = chat.NewService(st, gen, blobs, saver, log)
	go chatSvc.RunNudger(ctx)

	js.Global().Set("GoCurhat", js.ValueOf(map[string]interface{}{
		"version":             js.FuncOf(getVersion),
		"getState":            js.FuncOf(getState),
		"setupUser":           js.FuncOf(setupUser),
		"updateUser":          js.FuncOf(updateUser),
		"setProfilePicture":   promisify(setProfilePicture),
		"addContact":          promisify(addContact),
		"selectContact":       js.FuncOf(selectContact),
		"selectTool":          js.FuncOf(selectTool),
		"closeChat":           js.FuncOf(closeChat),
		"setActiveScreen":     js.FuncOf(setActiveScreen),
		"deleteContact":       promisify(deleteContact),
		"sendMessage":         promisify(sendMessage),
		"postStory":           promisify(postStory),
		"deleteStory":         promisify(deleteStory),
		"generateImage":       promisify(generateImage),
		"removeBackground":    promisify(removeBackground),
		"generateVideo":       promisify(generateVideo),
		"createContent":       promisify(createContent),
		"updateImageSettings": js.FuncOf(updateImageSettings),
		"updateVideoSettings": js.FuncOf(updateVideoSettings),
		"setCreatorMode":      js.FuncOf(setCreatorMode),
		"resetTool":           promisify(resetTool),
		"resetApp":            promisify(resetApp),
		"searchMessages":      js.FuncOf(searchMessages),
	}))

	log.WithField("version", Version).Info("ready")

	// Keep the runtime alive for callbacks.
	select {}
}

// promisify wraps a blocking handler into an export that returns a Promise.
func promisify(fn func(args []js.Value) (interface{}, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		handler := js.FuncOf(func(this js.Value, pArgs []js.Value) interface{} {
			resolve, reject := pArgs[0], pArgs[1]
			go func() {
				out, err := fn(args)
				if err != nil {
					reject.Invoke(errorResult(err.Error()))
					return
				}
				resolve.Invoke(out)
			}()
			return nil
		})
		return js.Global().Get("Promise").New(handler)
	})
}

func errorResult(msg string) interface{} {
	jsonBytes, _ := json.Marshal(map[string]interface{}{"error": msg})
	return string(jsonBytes)
}

func successResult(msg string) interface{} {
	jsonBytes, _ := json.Marshal(map[string]interface{}{"success": msg})
	return string(jsonBytes)
}

func stateJSON() interface{} {
	data, err := json.Marshal(chatSvc.State())
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}

// =============================================================================
// Exports
// =============================================================================

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

func getState(this js.Value, args []js.Value) interface{} {
	return stateJSON()
}

// setupUser(name, gender, age, bio)
func setupUser(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errorResult("setupUser requires name, gender, age, bio")
	}
	chatSvc.SetupUser(args[0].String(), args[1].String(), args[2].Int(), args[3].String())
	return stateJSON()
}

// updateUser(name, age, bio)
func updateUser(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("updateUser requires name, age, bio")
	}
	if err := chatSvc.UpdateUser(args[0].String(), args[1].Int(), args[2].String()); err != nil {
		return errorResult(err.Error())
	}
	return stateJSON()
}

// setProfilePicture(dataUri) -- empty string clears
func setProfilePicture(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("setProfilePicture requires a data URI")
	}
	if err := chatSvc.SetProfilePicture(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

// addContact(gender, role)
func addContact(args []js.Value) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("addContact requires gender, role")
	}
	c, err := chatSvc.AddContact(context.Background(), state.AIGender(args[0].String()), state.AIRole(args[1].String()))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func selectContact(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("selectContact requires an id")
	}
	if err := chatSvc.SelectContact(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return stateJSON()
}

func selectTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("selectTool requires an id")
	}
	if err := chatSvc.SelectTool(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return stateJSON()
}

func closeChat(this js.Value, args []js.Value) interface{} {
	chatSvc.CloseChat()
	return stateJSON()
}

func setActiveScreen(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("setActiveScreen requires a screen")
	}
	chatSvc.SetActiveScreen(state.Screen(args[0].String()))
	return stateJSON()
}

func deleteContact(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("deleteContact requires an id")
	}
	if err := chatSvc.DeleteContact(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

// sendMessage(contactId, text, repliedToJson?)
func sendMessage(args []js.Value) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("sendMessage requires contactId, text")
	}
	var repliedTo *state.RepliedTo
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		repliedTo = &state.RepliedTo{}
		if err := json.Unmarshal([]byte(args[2].String()), repliedTo); err != nil {
			return nil, fmt.Errorf("bad repliedTo payload: %w", err)
		}
	}
	if err := chatSvc.SendMessage(context.Background(), args[0].String(), args[1].String(), repliedTo); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

// postStory(type, content, imageUri, backgroundColor)
func postStory(args []js.Value) (interface{}, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("postStory requires type, content, imageUri, backgroundColor")
	}
	_, err := chatSvc.PostStory(context.Background(), args[0].String(), args[1].String(), args[2].String(), args[3].String())
	if err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func deleteStory(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("deleteStory requires an id")
	}
	if err := chatSvc.DeleteStory(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func generateImage(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("generateImage requires a prompt")
	}
	if err := chatSvc.GenerateImage(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func removeBackground(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("removeBackground requires an image data URI")
	}
	if err := chatSvc.RemoveBackground(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func generateVideo(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("generateVideo requires a prompt")
	}
	if err := chatSvc.GenerateVideo(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func createContent(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("createContent requires an idea")
	}
	if err := chatSvc.CreateContent(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

// updateImageSettings(settingsJson)
func updateImageSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("updateImageSettings requires a settings payload")
	}
	var settings state.ImageSettings
	if err := json.Unmarshal([]byte(args[0].String()), &settings); err != nil {
		return errorResult("bad settings payload: " + err.Error())
	}
	chatSvc.UpdateImageSettings(settings)
	return stateJSON()
}

// updateVideoSettings(settingsJson)
func updateVideoSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("updateVideoSettings requires a settings payload")
	}
	var settings state.VideoGenSettings
	if err := json.Unmarshal([]byte(args[0].String()), &settings); err != nil {
		return errorResult("bad settings payload: " + err.Error())
	}
	chatSvc.UpdateVideoSettings(settings)
	return stateJSON()
}

func setCreatorMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("setCreatorMode requires a mode")
	}
	chatSvc.SetCreatorMode(state.CreatorToolsMode(args[0].String()))
	return stateJSON()
}

func resetTool(args []js.Value) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("resetTool requires a tool id")
	}
	if err := chatSvc.ResetTool(context.Background(), args[0].String()); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

func resetApp(args []js.Value) (interface{}, error) {
	if err := chatSvc.ResetApp(context.Background(), engine); err != nil {
		return nil, err
	}
	return stateJSON(), nil
}

// searchMessages(contactId, query)
func searchMessages(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("searchMessages requires contactId, query")
	}
	st := chatSvc.State()
	var msgs []state.Message
	switch id := args[0].String(); {
	case id == state.ToolImageCreator:
		msgs = st.ImageCreator.Messages
	case id == state.ToolRemoveBg:
		msgs = st.RemoveBg.Messages
	case id == state.ToolCreatorTools:
		msgs = st.CreatorTools.Messages
	case id == state.ToolVideoGen:
		msgs = st.VideoGen.Messages
	default:
		c := st.Contact(id)
		if c == nil {
			return errorResult("unknown chat")
		}
		msgs = c.Messages
	}
	m, err := search.NewMatcher(args[1].String())
	if err != nil {
		return errorResult(err.Error())
	}
	data, err := json.Marshal(m.FilterMessages(msgs))
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}
