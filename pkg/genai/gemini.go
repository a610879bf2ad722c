package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/temancurhat/gocurhat/pkg/state"
)

const apiBase = "https://generativelanguage.googleapis.com/v1beta"

// --- generateContent (text and image editing) ---

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (s *Service) generateText(ctx context.Context, prompt, system string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", apiBase, s.cfg.TextModel, s.cfg.GoogleAPIKey)
	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{Temperature: 0.8, MaxOutputTokens: 4096},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := s.fetch(ctx, "POST", url, string(body))
	if err != nil {
		return "", fmt.Errorf("text request failed: %w", err)
	}
	var resp geminiResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// editImage sends an image plus instruction through generateContent and
// returns the edited image as a data URI.
func (s *Service) editImage(ctx context.Context, imageDataURI, instruction string) (string, error) {
	mime, data, err := splitDataURI(imageDataURI)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", apiBase, s.cfg.TextModel, s.cfg.GoogleAPIKey)
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{
			{InlineData: &inlineData{MimeType: mime, Data: data}},
			{Text: instruction},
		}}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := s.fetch(ctx, "POST", url, string(body))
	if err != nil {
		return "", fmt.Errorf("edit request failed: %w", err)
	}
	var resp geminiResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData != nil {
				return "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", fmt.Errorf("no image in response")
}

// --- predict (image generation) ---

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
	Error *apiError `json:"error,omitempty"`
}

func (s *Service) generateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("generator not configured")
	}
	url := fmt.Sprintf("%s/models/%s:predict?key=%s", apiBase, s.cfg.ImageModel, s.cfg.GoogleAPIKey)
	req := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: aspectRatio},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := s.fetch(ctx, "POST", url, string(body))
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	var resp predictResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Predictions) == 0 {
		return "", fmt.Errorf("no image in response")
	}
	p := resp.Predictions[0]
	mime := p.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + p.BytesBase64Encoded, nil
}

// --- predictLongRunning (video generation) ---

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					BytesBase64Encoded string `json:"bytesBase64Encoded"`
					MimeType           string `json:"mimeType"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error *apiError `json:"error,omitempty"`
}

const (
	videoPollInterval = 5 * time.Second
	videoPollMax      = 60
)

func (s *Service) generateVideo(ctx context.Context, prompt string, settings state.VideoGenSettings) (string, error) {
	url := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", apiBase, s.cfg.VideoModel, s.cfg.GoogleAPIKey)
	aspect := "16:9"
	if settings.Orientation == "portrait" {
		aspect = "9:16"
	}
	req := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: aspect},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := s.fetch(ctx, "POST", url, string(body))
	if err != nil {
		return "", fmt.Errorf("video request failed: %w", err)
	}
	var op operationResponse
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return "", fmt.Errorf("failed to parse operation: %w", err)
	}
	if op.Error != nil {
		return "", fmt.Errorf("api error %d: %s", op.Error.Code, op.Error.Message)
	}

	for i := 0; !op.Done; i++ {
		if i >= videoPollMax {
			return "", fmt.Errorf("video generation timed out")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(videoPollInterval):
		}
		pollURL := fmt.Sprintf("%s/%s?key=%s", apiBase, op.Name, s.cfg.GoogleAPIKey)
		raw, err := s.fetch(ctx, "GET", pollURL, "")
		if err != nil {
			return "", fmt.Errorf("video poll failed: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &op); err != nil {
			return "", fmt.Errorf("failed to parse operation: %w", err)
		}
		if op.Error != nil {
			return "", fmt.Errorf("api error %d: %s", op.Error.Code, op.Error.Message)
		}
	}

	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return "", fmt.Errorf("no video in response")
	}
	v := samples[0].Video
	mime := v.MimeType
	if mime == "" {
		mime = "video/mp4"
	}
	return "data:" + mime + ";base64," + v.BytesBase64Encoded, nil
}

// splitDataURI separates "data:<mime>;base64,<data>" into its parts.
func splitDataURI(uri string) (mime, data string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", fmt.Errorf("not a data URI")
	}
	rest := uri[len("data:"):]
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return "", "", fmt.Errorf("not a base64 data URI")
	}
	return rest[:sep], rest[sep+len(";base64,"):], nil
}
