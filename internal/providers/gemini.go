package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/vodlens/internal/assets"
	"github.com/fpang/vodlens/internal/jsonutil"
)

// DefaultGeminiModel is used when no model override is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini backs both capabilities with the Gemini API.
type Gemini struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

// NewGemini creates a Gemini-backed provider. The configured per-call
// timeout is carried by the underlying HTTP client so a hung call fails
// into the retry loop instead of holding a concurrency slot.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	httpClient := &http.Client{Timeout: cfg.timeout()}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, httpClient: httpClient}, nil
}

// ScoreFrame sends the frame inline and parses the category-score JSON.
func (g *Gemini) ScoreFrame(ctx context.Context, data []byte, mimeType string) (map[string]float64, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ModerationSystemPrompt}},
		},
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: "Score this frame."},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini frame scoring: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	scores, err := jsonutil.Decode[map[string]float64](resp.Text())
	if err != nil {
		return nil, fmt.Errorf("gemini score response: %w", err)
	}
	return scores, nil
}

// GenerateJSON runs one reasoning call and returns the raw model text.
func (g *Gemini) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	log.Debug().Str("model", g.model).Int("prompt_length", len(prompt)).Msg("Starting Gemini reasoning call")
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini reasoning: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return resp.Text(), nil
}
