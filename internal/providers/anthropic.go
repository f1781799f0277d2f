package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fpang/vodlens/internal/assets"
	"github.com/fpang/vodlens/internal/jsonutil"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"

	// DefaultAnthropicModel is used when no model override is configured.
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	anthropicMaxTokens = 4096
)

// Anthropic backs both capabilities with the Messages API.
type Anthropic struct {
	httpClient *http.Client
	key        string
	model      string
	baseURL    string
}

// NewAnthropic creates an Anthropic-backed provider.
func NewAnthropic(cfg Config) *Anthropic {
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &Anthropic{
		httpClient: &http.Client{Timeout: cfg.timeout()},
		key:        cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// ScoreFrame sends the frame as a base64 image block and parses the
// category-score JSON from the reply.
func (a *Anthropic) ScoreFrame(ctx context.Context, data []byte, mimeType string) (map[string]float64, error) {
	content := []map[string]any{
		{
			"type": "image",
			"source": map[string]string{
				"type":       "base64",
				"media_type": mimeType,
				"data":       base64.StdEncoding.EncodeToString(data),
			},
		},
		{"type": "text", "text": "Score this frame."},
	}

	text, err := a.message(ctx, assets.ModerationSystemPrompt, content)
	if err != nil {
		return nil, fmt.Errorf("anthropic frame scoring: %w", err)
	}
	scores, err := jsonutil.Decode[map[string]float64](text)
	if err != nil {
		return nil, fmt.Errorf("anthropic score response: %w", err)
	}
	return scores, nil
}

// GenerateJSON runs one reasoning call and returns the raw model text.
func (a *Anthropic) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	text, err := a.message(ctx, system, []map[string]any{{"type": "text", "text": prompt}})
	if err != nil {
		return "", fmt.Errorf("anthropic reasoning: %w", err)
	}
	return text, nil
}

func (a *Anthropic) message(ctx context.Context, system string, content []map[string]any) (string, error) {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": anthropicMaxTokens,
		"system":     system,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", a.key)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("anthropic", resp.StatusCode, respBody)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return sb.String(), nil
}
