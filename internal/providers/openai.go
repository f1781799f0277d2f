package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	openAIBaseURL = "https://api.openai.com"

	// DefaultOpenAIChatModel backs reasoning calls.
	DefaultOpenAIChatModel = "gpt-4o-mini"

	// openAIModerationModel backs frame scoring via the moderations endpoint.
	openAIModerationModel = "omni-moderation-latest"
)

// OpenAI backs frame scoring with the moderations endpoint and reasoning
// with chat completions.
type OpenAI struct {
	httpClient *http.Client
	key        string
	model      string
	baseURL    string
}

// NewOpenAI creates an OpenAI-backed provider.
func NewOpenAI(cfg Config) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIChatModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAI{
		httpClient: &http.Client{Timeout: cfg.timeout()},
		key:        cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// ScoreFrame submits the frame as a data URL to the moderations endpoint
// and returns its category scores directly.
func (o *OpenAI) ScoreFrame(ctx context.Context, data []byte, mimeType string) (map[string]float64, error) {
	payload := map[string]any{
		"model": openAIModerationModel,
		"input": []map[string]any{
			{
				"type": "image_url",
				"image_url": map[string]string{
					"url": fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
				},
			},
		},
	}

	var result struct {
		Results []struct {
			CategoryScores map[string]float64 `json:"category_scores"`
		} `json:"results"`
	}
	if err := o.post(ctx, "/v1/moderations", payload, &result); err != nil {
		return nil, fmt.Errorf("openai frame scoring: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("openai moderation returned no results")
	}
	return result.Results[0].CategoryScores, nil
}

// GenerateJSON runs one chat completion in JSON mode.
func (o *OpenAI) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.post(ctx, "/v1/chat/completions", payload, &result); err != nil {
		return "", fmt.Errorf("openai reasoning: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (o *OpenAI) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("openai", resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
