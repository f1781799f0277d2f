package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const hiveBaseURL = "https://api.thehive.ai"

// hiveClassMap folds Hive's fine-grained model classes into the pipeline's
// category set, keeping the maximum score per category.
var hiveClassMap = map[string]string{
	"general_nsfw":       "sexual",
	"general_suggestive": "sexual",
	"yes_female_nudity":  "sexual",
	"yes_male_nudity":    "sexual",
	"gun_in_hand":        "violence",
	"knife_in_hand":      "violence",
	"very_bloody":        "violence",
	"human_corpse":       "violence",
	"hate_symbols":       "hate",
	"nazi":               "hate",
	"kkk":                "hate",
}

// Hive backs frame scoring with the Hive visual-moderation sync API. It is
// scoring-only; the factory rejects it as a reasoning backend.
type Hive struct {
	httpClient *http.Client
	key        string
	baseURL    string
}

// NewHive creates a Hive-backed frame scorer.
func NewHive(cfg Config) *Hive {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = hiveBaseURL
	}
	return &Hive{
		httpClient: &http.Client{Timeout: cfg.timeout()},
		key:        cfg.APIKey,
		baseURL:    baseURL,
	}
}

// ScoreFrame uploads the frame for synchronous classification and folds the
// returned classes into category scores.
func (h *Hive) ScoreFrame(ctx context.Context, data []byte, _ string) (map[string]float64, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/v2/task/sync", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+h.key)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("hive", resp.StatusCode, respBody)
	}

	var result struct {
		Status []struct {
			Response struct {
				Output []struct {
					Classes []struct {
						Class string  `json:"class"`
						Score float64 `json:"score"`
					} `json:"classes"`
				} `json:"output"`
			} `json:"response"`
		} `json:"status"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	scores := map[string]float64{"sexual": 0, "violence": 0, "hate": 0}
	for _, status := range result.Status {
		for _, output := range status.Response.Output {
			for _, class := range output.Classes {
				category, ok := hiveClassMap[class.Class]
				if !ok {
					continue
				}
				if class.Score > scores[category] {
					scores[category] = class.Score
				}
			}
		}
	}
	return scores, nil
}
