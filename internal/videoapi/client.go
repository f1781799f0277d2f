// Package videoapi is a client for the hosted-video platform: asset
// metadata, text tracks, storyboard thumbnails, and derived clip creation.
//
// The pipeline only ever touches assets through this client; URL signing
// and upload mechanics stay on the platform side.
package videoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vodlens/internal/apierr"
	"github.com/fpang/vodlens/internal/highlights"
)

const (
	defaultAPIBaseURL    = "https://api.vhs.video"
	defaultStreamBaseURL = "https://stream.vhs.video"
	defaultImageBaseURL  = "https://image.vhs.video"

	defaultTimeout = 30 * time.Second
)

// Config parameterizes the client. Base URLs default to the production
// endpoints; tests point them at a local server.
type Config struct {
	TokenID     string
	TokenSecret string

	APIBaseURL    string
	StreamBaseURL string
	ImageBaseURL  string

	Timeout time.Duration
}

// Client provides asset operations against the video platform API.
type Client struct {
	httpClient    *http.Client
	tokenID       string
	tokenSecret   string
	apiBaseURL    string
	streamBaseURL string
	imageBaseURL  string
}

// NewClient creates a platform API client. Credentials come from the
// credential resolver at startup.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		tokenID:       cfg.TokenID,
		tokenSecret:   cfg.TokenSecret,
		apiBaseURL:    cfg.APIBaseURL,
		streamBaseURL: cfg.StreamBaseURL,
		imageBaseURL:  cfg.ImageBaseURL,
	}
	if c.apiBaseURL == "" {
		c.apiBaseURL = defaultAPIBaseURL
	}
	if c.streamBaseURL == "" {
		c.streamBaseURL = defaultStreamBaseURL
	}
	if c.imageBaseURL == "" {
		c.imageBaseURL = defaultImageBaseURL
	}
	return c
}

// --- API response types ---

// Asset is the platform's asset record, reduced to the fields the pipeline
// reads.
type Asset struct {
	ID          string       `json:"id"`
	Duration    float64      `json:"duration"`
	PlaybackIDs []PlaybackID `json:"playback_ids"`
	Tracks      []Track      `json:"tracks"`
}

// PlaybackID addresses an asset on the streaming and image hosts.
type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

// Track is one media track on an asset.
type Track struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	TextType     string `json:"text_type,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type assetEnvelope struct {
	Data Asset `json:"data"`
}

// GetAsset fetches the asset record.
func (c *Client) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var envelope assetEnvelope
	if err := c.get(ctx, fmt.Sprintf("/video/v1/assets/%s", assetID), &envelope); err != nil {
		return nil, fmt.Errorf("get asset %s: %w", assetID, err)
	}
	return &envelope.Data, nil
}

// AssetDuration returns the asset's duration in seconds.
func (c *Client) AssetDuration(ctx context.Context, assetID string) (float64, error) {
	asset, err := c.GetAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.Duration, nil
}

// PlaybackID returns the asset's first playback ID, used to address the
// streaming and image hosts.
func (c *Client) PlaybackID(ctx context.Context, assetID string) (string, error) {
	asset, err := c.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	if len(asset.PlaybackIDs) == 0 {
		return "", apierr.Invariantf("asset %s has no playback ID", assetID)
	}
	return asset.PlaybackIDs[0].ID, nil
}

// Transcript fetches the asset's text track for the given language as
// plain text.
func (c *Client) Transcript(ctx context.Context, assetID, languageCode string) (string, error) {
	asset, err := c.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}

	var trackID string
	for _, track := range asset.Tracks {
		if track.Type != "text" {
			continue
		}
		if track.LanguageCode == languageCode || trackID == "" {
			trackID = track.ID
		}
		if track.LanguageCode == languageCode {
			break
		}
	}
	if trackID == "" {
		return "", fmt.Errorf("asset %s has no text track", assetID)
	}
	if len(asset.PlaybackIDs) == 0 {
		return "", apierr.Invariantf("asset %s has no playback ID", assetID)
	}

	url := fmt.Sprintf("%s/%s/text/%s.txt", c.streamBaseURL, asset.PlaybackIDs[0].ID, trackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read text track: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apierr.StatusError{Service: "video-stream", StatusCode: resp.StatusCode, Body: preview(body)}
	}
	return string(body), nil
}

// ThumbnailURL addresses a storyboard still at a point on the timeline.
func (c *Client) ThumbnailURL(playbackID string, seconds float64, width int) string {
	url := fmt.Sprintf("%s/%s/thumbnail.jpg?time=%g", c.imageBaseURL, playbackID, seconds)
	if width > 0 {
		url += fmt.Sprintf("&width=%d", width)
	}
	return url
}

// CreateClip creates a derived asset scoped to [startTime, endTime] on the
// source asset.
func (c *Client) CreateClip(ctx context.Context, sourceAssetID string, startTime, endTime float64) (highlights.AssetRef, error) {
	payload := map[string]any{
		"input": []map[string]any{
			{
				"url":        fmt.Sprintf("asset://%s", sourceAssetID),
				"start_time": startTime,
				"end_time":   endTime,
			},
		},
		"playback_policy": []string{"public"},
	}

	var envelope assetEnvelope
	if err := c.post(ctx, "/video/v1/assets", payload, &envelope); err != nil {
		return highlights.AssetRef{}, fmt.Errorf("create clip of %s: %w", sourceAssetID, err)
	}

	ref := highlights.AssetRef{ID: envelope.Data.ID}
	if len(envelope.Data.PlaybackIDs) > 0 {
		ref.PlaybackURL = fmt.Sprintf("%s/%s.m3u8", c.streamBaseURL, envelope.Data.PlaybackIDs[0].ID)
	}
	log.Debug().
		Str("source", sourceAssetID).
		Str("derived", ref.ID).
		Float64("start", startTime).
		Float64("end", endTime).
		Msg("Derived clip asset created")
	return ref, nil
}

// --- HTTP plumbing ---

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apierr.StatusError{Service: "video-api", StatusCode: resp.StatusCode, Body: preview(body)}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func preview(b []byte) string {
	const max = 300
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
