// Package providers selects the external model backends.
//
// Each backend implements one or both capabilities — frame scoring for
// moderation and structured reasoning for clip synthesis — behind a common
// interface, and a factory keyed on a provider tag picks the variant. New
// backends add one file here instead of another branch at every call site.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/vodlens/internal/apierr"
)

// FrameScorer scores a single visual sample against content-safety
// categories, returning scores in [0,1].
type FrameScorer interface {
	ScoreFrame(ctx context.Context, data []byte, mimeType string) (map[string]float64, error)
}

// Reasoner answers a prompt with raw model text expected to contain JSON.
type Reasoner interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Tag identifies a backend.
type Tag string

const (
	TagGoogle    Tag = "google"
	TagOpenAI    Tag = "openai"
	TagAnthropic Tag = "anthropic"
	TagHive      Tag = "hive"
)

// Config selects and parameterizes a backend.
type Config struct {
	Provider Tag
	// Model overrides the backend's default model ID.
	Model string
	// APIKey authenticates against the backend.
	APIKey string
	// BaseURL overrides the backend endpoint, used in tests.
	BaseURL string
	// Timeout bounds each individual call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a single scoring or reasoning call so a slow call
// fails fast into the retry loop instead of holding a concurrency slot.
const DefaultTimeout = 10 * time.Second

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// statusError wraps a non-2xx backend response into the shared taxonomy.
func statusError(service string, code int, body []byte) error {
	return &apierr.StatusError{Service: service, StatusCode: code, Body: truncate(body)}
}

func truncate(b []byte) string {
	const max = 300
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// NewFrameScorer returns the scoring backend for the configured tag.
func NewFrameScorer(ctx context.Context, cfg Config) (FrameScorer, error) {
	switch cfg.Provider {
	case TagGoogle:
		return NewGemini(ctx, cfg)
	case TagOpenAI:
		return NewOpenAI(cfg), nil
	case TagAnthropic:
		return NewAnthropic(cfg), nil
	case TagHive:
		return NewHive(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scoring provider %q", cfg.Provider)
	}
}

// NewReasoner returns the reasoning backend for the configured tag.
func NewReasoner(ctx context.Context, cfg Config) (Reasoner, error) {
	switch cfg.Provider {
	case TagGoogle:
		return NewGemini(ctx, cfg)
	case TagOpenAI:
		return NewOpenAI(cfg), nil
	case TagAnthropic:
		return NewAnthropic(cfg), nil
	case TagHive:
		return nil, fmt.Errorf("provider %q offers no reasoning model", cfg.Provider)
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
}
