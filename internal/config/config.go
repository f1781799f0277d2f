// Package config builds the pipeline configuration once at startup.
// Settings come from the environment with sensible defaults; secrets are
// not handled here, they go through the credentials resolver.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vodlens/internal/providers"
)

// Config carries every tunable the pipelines read. It is built once in
// main and passed down explicitly.
type Config struct {
	// Provider selection.
	ScoringProvider   providers.Tag
	ReasoningProvider providers.Tag
	ScoringModel      string
	ReasoningModel    string
	ProviderTimeout   time.Duration

	// Sampling.
	SamplingIntervalSeconds float64
	MaxSamples              *int

	// Execution.
	Concurrency int
	MaxRetries  int

	// Highlight clips.
	LanguageCode       string
	MinClipDuration    float64
	MaxClipDuration    float64
	TargetClipDuration float64

	// Frame preparation.
	FrameTimeout      time.Duration
	FrameMaxDimension int

	// Video platform.
	VideoAPIBaseURL    string
	VideoStreamBaseURL string
	VideoImageBaseURL  string

	// Report storage. Empty bucket disables persistence.
	ArtifactBucket string
	ArtifactPrefix string

	// Credential lookup. Empty prefix disables the SSM source.
	SSMParamPrefix string
}

// Load reads the configuration from the environment. Unset variables take
// defaults; malformed values are logged and ignored.
func Load() Config {
	cfg := Config{
		ScoringProvider:         providers.Tag(envString("VODLENS_SCORING_PROVIDER", string(providers.TagGoogle))),
		ReasoningProvider:       providers.Tag(envString("VODLENS_REASONING_PROVIDER", string(providers.TagGoogle))),
		ScoringModel:            os.Getenv("VODLENS_SCORING_MODEL"),
		ReasoningModel:          os.Getenv("VODLENS_REASONING_MODEL"),
		ProviderTimeout:         envDuration("VODLENS_PROVIDER_TIMEOUT", 0),
		SamplingIntervalSeconds: envFloat("VODLENS_SAMPLING_INTERVAL", 10),
		Concurrency:             envInt("VODLENS_CONCURRENCY", 5),
		MaxRetries:              envInt("VODLENS_MAX_RETRIES", 3),
		LanguageCode:            envString("VODLENS_LANGUAGE_CODE", "en"),
		MinClipDuration:         envFloat("VODLENS_MIN_CLIP_DURATION", 15),
		MaxClipDuration:         envFloat("VODLENS_MAX_CLIP_DURATION", 60),
		TargetClipDuration:      envFloat("VODLENS_TARGET_CLIP_DURATION", 30),
		FrameTimeout:            envDuration("VODLENS_FRAME_TIMEOUT", 0),
		FrameMaxDimension:       envInt("VODLENS_FRAME_MAX_DIMENSION", 0),
		VideoAPIBaseURL:         os.Getenv("VODLENS_VIDEO_API_URL"),
		VideoStreamBaseURL:      os.Getenv("VODLENS_VIDEO_STREAM_URL"),
		VideoImageBaseURL:       os.Getenv("VODLENS_VIDEO_IMAGE_URL"),
		ArtifactBucket:          os.Getenv("VODLENS_ARTIFACT_BUCKET"),
		ArtifactPrefix:          envString("VODLENS_ARTIFACT_PREFIX", "runs"),
		SSMParamPrefix:          os.Getenv("VODLENS_SSM_PARAM_PREFIX"),
	}

	if raw := os.Getenv("VODLENS_MAX_SAMPLES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.MaxSamples = &n
		} else {
			log.Warn().Str("value", raw).Msg("Ignoring malformed VODLENS_MAX_SAMPLES")
		}
	}
	return cfg
}

// Validate rejects configurations the pipelines cannot run with.
func (c Config) Validate() error {
	switch c.ScoringProvider {
	case providers.TagGoogle, providers.TagOpenAI, providers.TagAnthropic, providers.TagHive:
	default:
		return fmt.Errorf("unknown scoring provider %q", c.ScoringProvider)
	}
	switch c.ReasoningProvider {
	case providers.TagGoogle, providers.TagOpenAI, providers.TagAnthropic:
	default:
		return fmt.Errorf("unknown reasoning provider %q", c.ReasoningProvider)
	}
	if c.SamplingIntervalSeconds <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %g", c.SamplingIntervalSeconds)
	}
	if c.MinClipDuration <= 0 || c.MaxClipDuration < c.MinClipDuration {
		return fmt.Errorf("clip duration bounds [%g, %g] are invalid", c.MinClipDuration, c.MaxClipDuration)
	}
	return nil
}

func envString(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("var", name).Str("value", raw).Msg("Ignoring malformed integer")
		return fallback
	}
	return value
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("var", name).Str("value", raw).Msg("Ignoring malformed number")
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("var", name).Str("value", raw).Msg("Ignoring malformed duration")
		return fallback
	}
	return value
}
