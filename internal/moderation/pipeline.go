package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/vodlens/internal/executor"
	"github.com/fpang/vodlens/internal/retry"
	"github.com/fpang/vodlens/internal/sampling"
)

// MetadataService resolves asset metadata from the video platform.
type MetadataService interface {
	AssetDuration(ctx context.Context, assetID string) (float64, error)
}

// FrameSource fetches the visual sample for a point on the asset timeline.
type FrameSource interface {
	FrameAt(ctx context.Context, assetID string, seconds float64) (data []byte, mimeType string, err error)
}

// FrameScorer returns category scores in [0,1] for one frame. Backed by a
// vision provider selected at startup.
type FrameScorer interface {
	ScoreFrame(ctx context.Context, data []byte, mimeType string) (map[string]float64, error)
}

// Pipeline wires sampling, bounded fan-out, scoring, and aggregation.
type Pipeline struct {
	meta   MetadataService
	frames FrameSource
	scorer FrameScorer

	sampling    sampling.Options
	concurrency int
	thresholds  map[string]float64
	retry       retry.Policy
}

// Options tunes a moderation run. Zero values fall back to defaults.
type Options struct {
	Sampling    sampling.Options
	Concurrency int
	// Thresholds are per-category overrides merged over the defaults.
	Thresholds map[string]float64
	Retry      *retry.Policy
}

const defaultConcurrency = 5

// NewPipeline constructs a moderation pipeline from its collaborators.
func NewPipeline(meta MetadataService, frames FrameSource, scorer FrameScorer, opts Options) *Pipeline {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	policy := retry.DefaultPolicy()
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	return &Pipeline{
		meta:        meta,
		frames:      frames,
		scorer:      scorer,
		sampling:    opts.Sampling,
		concurrency: concurrency,
		thresholds:  MergeThresholds(opts.Thresholds),
		retry:       policy,
	}
}

// Report is the complete outcome of one moderation run. Partial failure
// shows up as errored entries in Results, never as a missing report.
type Report struct {
	ID              string               `json:"id"`
	AssetID         string               `json:"asset_id"`
	DurationSeconds float64              `json:"duration_seconds"`
	Samples         []sampling.TimeSample `json:"samples"`
	Results         []ScoreResult        `json:"results"`
	Aggregate       AggregateScore       `json:"aggregate"`
	Flagged         []string             `json:"flagged,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Run moderates one asset: sample the timeline, score every sample with
// bounded concurrency, aggregate. Only metadata failure or an invalid
// duration aborts the run; per-frame failures become errored results.
func (p *Pipeline) Run(ctx context.Context, assetID string) (*Report, error) {
	duration, err := p.meta.AssetDuration(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("fetch duration for asset %s: %w", assetID, err)
	}

	samples, err := sampling.Sample(duration, p.sampling)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("asset", assetID).
		Float64("duration", duration).
		Int("samples", len(samples)).
		Int("concurrency", p.concurrency).
		Msg("Starting moderation run")

	results, runErr := executor.RunBounded(ctx, samples, p.scoreSample(assetID), p.concurrency)

	agg := Aggregate(results, p.thresholds)
	report := &Report{
		ID:              uuid.NewString(),
		AssetID:         assetID,
		DurationSeconds: duration,
		Samples:         samples,
		Results:         results,
		Aggregate:       agg,
		Flagged:         FlaggedCategories(agg),
		CreatedAt:       time.Now().UTC(),
	}

	errored := 0
	for _, r := range results {
		if r.Errored {
			errored++
		}
	}
	log.Info().
		Str("asset", assetID).
		Int("scored", len(results)-errored).
		Int("errored", errored).
		Bool("exceeds_threshold", agg.ExceedsThreshold).
		Strs("flagged", report.Flagged).
		Msg("Moderation run complete")

	if runErr != nil {
		// Cancelled mid-run: completed chunks are kept in the report.
		return report, runErr
	}
	return report, nil
}

// scoreSample builds the per-sample task: fetch the frame, score it under
// the retry policy, and absorb any failure into an errored record.
func (p *Pipeline) scoreSample(assetID string) func(context.Context, sampling.TimeSample) ScoreResult {
	return func(ctx context.Context, s sampling.TimeSample) ScoreResult {
		sourceRef := fmt.Sprintf("%s@%gs", assetID, s.TimestampSeconds)

		scores, err := retry.Do(ctx, p.retry, func(ctx context.Context) (map[string]float64, error) {
			data, mimeType, err := p.frames.FrameAt(ctx, assetID, s.TimestampSeconds)
			if err != nil {
				return nil, fmt.Errorf("fetch frame %s: %w", sourceRef, err)
			}
			return p.scorer.ScoreFrame(ctx, data, mimeType)
		})
		if err != nil {
			log.Warn().Err(err).Str("sample", sourceRef).Msg("Sample scoring failed")
			return ScoreResult{SourceRef: sourceRef, Errored: true, Error: err.Error()}
		}
		return ScoreResult{SourceRef: sourceRef, CategoryScores: scores}
	}
}
