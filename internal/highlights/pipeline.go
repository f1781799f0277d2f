package highlights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MetadataService resolves asset metadata and text tracks from the video
// platform.
type MetadataService interface {
	AssetDuration(ctx context.Context, assetID string) (float64, error)
	Transcript(ctx context.Context, assetID, languageCode string) (string, error)
}

// ClipCreator creates a derived asset scoped to a time range.
type ClipCreator interface {
	CreateClip(ctx context.Context, sourceAssetID string, startTime, endTime float64) (AssetRef, error)
}

// FrameURLFunc returns a still-image URL for a point on the asset timeline.
type FrameURLFunc func(assetID string, seconds float64) string

// Pipeline runs the full highlight workflow: metadata fetch, clip-boundary
// synthesis, sequential materialization.
type Pipeline struct {
	meta     MetadataService
	synth    *Synthesizer
	creator  ClipCreator
	frameURL FrameURLFunc

	language        string
	minClipDuration float64
	maxClipDuration float64
	targetDuration  float64
}

// PipelineOptions tunes a highlight run.
type PipelineOptions struct {
	// LanguageCode selects the text track. Empty means "en".
	LanguageCode string
	// MinClipDuration / MaxClipDuration bound every produced clip, seconds.
	// Zero values fall back to 15 and 60.
	MinClipDuration float64
	MaxClipDuration float64
	// TargetDuration is the preferred clip length, zero when unset.
	TargetDuration float64
}

const (
	defaultMinClipDuration = 15
	defaultMaxClipDuration = 60
)

// NewPipeline constructs the highlight pipeline from its collaborators.
func NewPipeline(meta MetadataService, synth *Synthesizer, creator ClipCreator, frameURL FrameURLFunc, opts PipelineOptions) *Pipeline {
	language := opts.LanguageCode
	if language == "" {
		language = "en"
	}
	minDur := opts.MinClipDuration
	if minDur <= 0 {
		minDur = defaultMinClipDuration
	}
	maxDur := opts.MaxClipDuration
	if maxDur <= 0 {
		maxDur = defaultMaxClipDuration
	}
	return &Pipeline{
		meta:            meta,
		synth:           synth,
		creator:         creator,
		frameURL:        frameURL,
		language:        language,
		minClipDuration: minDur,
		maxClipDuration: maxDur,
		targetDuration:  opts.TargetDuration,
	}
}

// Report is the complete outcome of one highlight run.
type Report struct {
	ID         string         `json:"id"`
	AssetID    string         `json:"asset_id"`
	Hotspots   []Hotspot      `json:"hotspots"`
	Boundaries []ClipBoundary `json:"boundaries"`
	Clips      []ClipAsset    `json:"clips"`
	Summary    Summary        `json:"summary"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Run synthesizes and materializes highlight clips for one asset. Metadata
// failure aborts; a missing transcript degrades to synthesis without text;
// per-clip creation failures are recorded, never propagated.
func (p *Pipeline) Run(ctx context.Context, assetID string, hotspots []Hotspot) (*Report, error) {
	duration, err := p.meta.AssetDuration(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("fetch duration for asset %s: %w", assetID, err)
	}

	transcript, err := p.meta.Transcript(ctx, assetID, p.language)
	if err != nil {
		log.Warn().Err(err).Str("asset", assetID).Str("language", p.language).
			Msg("Transcript unavailable, synthesizing from hotspots and visuals only")
		transcript = ""
	}

	sctx := Context{
		Transcript:      transcript,
		VisualSamples:   p.visualSamples(assetID, hotspots),
		DurationSeconds: duration,
		MinClipDuration: p.minClipDuration,
		MaxClipDuration: p.maxClipDuration,
		TargetDuration:  p.targetDuration,
	}

	boundaries, err := p.synth.Synthesize(ctx, hotspots, sctx)
	if err != nil {
		return nil, err
	}

	clips := Materialize(ctx, boundaries, func(ctx context.Context, b ClipBoundary) (AssetRef, error) {
		return p.creator.CreateClip(ctx, assetID, b.StartTime, b.EndTime)
	})

	summary := Summarize(clips)
	log.Info().
		Str("asset", assetID).
		Int("hotspots", len(hotspots)).
		Int("boundaries", len(boundaries)).
		Int("ready", summary.TotalClipsGenerated).
		Int("errored", summary.Errored).
		Msg("Highlight run complete")

	return &Report{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		Hotspots:   hotspots,
		Boundaries: boundaries,
		Clips:      clips,
		Summary:    summary,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// visualSamples picks one frame reference at each hotspot midpoint.
func (p *Pipeline) visualSamples(assetID string, hotspots []Hotspot) []VisualSample {
	if p.frameURL == nil {
		return nil
	}
	out := make([]VisualSample, 0, len(hotspots))
	for _, h := range hotspots {
		mid := float64(h.StartMs+h.EndMs) / 2000
		out = append(out, VisualSample{TimestampSeconds: mid, URL: p.frameURL(assetID, mid)})
	}
	return out
}
