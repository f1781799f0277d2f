package highlights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vodlens/internal/apierr"
	"github.com/fpang/vodlens/internal/assets"
	"github.com/fpang/vodlens/internal/jsonutil"
	"github.com/fpang/vodlens/internal/retry"
)

// Reasoner is the external reasoning collaborator. It receives a system
// instruction and a prompt and returns raw model text expected to contain a
// JSON clip plan.
type Reasoner interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// VisualSample is a still-image reference anchoring a hotspot visually.
type VisualSample struct {
	TimestampSeconds float64 `json:"timestamp_seconds"`
	URL              string  `json:"url"`
}

// Context carries everything the reasoning collaborator needs to anchor
// clip boundaries to natural linguistic breaks instead of raw hotspot
// timestamps.
type Context struct {
	Transcript      string
	VisualSamples   []VisualSample
	DurationSeconds float64
	MinClipDuration float64
	MaxClipDuration float64
	// TargetDuration is the preferred clip length, zero when unset.
	TargetDuration float64
}

// Synthesizer refines hotspots into clip boundaries via one batched
// reasoning call.
type Synthesizer struct {
	reasoner Reasoner
	retry    retry.Policy
}

// NewSynthesizer wires the reasoning collaborator and its retry policy.
func NewSynthesizer(reasoner Reasoner, policy retry.Policy) *Synthesizer {
	return &Synthesizer{reasoner: reasoner, retry: policy}
}

// clipPlan is the wire shape of the reasoning response.
type clipPlan struct {
	Clips []ClipBoundary `json:"clips"`
}

// Synthesize produces non-overlapping, duration-bounded clip boundaries for
// the given hotspots. The reasoning call covers all hotspots in a single
// batched request. Whatever the model returns, the post-conditions are
// enforced locally: durations are clamped into [MinClipDuration,
// MaxClipDuration] (boundaries dropped only when clamping would invert
// them), and overlaps are resolved by dropping boundaries in ascending
// engagement-score order. A model that returns zero clips is success.
func (s *Synthesizer) Synthesize(ctx context.Context, hotspots []Hotspot, sctx Context) ([]ClipBoundary, error) {
	if sctx.MinClipDuration <= 0 || sctx.MaxClipDuration < sctx.MinClipDuration {
		return nil, apierr.Invariantf("synthesize: invalid clip duration bounds [%g, %g]",
			sctx.MinClipDuration, sctx.MaxClipDuration)
	}
	if len(hotspots) == 0 {
		return nil, nil
	}

	prompt := buildClipPrompt(hotspots, sctx)

	raw, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.reasoner.GenerateJSON(ctx, assets.HighlightSystemPrompt, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("clip synthesis call: %w", err)
	}

	plan, err := jsonutil.Decode[clipPlan](raw)
	if err != nil {
		return nil, fmt.Errorf("clip synthesis response: %w", err)
	}
	if len(plan.Clips) == 0 {
		log.Info().Int("hotspots", len(hotspots)).Msg("Reasoner returned no clips")
		return nil, nil
	}

	bounded := clampDurations(plan.Clips, sctx)
	resolved := resolveOverlaps(bounded)

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].StartTime < resolved[j].StartTime
	})

	log.Info().
		Int("hotspots", len(hotspots)).
		Int("proposed", len(plan.Clips)).
		Int("kept", len(resolved)).
		Msg("Clip boundaries synthesized")
	return resolved, nil
}

// clampDurations forces every boundary into the configured duration window
// and onto the asset timeline. Boundaries that cannot be repaired without
// inverting start/end are dropped.
func clampDurations(clips []ClipBoundary, sctx Context) []ClipBoundary {
	out := make([]ClipBoundary, 0, len(clips))
	for _, c := range clips {
		start, end := c.StartTime, c.EndTime

		if start < 0 {
			start = 0
		}
		if sctx.DurationSeconds > 0 && end > sctx.DurationSeconds {
			end = sctx.DurationSeconds
		}
		if end <= start {
			log.Warn().Str("title", c.Title).Float64("start", c.StartTime).Float64("end", c.EndTime).
				Msg("Dropping inverted clip boundary")
			continue
		}

		if end-start > sctx.MaxClipDuration {
			end = start + sctx.MaxClipDuration
		}
		if end-start < sctx.MinClipDuration {
			end = start + sctx.MinClipDuration
			if sctx.DurationSeconds > 0 && end > sctx.DurationSeconds {
				end = sctx.DurationSeconds
				start = end - sctx.MinClipDuration
			}
			if start < 0 || end <= start {
				log.Warn().Str("title", c.Title).Msg("Dropping clip boundary too short to repair")
				continue
			}
		}

		c.StartTime, c.EndTime = start, end
		out = append(out, c)
	}
	return out
}

// resolveOverlaps drops boundaries in ascending engagement-score order
// until no two kept boundaries overlap. Lower-confidence overlaps lose.
func resolveOverlaps(clips []ClipBoundary) []ClipBoundary {
	byEngagement := make([]ClipBoundary, len(clips))
	copy(byEngagement, clips)
	sort.SliceStable(byEngagement, func(i, j int) bool {
		return byEngagement[i].EngagementScore > byEngagement[j].EngagementScore
	})

	var kept []ClipBoundary
	for _, c := range byEngagement {
		conflict := false
		for _, k := range kept {
			if c.Overlaps(k) {
				conflict = true
				break
			}
		}
		if conflict {
			log.Debug().Str("title", c.Title).Float64("engagement", c.EngagementScore).
				Msg("Dropping overlapping clip boundary")
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// buildClipPrompt lays out hotspots, visual anchors, and the transcript for
// the reasoning collaborator.
func buildClipPrompt(hotspots []Hotspot, sctx Context) string {
	var sb strings.Builder

	sb.WriteString("## Highlight Clip Extraction\n\n")
	fmt.Fprintf(&sb, "The source video is %.1f seconds long. ", sctx.DurationSeconds)
	fmt.Fprintf(&sb, "Each clip must run between %.0f and %.0f seconds", sctx.MinClipDuration, sctx.MaxClipDuration)
	if sctx.TargetDuration > 0 {
		fmt.Fprintf(&sb, ", ideally about %.0f seconds", sctx.TargetDuration)
	}
	sb.WriteString(". Clips must not overlap each other.\n\n")

	sb.WriteString("### Engagement Hotspots\n\n")
	sb.WriteString("Viewer-engagement analytics flagged these intervals (highest score first):\n\n")
	for i, h := range hotspots {
		fmt.Fprintf(&sb, "%d. %.1fs - %.1fs (engagement %.3f)\n",
			i+1, float64(h.StartMs)/1000, float64(h.EndMs)/1000, h.Score)
	}
	sb.WriteString("\n")

	if len(sctx.VisualSamples) > 0 {
		sb.WriteString("### Visual Samples\n\n")
		for _, v := range sctx.VisualSamples {
			fmt.Fprintf(&sb, "- frame at %.1fs: %s\n", v.TimestampSeconds, v.URL)
		}
		sb.WriteString("\n")
	}

	if sctx.Transcript != "" {
		sb.WriteString("### Transcript\n\n")
		sb.WriteString(sctx.Transcript)
		sb.WriteString("\n\n")
	}

	sb.WriteString("### Required Output\n\n")
	sb.WriteString("Respond with ONLY a valid JSON object: {\"clips\": [...]}.\n")
	sb.WriteString("Each clip: {\"start_time\": seconds, \"end_time\": seconds, \"title\": \"...\", ")
	sb.WriteString("\"description\": \"...\", \"keywords\": [\"...\"], \"engagement_score\": 0.0-1.0, ")
	sb.WriteString("\"suggested_platforms\": [\"...\"]}.\n")
	sb.WriteString("Anchor start and end times to natural sentence breaks in the transcript, ")
	sb.WriteString("not to the raw hotspot timestamps.\n")

	return sb.String()
}
