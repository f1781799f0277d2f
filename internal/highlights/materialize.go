package highlights

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CreateAssetFunc creates one derived asset on the video platform. May fail
// per call.
type CreateAssetFunc func(ctx context.Context, boundary ClipBoundary) (AssetRef, error)

// Materialize turns every boundary into a ClipAsset record, invoking
// createAsset sequentially — asset creation is rate-sensitive on the
// platform side, so boundaries are never created in parallel.
//
// A createAsset failure is captured on that clip's record (status errored,
// no derived identifiers) and the loop continues: every input boundary
// yields exactly one output record. Cancellation marks the remaining
// boundaries errored without calling createAsset for them.
func Materialize(ctx context.Context, boundaries []ClipBoundary, createAsset CreateAssetFunc) []ClipAsset {
	out := make([]ClipAsset, 0, len(boundaries))

	for _, b := range boundaries {
		if err := ctx.Err(); err != nil {
			out = append(out, ClipAsset{Boundary: b, Status: ClipErrored, Error: err.Error()})
			continue
		}

		ref, err := createAsset(ctx, b)
		if err != nil {
			log.Warn().Err(err).
				Str("title", b.Title).
				Float64("start", b.StartTime).
				Float64("end", b.EndTime).
				Msg("Clip asset creation failed")
			out = append(out, ClipAsset{Boundary: b, Status: ClipErrored, Error: err.Error()})
			continue
		}

		log.Info().
			Str("title", b.Title).
			Str("derived_asset", ref.ID).
			Msg("Clip asset created")
		out = append(out, ClipAsset{
			Boundary:       b,
			Status:         ClipReady,
			DerivedAssetID: ref.ID,
			PlaybackURL:    ref.PlaybackURL,
		})
	}
	return out
}

// Summary aggregates a materialization batch.
type Summary struct {
	TotalClipsGenerated  int     `json:"total_clips_generated"`
	TotalEngagementScore float64 `json:"total_engagement_score"`
	Errored              int     `json:"errored"`
}

// Summarize computes batch totals over the clips that reached a terminal
// state. Engagement totals count only clips that materialized.
func Summarize(clips []ClipAsset) Summary {
	var s Summary
	for _, c := range clips {
		switch c.Status {
		case ClipReady:
			s.TotalClipsGenerated++
			s.TotalEngagementScore += c.Boundary.EngagementScore
		case ClipErrored:
			s.Errored++
		}
	}
	return s
}
