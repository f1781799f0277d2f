// Package sampling computes representative timestamps across a media
// timeline. Sampling is deterministic: the same duration and options always
// produce the same point set, so downstream scoring runs are reproducible.
package sampling

import (
	"math"

	"github.com/fpang/vodlens/internal/apierr"
)

// TimeSample is one point on the media timeline.
type TimeSample struct {
	Index            int     `json:"index"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
}

// Options controls sample density.
type Options struct {
	// IntervalSeconds is the spacing between samples for media longer than
	// the short-media cutoff. Zero means DefaultIntervalSeconds.
	IntervalSeconds float64

	// MaxSamples caps the number of samples. Nil means no cap. A cap of 1
	// yields only the start of the timeline; a cap of zero or below degrades
	// to a single sample at 0 rather than an empty set.
	MaxSamples *int
}

const (
	// DefaultIntervalSeconds is the sample spacing when none is given.
	DefaultIntervalSeconds = 10

	// shortMediaCutoff is the duration at or below which interval-based
	// sampling would degenerate to 0-1 samples, so a fixed 5-point scheme
	// is used instead.
	shortMediaCutoff = 50

	shortMediaSamples = 5
)

// Sample returns timestamps across [0, durationSeconds), ordered ascending.
//
// Media at or under 50 seconds always gets exactly 5 samples at
// round(i*duration/6), i=1..5. Longer media gets one sample every
// IntervalSeconds starting at 0, excluding the duration itself. If
// MaxSamples is set and smaller than the resulting count, the set is
// re-derived as MaxSamples evenly spaced points over [0, durationSeconds]
// inclusive, pinned to the timeline ends.
func Sample(durationSeconds float64, opts Options) ([]TimeSample, error) {
	if durationSeconds < 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return nil, apierr.Invariantf("sampling: duration must be a non-negative finite number, got %v", durationSeconds)
	}

	var timestamps []float64
	if durationSeconds <= shortMediaCutoff {
		for i := 1; i <= shortMediaSamples; i++ {
			timestamps = append(timestamps, math.Round(float64(i)*durationSeconds/6))
		}
	} else {
		interval := opts.IntervalSeconds
		if interval <= 0 {
			interval = DefaultIntervalSeconds
		}
		for t := 0.0; t < durationSeconds; t += interval {
			timestamps = append(timestamps, t)
		}
	}

	if opts.MaxSamples != nil && *opts.MaxSamples < len(timestamps) {
		timestamps = respace(durationSeconds, *opts.MaxSamples)
	}

	samples := make([]TimeSample, len(timestamps))
	for i, t := range timestamps {
		samples[i] = TimeSample{Index: i, TimestampSeconds: t}
	}
	return samples, nil
}

// respace spreads n points evenly across [0, duration] inclusive, with the
// first pinned to 0 and the last pinned to the duration. n <= 1 yields the
// single point {0}.
func respace(duration float64, n int) []float64 {
	if n <= 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = duration * float64(i) / float64(n-1)
	}
	out[n-1] = duration
	return out
}
