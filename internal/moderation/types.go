// Package moderation scores sampled frames of a video asset against
// content-safety categories and reduces them to a per-category maximum with
// threshold evaluation.
package moderation

// ScoreResult is the verdict for a single sampled frame. An errored result
// carries no scores and never contributes to aggregation.
type ScoreResult struct {
	SourceRef      string             `json:"source_ref"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	Errored        bool               `json:"errored"`
	Error          string             `json:"error,omitempty"`
}

// AggregateScore is the reduced verdict for a whole asset.
type AggregateScore struct {
	MaxByCategory    map[string]float64 `json:"max_by_category"`
	ExceedsThreshold bool               `json:"exceeds_threshold"`
	Thresholds       map[string]float64 `json:"thresholds"`
}
