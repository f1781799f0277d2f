// Package highlights turns engagement hotspots into derived highlight-clip
// assets: a reasoning model refines hotspot intervals into duration-bounded,
// non-overlapping clip boundaries, and a materializer creates one derived
// asset per boundary with per-clip failure isolation.
package highlights

// Hotspot is an externally supplied interval of elevated viewer engagement.
type Hotspot struct {
	StartMs int     `json:"start_ms"`
	EndMs   int     `json:"end_ms"`
	Score   float64 `json:"score"`
}

// ClipBoundary is a proposed clip: a time range plus descriptive metadata
// produced by the reasoning collaborator.
type ClipBoundary struct {
	StartTime          float64  `json:"start_time"`
	EndTime            float64  `json:"end_time"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Keywords           []string `json:"keywords"`
	EngagementScore    float64  `json:"engagement_score"`
	SuggestedPlatforms []string `json:"suggested_platforms"`
}

// Duration returns the clip length in seconds.
func (b ClipBoundary) Duration() float64 { return b.EndTime - b.StartTime }

// Overlaps reports whether two boundaries share any part of the timeline.
func (b ClipBoundary) Overlaps(other ClipBoundary) bool {
	return b.StartTime < other.EndTime && other.StartTime < b.EndTime
}

// ClipStatus is the terminal state of one materialized clip.
type ClipStatus string

const (
	ClipPending ClipStatus = "pending"
	ClipReady   ClipStatus = "ready"
	ClipErrored ClipStatus = "errored"
)

// AssetRef identifies a derived asset created on the video platform.
type AssetRef struct {
	ID          string `json:"id"`
	PlaybackURL string `json:"playback_url,omitempty"`
}

// ClipAsset is the outcome of materializing one boundary. Status moves from
// pending to ready or errored exactly once; errored clips are never retried
// automatically.
type ClipAsset struct {
	Boundary       ClipBoundary `json:"boundary"`
	Status         ClipStatus   `json:"status"`
	DerivedAssetID string       `json:"derived_asset_id,omitempty"`
	PlaybackURL    string       `json:"playback_url,omitempty"`
	Error          string       `json:"error,omitempty"`
}
