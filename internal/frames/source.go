package frames

import "context"

// URLFunc maps an asset and a timeline position to a storyboard still URL.
type URLFunc func(assetID string, seconds float64) string

// StoryboardSource serves sampled frames to the moderation pipeline by
// fetching storyboard stills from the video platform's image host.
type StoryboardSource struct {
	fetcher *Fetcher
	urlFor  URLFunc
}

// NewStoryboardSource creates a frame source backed by fetcher.
func NewStoryboardSource(fetcher *Fetcher, urlFor URLFunc) *StoryboardSource {
	return &StoryboardSource{fetcher: fetcher, urlFor: urlFor}
}

// FrameAt fetches the frame at the given timestamp.
func (s *StoryboardSource) FrameAt(ctx context.Context, assetID string, seconds float64) ([]byte, string, error) {
	return s.fetcher.Fetch(ctx, s.urlFor(assetID, seconds))
}
