package highlights

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fpang/vodlens/internal/apierr"
	"github.com/fpang/vodlens/internal/retry"
)

// fakeReasoner returns a canned response or error, recording the prompt.
type fakeReasoner struct {
	response string
	err      error
	prompts  []string
	calls    int
}

func (f *fakeReasoner) GenerateJSON(_ context.Context, _ string, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func planJSON(t *testing.T, clips []ClipBoundary) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"clips": clips})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func testContext() Context {
	return Context{
		Transcript:      "hello world. this is a test.",
		DurationSeconds: 300,
		MinClipDuration: 10,
		MaxClipDuration: 60,
	}
}

func testHotspots() []Hotspot {
	return []Hotspot{
		{StartMs: 10000, EndMs: 20000, Score: 0.9},
		{StartMs: 120000, EndMs: 135000, Score: 0.7},
	}
}

func TestSynthesize_SingleBatchedCall(t *testing.T) {
	r := &fakeReasoner{response: planJSON(t, []ClipBoundary{
		{StartTime: 8, EndTime: 25, Title: "one", EngagementScore: 0.9},
		{StartTime: 118, EndTime: 140, Title: "two", EngagementScore: 0.7},
	})}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), testHotspots(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("made %d reasoning calls, want 1 batched call", r.calls)
	}
	if len(got) != 2 {
		t.Fatalf("got %d boundaries, want 2", len(got))
	}
	if !strings.Contains(r.prompts[0], "hello world") {
		t.Error("prompt should carry the full transcript")
	}
	if !strings.Contains(r.prompts[0], "10.0s - 20.0s") {
		t.Error("prompt should list the hotspots")
	}
}

func TestSynthesize_OverlapKeepsHigherEngagement(t *testing.T) {
	r := &fakeReasoner{response: planJSON(t, []ClipBoundary{
		{StartTime: 10, EndTime: 40, Title: "low", EngagementScore: 0.4},
		{StartTime: 30, EndTime: 60, Title: "high", EngagementScore: 0.9},
	})}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), testHotspots(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d boundaries, want 1 after overlap resolution", len(got))
	}
	if got[0].Title != "high" {
		t.Errorf("kept %q, want the higher-engagement boundary", got[0].Title)
	}
}

func TestSynthesize_DurationsClamped(t *testing.T) {
	r := &fakeReasoner{response: planJSON(t, []ClipBoundary{
		{StartTime: 0, EndTime: 200, Title: "too long", EngagementScore: 0.8},
		{StartTime: 250, EndTime: 252, Title: "too short", EngagementScore: 0.6},
	})}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), testHotspots(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d boundaries, want 2 (clipped, not discarded)", len(got))
	}
	for _, b := range got {
		if b.Duration() < 10 || b.Duration() > 60 {
			t.Errorf("clip %q duration %f outside [10, 60]", b.Title, b.Duration())
		}
	}
}

func TestSynthesize_InvertedBoundaryDropped(t *testing.T) {
	r := &fakeReasoner{response: planJSON(t, []ClipBoundary{
		{StartTime: 50, EndTime: 20, Title: "inverted", EngagementScore: 0.9},
		{StartTime: 100, EndTime: 130, Title: "fine", EngagementScore: 0.5},
	})}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), testHotspots(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "fine" {
		t.Errorf("got %+v, want only the valid boundary", got)
	}
}

func TestSynthesize_ZeroClipsIsSuccess(t *testing.T) {
	r := &fakeReasoner{response: `{"clips": []}`}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), testHotspots(), testContext())
	if err != nil {
		t.Fatalf("zero clips must be success, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d boundaries, want 0", len(got))
	}
}

func TestSynthesize_NoHotspotsSkipsReasoner(t *testing.T) {
	r := &fakeReasoner{response: `{"clips": []}`}
	s := NewSynthesizer(r, retry.Policy{})

	got, err := s.Synthesize(context.Background(), nil, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || r.calls != 0 {
		t.Errorf("no hotspots should short-circuit: %d boundaries, %d calls", len(got), r.calls)
	}
}

func TestSynthesize_MalformedResponseFails(t *testing.T) {
	r := &fakeReasoner{response: "I refuse to answer in JSON."}
	s := NewSynthesizer(r, retry.Policy{})

	if _, err := s.Synthesize(context.Background(), testHotspots(), testContext()); err == nil {
		t.Fatal("malformed response must surface an error")
	}
	if r.calls != 1 {
		t.Errorf("malformed shape must not be retried, made %d calls", r.calls)
	}
}

func TestSynthesize_FatalReasonerErrorNotRetried(t *testing.T) {
	r := &fakeReasoner{err: &apierr.StatusError{Service: "reasoning", StatusCode: 400}}
	s := NewSynthesizer(r, retry.Policy{MaxRetries: 3})

	if _, err := s.Synthesize(context.Background(), testHotspots(), testContext()); err == nil {
		t.Fatal("fatal reasoner error must propagate")
	}
	if r.calls != 1 {
		t.Errorf("fatal error retried: %d calls", r.calls)
	}
}

func TestSynthesize_InvalidBounds(t *testing.T) {
	s := NewSynthesizer(&fakeReasoner{}, retry.Policy{})
	sctx := testContext()
	sctx.MinClipDuration = 60
	sctx.MaxClipDuration = 10

	_, err := s.Synthesize(context.Background(), testHotspots(), sctx)
	if err == nil {
		t.Fatal("inverted duration bounds must fail")
	}
	if !apierr.IsInvariant(err) {
		t.Errorf("want invariant violation, got %v", err)
	}
}

func TestSynthesize_TranscientErrorRetried(t *testing.T) {
	calls := 0
	r := &retryingReasoner{fail: 2, response: `{"clips": []}`, calls: &calls}
	s := NewSynthesizer(r, retry.Policy{MaxRetries: 3, BaseDelay: 1, MaxDelay: 1})

	if _, err := s.Synthesize(context.Background(), testHotspots(), testContext()); err != nil {
		t.Fatalf("transient failures should be retried into success: %v", err)
	}
	if calls != 3 {
		t.Errorf("made %d calls, want 3", calls)
	}
}

// retryingReasoner fails the first `fail` calls with a 429.
type retryingReasoner struct {
	fail     int
	response string
	calls    *int
}

func (r *retryingReasoner) GenerateJSON(_ context.Context, _, _ string) (string, error) {
	*r.calls++
	if *r.calls <= r.fail {
		return "", &apierr.StatusError{Service: "reasoning", StatusCode: 429}
	}
	return r.response, nil
}
