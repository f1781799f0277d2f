package highlights

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func boundaries(n int) []ClipBoundary {
	out := make([]ClipBoundary, n)
	for i := range out {
		out[i] = ClipBoundary{
			StartTime:       float64(i * 100),
			EndTime:         float64(i*100 + 30),
			Title:           fmt.Sprintf("clip-%d", i),
			EngagementScore: 0.5,
		}
	}
	return out
}

func TestMaterialize_OneRecordPerBoundary(t *testing.T) {
	calls := 0
	out := Materialize(context.Background(), boundaries(3), func(_ context.Context, b ClipBoundary) (AssetRef, error) {
		calls++
		if calls == 2 {
			return AssetRef{}, errors.New("platform rejected the clip")
		}
		return AssetRef{ID: "asset-" + b.Title, PlaybackURL: "https://play/" + b.Title}, nil
	})

	if len(out) != 3 {
		t.Fatalf("got %d records, want 3 — never fewer", len(out))
	}
	want := []ClipStatus{ClipReady, ClipErrored, ClipReady}
	for i, c := range out {
		if c.Status != want[i] {
			t.Errorf("clip %d status = %s, want %s", i, c.Status, want[i])
		}
	}
	if out[1].DerivedAssetID != "" || out[1].PlaybackURL != "" {
		t.Error("errored clip must carry no derived identifiers")
	}
	if out[0].DerivedAssetID != "asset-clip-0" {
		t.Errorf("ready clip asset ID = %q", out[0].DerivedAssetID)
	}
}

func TestMaterialize_Sequential(t *testing.T) {
	inFlight := 0
	out := Materialize(context.Background(), boundaries(4), func(_ context.Context, _ ClipBoundary) (AssetRef, error) {
		inFlight++
		defer func() { inFlight-- }()
		if inFlight > 1 {
			t.Error("createAsset invoked concurrently")
		}
		return AssetRef{ID: "x"}, nil
	})
	if len(out) != 4 {
		t.Fatalf("got %d records", len(out))
	}
}

func TestMaterialize_CancellationMarksRemainingErrored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	out := Materialize(ctx, boundaries(3), func(_ context.Context, _ ClipBoundary) (AssetRef, error) {
		calls++
		cancel()
		return AssetRef{ID: "first"}, nil
	})

	if calls != 1 {
		t.Errorf("createAsset called %d times after cancellation, want 1", calls)
	}
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}
	if out[0].Status != ClipReady {
		t.Error("completed clip must not be retracted on cancellation")
	}
	for i := 1; i < 3; i++ {
		if out[i].Status != ClipErrored {
			t.Errorf("clip %d status = %s, want errored", i, out[i].Status)
		}
	}
}

func TestSummarize(t *testing.T) {
	clips := []ClipAsset{
		{Boundary: ClipBoundary{EngagementScore: 0.9}, Status: ClipReady},
		{Boundary: ClipBoundary{EngagementScore: 0.7}, Status: ClipErrored},
		{Boundary: ClipBoundary{EngagementScore: 0.6}, Status: ClipReady},
	}
	s := Summarize(clips)
	if s.TotalClipsGenerated != 2 {
		t.Errorf("TotalClipsGenerated = %d, want 2", s.TotalClipsGenerated)
	}
	if s.Errored != 1 {
		t.Errorf("Errored = %d, want 1", s.Errored)
	}
	if s.TotalEngagementScore != 1.5 {
		t.Errorf("TotalEngagementScore = %f, want 1.5", s.TotalEngagementScore)
	}
}

func TestMaterialize_Empty(t *testing.T) {
	out := Materialize(context.Background(), nil, func(_ context.Context, _ ClipBoundary) (AssetRef, error) {
		t.Fatal("createAsset must not be called for an empty batch")
		return AssetRef{}, nil
	})
	if len(out) != 0 {
		t.Errorf("got %d records for empty input", len(out))
	}
}
