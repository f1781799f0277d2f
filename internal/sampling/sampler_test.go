package sampling

import (
	"math"
	"testing"
)

func timestamps(samples []TimeSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.TimestampSeconds
	}
	return out
}

func assertTimestamps(t *testing.T, got []TimeSample, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d samples %v, want %d %v", len(got), timestamps(got), len(want), want)
	}
	for i, s := range got {
		if s.Index != i {
			t.Errorf("sample %d has index %d", i, s.Index)
		}
		if math.Abs(s.TimestampSeconds-want[i]) > 1e-9 {
			t.Errorf("sample %d = %f, want %f", i, s.TimestampSeconds, want[i])
		}
	}
}

func TestSample_ShortMediaAlwaysFive(t *testing.T) {
	for _, d := range []float64{1, 12, 30, 49.5, 50} {
		got, err := Sample(d, Options{})
		if err != nil {
			t.Fatalf("Sample(%f): %v", d, err)
		}
		if len(got) != 5 {
			t.Errorf("Sample(%f) returned %d samples, want 5", d, len(got))
		}
	}
}

func TestSample_ShortMediaPositions(t *testing.T) {
	got, err := Sample(30, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{5, 10, 15, 20, 25})
}

func TestSample_IntervalWalk(t *testing.T) {
	got, err := Sample(100, Options{IntervalSeconds: 10})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90})
}

func TestSample_DefaultInterval(t *testing.T) {
	got, err := Sample(55, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0, 10, 20, 30, 40, 50})
}

func TestSample_MaxSamplesRespaces(t *testing.T) {
	n := 5
	got, err := Sample(100, Options{MaxSamples: &n})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0, 25, 50, 75, 100})
}

func TestSample_MaxSamplesEdges(t *testing.T) {
	one := 1
	got, err := Sample(100, Options{MaxSamples: &one})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0})

	two := 2
	got, err = Sample(100, Options{MaxSamples: &two})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0, 100})
}

func TestSample_MaxSamplesNonPositive(t *testing.T) {
	zero := 0
	got, err := Sample(100, Options{MaxSamples: &zero})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0})

	neg := -3
	got, err = Sample(100, Options{MaxSamples: &neg})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0})
}

func TestSample_MaxSamplesAboveCountKeepsSet(t *testing.T) {
	n := 50
	got, err := Sample(100, Options{MaxSamples: &n})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("cap above produced count should keep the interval set, got %d samples", len(got))
	}
}

func TestSample_InvalidDuration(t *testing.T) {
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := Sample(d, Options{}); err == nil {
			t.Errorf("Sample(%v) should fail", d)
		}
	}
}

func TestSample_ZeroDuration(t *testing.T) {
	got, err := Sample(0, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertTimestamps(t, got, []float64{0, 0, 0, 0, 0})
}
