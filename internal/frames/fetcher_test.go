package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fpang/vodlens/internal/apierr"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodeDimensions(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestFetchSmallJPEGPassesThrough(t *testing.T) {
	original := encodeJPEG(t, 320, 180)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(original)
	}))
	defer server.Close()

	fetcher := NewFetcher(0, 640)
	data, mimeType, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q", mimeType)
	}
	if !bytes.Equal(data, original) {
		t.Error("small JPEG should be returned unmodified")
	}
}

func TestFetchDownscalesOversizedFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodeJPEG(t, 1920, 1080))
	}))
	defer server.Close()

	fetcher := NewFetcher(0, 640)
	data, _, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	width, height := decodeDimensions(t, data)
	if width != 640 || height != 360 {
		t.Errorf("dimensions = %dx%d, want 640x360", width, height)
	}
}

func TestFetchReencodesPNG(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodePNG(t, 100, 100))
	}))
	defer server.Close()

	fetcher := NewFetcher(0, 640)
	data, mimeType, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mimeType)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("result is not a valid JPEG: %v", err)
	}
}

func TestFetchSmallJPEGSkipsPixelDecode(t *testing.T) {
	// Valid headers, truncated scan data: dimensions are probeable but a
	// full pixel decode would fail. An in-bounds frame must still pass
	// through untouched.
	truncated := encodeJPEG(t, 320, 180)
	truncated = truncated[:len(truncated)-100]
	if _, _, err := image.Decode(bytes.NewReader(truncated)); err == nil {
		t.Fatal("fixture should not fully decode")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(truncated)
	}))
	defer server.Close()

	fetcher := NewFetcher(0, 640)
	data, mimeType, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q", mimeType)
	}
	if !bytes.Equal(data, truncated) {
		t.Error("in-bounds JPEG should be returned unmodified")
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewFetcher(0, 0)
	_, _, err := fetcher.Fetch(context.Background(), server.URL)
	var statusErr *apierr.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if !apierr.IsRetryable(err) {
		t.Error("502 should be retryable")
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewFetcher(20*time.Millisecond, 0)
	_, _, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !apierr.IsRetryable(err) {
		t.Errorf("timeout should be retryable, got %v", err)
	}
}

func TestStoryboardSourceBuildsURL(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.String()
		w.Write(encodeJPEG(t, 64, 64))
	}))
	defer server.Close()

	source := NewStoryboardSource(NewFetcher(0, 0), func(assetID string, seconds float64) string {
		return fmt.Sprintf("%s/%s/thumbnail.jpg?time=%g", server.URL, assetID, seconds)
	})
	_, _, err := source.FrameAt(context.Background(), "asset-1", 12.5)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if requested != "/asset-1/thumbnail.jpg?time=12.5" {
		t.Errorf("requested = %q", requested)
	}
}
