// Package frames downloads storyboard stills and prepares them for
// scoring: probe metadata, downscale oversized frames, re-encode as JPEG.
package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/fpang/vodlens/internal/apierr"
)

// DefaultMaxDimension is the maximum width or height of a frame sent to a
// scoring provider. Moderation models do not benefit from more pixels.
const DefaultMaxDimension = 640

const defaultFetchTimeout = 15 * time.Second

const jpegQuality = 85

// Fetcher downloads frames over HTTP and normalizes them for scoring.
type Fetcher struct {
	httpClient   *http.Client
	maxDimension int
}

// NewFetcher creates a Fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, maxDimension int) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: timeout},
		maxDimension: maxDimension,
	}
}

// Fetch downloads the frame at url and returns JPEG bytes ready for a
// scoring provider, downscaled when either dimension exceeds the
// fetcher's maximum.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read frame: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &apierr.StatusError{Service: "storyboard", StatusCode: resp.StatusCode, Body: fmt.Sprintf("%.200s", body)}
	}

	// A JPEG already within bounds ships as-is on the strength of the
	// metadata probe alone; only frames that need resizing or re-encoding
	// pay for a full pixel decode.
	if width, height, ok := probeDimensions(url, body); ok &&
		width <= f.maxDimension && height <= f.maxDimension && isJPEG(body) {
		return body, "image/jpeg", nil
	}
	return f.prepare(url, body)
}

// probeDimensions reads the frame's dimensions from its EXIF block when
// present, falling back to the image header. Neither path decodes pixels.
func probeDimensions(url string, data []byte) (int, int, bool) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err == nil && exifData.ImageWidth > 0 && exifData.ImageHeight > 0 {
		log.Debug().
			Str("url", url).
			Uint16("exif_width", exifData.ImageWidth).
			Uint16("exif_height", exifData.ImageHeight).
			Msg("Frame dimensions probed from EXIF")
		return int(exifData.ImageWidth), int(exifData.ImageHeight), true
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Debug().Str("url", url).Err(err).Msg("Frame dimensions not probeable")
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func isJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

func (f *Fetcher) prepare(url string, data []byte) ([]byte, string, error) {
	img, format, err := decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	if origWidth <= f.maxDimension && origHeight <= f.maxDimension {
		if format == "jpeg" {
			return data, "image/jpeg", nil
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", fmt.Errorf("encode frame: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	newWidth, newHeight := scaledDimensions(origWidth, origHeight, f.maxDimension)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode resized frame: %w", err)
	}

	log.Debug().
		Str("url", url).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Frame downscaled")

	return buf.Bytes(), "image/jpeg", nil
}

func decode(data []byte) (image.Image, string, error) {
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, "jpeg", nil
	}
	if img, err := png.Decode(bytes.NewReader(data)); err == nil {
		return img, "png", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

func scaledDimensions(width, height, maxDimension int) (int, int) {
	if width >= height {
		newHeight := height * maxDimension / width
		if newHeight < 1 {
			newHeight = 1
		}
		return maxDimension, newHeight
	}
	newWidth := width * maxDimension / height
	if newWidth < 1 {
		newWidth = 1
	}
	return newWidth, maxDimension
}
