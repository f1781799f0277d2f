// Package artifacts persists run reports to S3 as zstd-compressed JSON.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes run reports under a bucket prefix.
type Store struct {
	client s3API
	bucket string
	prefix string
}

// NewStore creates a report store. prefix may be empty.
func NewStore(client s3API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Save serializes the report as JSON, compresses it with zstd, and uploads
// it. kind groups reports by pipeline ("moderation", "highlights").
// Returns the object key.
func (s *Store) Save(ctx context.Context, kind, assetID, reportID string, report any) (string, error) {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	var buf bytes.Buffer
	writer, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		writer.Close()
		return "", fmt.Errorf("compress report: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("flush zstd writer: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json.zst", kind, assetID, reportID)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	contentType := "application/json"
	contentEncoding := "zstd"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          &s.bucket,
		Key:             &key,
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     &contentType,
		ContentEncoding: &contentEncoding,
	})
	if err != nil {
		return "", fmt.Errorf("upload report to S3: %w", err)
	}

	log.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("raw_size", len(raw)).
		Int("compressed_size", buf.Len()).
		Msg("Run report saved")

	return key, nil
}
