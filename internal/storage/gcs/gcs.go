// Package gcs implements backup storage on Google Cloud Storage, used to
// mirror the local CSV backups off the machine running the harvest.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// Store writes backup objects to a configured GCS bucket.
type Store struct {
	client      *storage.Client
	bucket      string
	contentType string
}

// New creates a GCS-backed store. The bucket is probed up front so a
// missing bucket or bad credentials fail at startup, not mid-run.
func New(ctx context.Context, client *storage.Client, bucket string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		return nil, fmt.Errorf("probe bucket %q: %w", bucket, err)
	}
	return &Store{
		client:      client,
		bucket:      bucket,
		contentType: "text/csv",
	}, nil
}

// Save uploads data to the configured bucket and returns a gs:// URI.
func (s *Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("object name is required")
	}
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = s.contentType
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return "", fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}
