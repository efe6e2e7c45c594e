package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrUploadFailed indicates an object could not be published to the bucket.
var ErrUploadFailed = errors.New("segment upload failed")

// ObjectStore publishes local files as remotely addressable objects.
type ObjectStore interface {
	// Put uploads the file at localPath under objectName and returns the
	// remote URI of the stored object.
	Put(ctx context.Context, localPath, objectName string) (string, error)
	Close() error
}

// GCSStore is an ObjectStore backed by a Google Cloud Storage bucket.
// Transient upload failures are retried with exponential backoff; the
// pipeline core itself never retries.
type GCSStore struct {
	client     *gcs.Client
	bucket     string
	logger     *zap.Logger
	maxRetries uint64
}

// NewGCSStore creates a GCSStore for the named bucket. Client options allow
// tests to point at a local emulator.
func NewGCSStore(ctx context.Context, bucket string, logger *zap.Logger, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name must not be empty")
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client:     client,
		bucket:     bucket,
		logger:     logger,
		maxRetries: 3,
	}, nil
}

// Put uploads localPath to the bucket as objectName and returns its gs:// URI.
func (s *GCSStore) Put(ctx context.Context, localPath, objectName string) (string, error) {
	s.logger.Info("uploading segment",
		zap.String("local", localPath),
		zap.String("bucket", s.bucket),
		zap.String("object", objectName))

	operation := func() error {
		return s.putOnce(ctx, localPath, objectName)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	notify := func(err error, next time.Duration) {
		s.logger.Warn("upload attempt failed, retrying",
			zap.String("object", objectName),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", fmt.Errorf("%w: %s to bucket %s: %v", ErrUploadFailed, localPath, s.bucket, err)
	}

	uri := ObjectURI(s.bucket, objectName)
	s.logger.Info("segment uploaded", zap.String("uri", uri))
	return uri, nil
}

// putOnce performs a single upload attempt.
func (s *GCSStore) putOnce(ctx context.Context, localPath, objectName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		// A missing local file will not appear on retry.
		return backoff.Permanent(fmt.Errorf("failed to open %s: %w", localPath, err))
	}
	defer file.Close()

	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// ObjectURI builds the gs:// locator for an object in a bucket.
func ObjectURI(bucket, objectName string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, objectName)
}
