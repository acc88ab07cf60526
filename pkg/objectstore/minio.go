// Package objectstore stores course media in an S3-compatible bucket through MinIO.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Config describes the bucket connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base under which objects are publicly served. When empty, uploads
	// return a presigned GET URL instead.
	PublicURL string
}

// Store uploads objects into a single bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	presign   time.Duration
	logger    zerolog.Logger
}

// New creates the MinIO client. It does not touch the network; call EnsureBucket at startup.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		presign:   7 * 24 * time.Hour,
		logger:    logger.With().Str("component", "objectstore").Logger(),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	s.logger.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// Upload puts the object and returns the URL it can be fetched from.
func (s *Store) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	key := strings.TrimLeft(name, "/")
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Info().Str("key", info.Key).Int64("bytes", info.Size).Msg("object stored")

	if s.publicURL != "" {
		return ObjectURL(s.publicURL, s.bucket, info.Key), nil
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, info.Key, s.presign, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object url: %w", err)
	}
	return presigned.String(), nil
}

// ObjectURL joins a public base URL, bucket and key.
func ObjectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}
