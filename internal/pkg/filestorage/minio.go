package filestorage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// MinioConfig configures the S3 compatible driver
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
	PublicURL       string
}

// MinioStorage keeps objects in an S3 compatible server
type MinioStorage struct {
	client    *minio.Client
	publicURL string
}

// NewMinioStorage connects to the server and creates missing buckets
func NewMinioStorage(ctx context.Context, cfg MinioConfig, buckets ...string) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Info().Str("bucket", bucket).Msg("Created storage bucket")
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}

	return &MinioStorage{client: client, publicURL: publicURL}, nil
}

// Put uploads the object
func (m *MinioStorage) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, bucket, cleaned, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		logger.Error().Err(err).Str("bucket", bucket).Str("key", cleaned).Msg("Failed to upload object")
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Get opens the object. The existence check is done eagerly so callers get ErrObjectNotFound
// before streaming starts.
func (m *MinioStorage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioError(err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, translateMinioError(err)
	}
	return obj, nil
}

// Delete removes the object
func (m *MinioStorage) Delete(ctx context.Context, bucket, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := m.client.RemoveObject(ctx, bucket, cleaned, minio.RemoveObjectOptions{}); err != nil {
		if translateMinioError(err) == ErrObjectNotFound {
			return nil
		}
		logger.Error().Err(err).Str("bucket", bucket).Str("key", cleaned).Msg("Failed to delete object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the path-style URL of the object
func (m *MinioStorage) PublicURL(bucket, key string) string {
	cleaned, err := cleanKey(key)
	if err != nil {
		return ""
	}
	return joinURL(m.publicURL, bucket, cleaned)
}

func translateMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrObjectNotFound
	default:
		return fmt.Errorf("object storage: %w", err)
	}
}
