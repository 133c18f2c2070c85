package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/notatki/notehub/internal/pkg/logger"
)

// LocalStorage keeps objects on the local filesystem under <basePath>/<bucket>/<key>.
type LocalStorage struct {
	basePath string // The root directory where buckets live
	baseURL  string // The base URL the root directory is served under
}

// NewLocalStorage creates a new LocalStorage instance and ensures the bucket directories exist.
func NewLocalStorage(basePath, baseURL string, buckets ...string) (*LocalStorage, error) {
	for _, bucket := range append([]string{""}, buckets...) {
		dir := filepath.Join(basePath, bucket)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Str("path", dir).Msg("Failed to create storage directory")
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	logger.Info().Str("path", basePath).Strs("buckets", buckets).Msg("Local storage directories ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// BasePath returns the root directory, used to serve the files over HTTP
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

func (ls *LocalStorage) objectPath(bucket, key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if bucket == "" || filepath.Base(bucket) != bucket {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	return filepath.Join(ls.basePath, bucket, filepath.FromSlash(cleaned)), nil
}

// Put writes the object through a temporary file so readers never see partial content
func (ls *LocalStorage) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	dstPath, err := ls.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create object directory")
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create temporary file")
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy object content")
		return fmt.Errorf("failed to save object content: %w", err)
	}

	if err := os.Rename(tmpName, dstPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move object into place: %w", err)
	}

	logger.Debug().Str("bucket", bucket).Str("key", key).Int64("size", written).Str("contentType", contentType).Msg("Object stored")
	return nil
}

// Get opens the stored object
func (ls *LocalStorage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	objPath, err := ls.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(objPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return file, nil
}

// Delete removes the object. Missing objects are ignored.
func (ls *LocalStorage) Delete(ctx context.Context, bucket, key string) error {
	objPath, err := ls.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(objPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("path", objPath).Msg("Object to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", objPath).Msg("Failed to delete object")
		return fmt.Errorf("failed to delete object: %w", err)
	}

	logger.Info().Str("path", objPath).Msg("Object deleted")
	return nil
}

// PublicURL returns the URL the object is served under
func (ls *LocalStorage) PublicURL(bucket, key string) string {
	cleaned, err := cleanKey(key)
	if err != nil {
		return ""
	}
	return joinURL(ls.baseURL, bucket, cleaned)
}
