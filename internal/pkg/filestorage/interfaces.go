package filestorage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrObjectNotFound is returned when a bucket has no object under the key
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for empty keys or keys escaping their bucket
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStorage stores binary objects in named buckets
type ObjectStorage interface {
	// Put writes the object, replacing any existing object under the same key
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error

	// Get opens the object for reading; the caller closes it
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Delete removes the object; deleting a missing object is not an error
	Delete(ctx context.Context, bucket, key string) error

	// PublicURL returns the address clients can fetch the object from
	PublicURL(bucket, key string) string
}

// cleanKey normalizes a key to a slash separated relative path
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
