package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download for missing objects.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is an object store keyed by slash-separated paths.
type Storage interface {
	// Upload writes reader to path. An empty contentType is inferred from
	// the path extension where the backend supports it.
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) error
	// Download opens path. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// URL returns where clients can fetch path.
	URL(ctx context.Context, path string) (string, error)
	// List returns objects whose path starts with prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
