package storage

import (
	"context"
	"io"
	"time"

	"github.com/kbukum/previewkit/errors"
)

// Object describes one stored object. Key is relative to the storage root.
type Object struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified,omitzero"`
	ContentType string    `json:"content_type,omitempty"`
}

// Storage is a flat key/value object store. Keys use forward slashes on
// every backend.
type Storage interface {
	// Upload replaces the object at path with the content of r. Readers
	// never observe a partially written object.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download opens the object at path. The caller closes the reader.
	// A missing object yields an error for which IsNotFound is true.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the object at path. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// URL locates the object for humans and logs, for example in the
	// manifest summary.
	URL(ctx context.Context, path string) (string, error)
	// List returns the objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ErrNotFound is the error a backend returns for a missing object.
func ErrNotFound(path string) *errors.AppError {
	return errors.NotFound("object", path)
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.IsCode(err, errors.ErrCodeNotFound)
}
