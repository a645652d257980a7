package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidPath  = errors.New("storage: invalid file path")
	ErrFileNotFound = errors.New("storage: file not found")
)

// FileStorage keeps uploaded evidence. Paths are slash separated and relative
// to the storage root.
type FileStorage interface {
	// Upload writes file at path and returns the cleaned path.
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Open returns ErrFileNotFound when nothing is stored at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	Delete(ctx context.Context, path string) error

	// URL is the public address the API serves path from.
	URL(path string) string
}
