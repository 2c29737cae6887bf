// Package filestore persists uploaded media files outside the database.
package filestore

import (
	"context"
	"errors"
	"io"
)

// ErrBadPath is returned for absolute paths or paths escaping the root.
var ErrBadPath = errors.New("filestore: path must be relative and inside the root")

// Storage writes and reads media files addressed by relative paths.
type Storage interface {
	// Save writes src under name and returns the relative path actually
	// used, which may differ from name when a collision was resolved.
	// PRE: name is a relative path without ".." segments
	// POST: A file exists at the returned path with src's contents
	Save(ctx context.Context, name string, src io.Reader) (string, error)

	// Open returns a reader for the file at relPath.
	// PRE: relPath was returned by Save
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)

	// Delete removes the file at relPath. Deleting a missing file is an error.
	Delete(ctx context.Context, relPath string) error
}
