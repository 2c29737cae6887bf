package filestore

import (
	"context"
	"io"

	"outreach/internal/application/fileext"
)

// LowercaseExt wraps a Storage and normalizes file extensions to lowercase
// on every Save. Reads and deletes pass through untouched, so paths written
// before the policy existed stay reachable.
type LowercaseExt struct {
	inner Storage
}

// NewLowercaseExt wraps inner with extension normalization.
func NewLowercaseExt(inner Storage) *LowercaseExt {
	return &LowercaseExt{inner: inner}
}

// Save normalizes name's extension and delegates to the wrapped Storage.
// PRE: name is a relative path without ".." segments
// POST: The stored path has a lowercase extension
func (l *LowercaseExt) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	return l.inner.Save(ctx, fileext.Normalize(name), src)
}

// Open delegates to the wrapped Storage.
func (l *LowercaseExt) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	return l.inner.Open(ctx, relPath)
}

// Delete delegates to the wrapped Storage.
func (l *LowercaseExt) Delete(ctx context.Context, relPath string) error {
	return l.inner.Delete(ctx, relPath)
}
