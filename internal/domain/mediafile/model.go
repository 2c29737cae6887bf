package mediafile

import (
	"errors"
	"strings"
	"time"
)

// Max length constants.
const (
	MaxPathLength = 1024
)

// Domain errors
var (
	ErrEmptyPath    = errors.New("media file path cannot be empty")
	ErrAbsolutePath = errors.New("media file path must be relative to the media root")
)

// MediaFile is the database side of an uploaded file. Path is relative to
// the media root and stored with its extension already lowercased; the bytes
// live on disk under that same relative path.
type MediaFile struct {
	ID           string
	Path         string
	OriginalName string
	ContentType  string
	SizeBytes    int64
	UploadedBy   string // account ID
	CreatedAt    time.Time
}

// Validate checks the media file's invariants.
// PRE: MediaFile struct is populated
// POST: Returns nil if valid, error otherwise
func (m *MediaFile) Validate() error {
	if m.Path == "" {
		return ErrEmptyPath
	}
	if len(m.Path) > MaxPathLength {
		return errors.New("media file path cannot exceed 1024 characters")
	}
	if strings.HasPrefix(m.Path, "/") || strings.Contains(m.Path, "..") {
		return ErrAbsolutePath
	}
	if m.SizeBytes < 0 {
		return errors.New("media file size cannot be negative")
	}
	return nil
}
