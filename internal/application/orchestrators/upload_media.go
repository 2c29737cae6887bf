package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"outreach/internal/adapters/filestore"
	"outreach/internal/domain/audit"
	"outreach/internal/domain/mediafile"
)

// MediaStoreForUpload defines the store interface needed by media orchestrators.
type MediaStoreForUpload interface {
	GetByID(ctx context.Context, id string) (mediafile.MediaFile, error)
	Save(ctx context.Context, m mediafile.MediaFile) error
	Delete(ctx context.Context, id string) error
}

// UploadMediaInput carries one uploaded file. Body is read exactly once.
type UploadMediaInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
	ActorID     string
	ActorEmail  string
}

// UploadMediaDeps holds dependencies for UploadMedia.
type UploadMediaDeps struct {
	Files      filestore.Storage
	MediaStore MediaStoreForUpload
	AuditStore RegisterAuditStore
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteUploadMedia writes the file through the configured Storage and
// records a media_file row pointing at the stored path. The stored path may
// differ from the submitted name: the storage layer resolves collisions and
// normalizes extensions.
// PRE: FileName is non-empty; Body is readable
// POST: File bytes persisted; media_file row saved with the stored path
func ExecuteUploadMedia(ctx context.Context, input UploadMediaInput, deps UploadMediaDeps) (mediafile.MediaFile, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	name := filepath.Base(filepath.ToSlash(input.FileName))
	if name == "" || name == "." || name == "/" {
		return mediafile.MediaFile{}, errors.New("file name is required")
	}

	storedPath, err := deps.Files.Save(ctx, "uploads/"+name, input.Body)
	if err != nil {
		return mediafile.MediaFile{}, fmt.Errorf("store file: %w", err)
	}

	mf := mediafile.MediaFile{
		ID:           deps.GenerateID(),
		Path:         storedPath,
		OriginalName: name,
		ContentType:  input.ContentType,
		SizeBytes:    input.SizeBytes,
		UploadedBy:   input.ActorID,
		CreatedAt:    deps.Now(),
	}
	if err := mf.Validate(); err != nil {
		return mediafile.MediaFile{}, err
	}
	if err := deps.MediaStore.Save(ctx, mf); err != nil {
		// The bytes are already on disk; remove them so a failed upload
		// leaves nothing behind.
		if delErr := deps.Files.Delete(ctx, storedPath); delErr != nil {
			slog.Error("media_orphan_cleanup_failed", "error", delErr, "path", storedPath)
		}
		return mediafile.MediaFile{}, fmt.Errorf("save media record: %w", err)
	}

	if deps.AuditStore != nil {
		ev := audit.NewEvent(input.ActorID, input.ActorEmail, audit.CategoryMedia, audit.ActionUpload).
			WithResource("media_file", mf.ID).
			WithDescription(fmt.Sprintf("uploaded %s (%d bytes) as %s", name, input.SizeBytes, storedPath))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "error", err, "media_id", mf.ID)
		}
	}

	slog.Info("media_event", "event", "media_uploaded",
		"media_id", mf.ID,
		"path", storedPath,
		"size_bytes", input.SizeBytes)
	return mf, nil
}

// DeleteMediaInput identifies a media file to remove.
type DeleteMediaInput struct {
	MediaID    string
	ActorID    string
	ActorEmail string
}

// ExecuteDeleteMedia removes a media file's bytes and its database row. A
// missing file on disk is logged and the row is still deleted, so a row
// whose file was lost out of band can always be cleaned up.
// PRE: MediaID must be non-empty
// POST: media_file row removed; file bytes removed when present
func ExecuteDeleteMedia(ctx context.Context, input DeleteMediaInput, deps UploadMediaDeps) error {
	if input.MediaID == "" {
		return errors.New("media ID is required")
	}

	mf, err := deps.MediaStore.GetByID(ctx, input.MediaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("media file %s not found", input.MediaID)
		}
		return err
	}

	if err := deps.Files.Delete(ctx, mf.Path); err != nil {
		slog.Warn("media_file_delete_failed", "error", err, "path", mf.Path)
	}
	if err := deps.MediaStore.Delete(ctx, mf.ID); err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}

	if deps.AuditStore != nil {
		ev := audit.NewEvent(input.ActorID, input.ActorEmail, audit.CategoryMedia, audit.ActionDelete).
			WithResource("media_file", mf.ID).
			WithDescription(fmt.Sprintf("deleted %s", mf.Path))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "error", err, "media_id", mf.ID)
		}
	}

	slog.Info("media_event", "event", "media_deleted", "media_id", mf.ID, "path", mf.Path)
	return nil
}
