package mediafile

import (
	"context"

	domain "outreach/internal/domain/mediafile"
)

// Store persists MediaFile state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.MediaFile, error)
	GetByPath(ctx context.Context, path string) (domain.MediaFile, error)
	Save(ctx context.Context, value domain.MediaFile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.MediaFile, error)
	Count(ctx context.Context) (int, error)
}
