package section

import (
	"context"

	domain "outreach/internal/domain/section"
)

// Store persists Section state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Section, error)
	Save(ctx context.Context, value domain.Section) error
	Delete(ctx context.Context, id string) error
	ListByProgram(ctx context.Context, programID string) ([]domain.Section, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Section, error)
	CountByProgram(ctx context.Context, programID string) (int, error)
}
