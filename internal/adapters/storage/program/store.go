package program

import (
	"context"

	domain "outreach/internal/domain/program"
)

// Store persists Program state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Program, error)
	GetBySlug(ctx context.Context, slug string) (domain.Program, error)
	Save(ctx context.Context, value domain.Program) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Program, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
