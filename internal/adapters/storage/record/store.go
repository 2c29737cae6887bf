package record

import (
	"context"

	domain "outreach/internal/domain/record"
)

// Store persists Record state.
type Store interface {
	// Create inserts the record unless one with the same
	// (student, program, event) key already exists. Returns true when a
	// row was inserted.
	Create(ctx context.Context, value domain.Record) (bool, error)
	Exists(ctx context.Context, studentID, programID, event string) (bool, error)
	GetByKey(ctx context.Context, studentID, programID, event string) (domain.Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Record, error)
	ListRecentByProgram(ctx context.Context, programID, event string, limit int) ([]domain.Record, error)
	CountByProgramEvent(ctx context.Context, programID, event string) (int, error)
	Delete(ctx context.Context, id string) error
}
