package interest

import (
	"context"

	domain "outreach/internal/domain/interest"
)

// Store persists Interest (starred section) state.
type Store interface {
	Save(ctx context.Context, value domain.Interest) error
	Delete(ctx context.Context, studentID, sectionID string) error
	ListByStudent(ctx context.Context, studentID string) ([]domain.Interest, error)
	// ListByStudentProgram retrieves a student's stars limited to one
	// program's sections.
	ListByStudentProgram(ctx context.Context, studentID, programID string) ([]domain.Interest, error)
	ListBySection(ctx context.Context, sectionID string) ([]domain.Interest, error)
	CountBySection(ctx context.Context, sectionID string) (int, error)
	// CountByStudentProgram counts a student's stars across one program's
	// sections (the stars_per_student cap check).
	CountByStudentProgram(ctx context.Context, studentID, programID string) (int, error)
	IsStarred(ctx context.Context, studentID, sectionID string) (bool, error)
}
