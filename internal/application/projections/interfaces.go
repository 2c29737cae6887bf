package projections

import (
	"context"

	"outreach/internal/adapters/storage/program"
	"outreach/internal/adapters/storage/student"
	domainAccount "outreach/internal/domain/account"
	domainInterest "outreach/internal/domain/interest"
	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
	domainSection "outreach/internal/domain/section"
	domainStudent "outreach/internal/domain/student"
)

// StudentStore interface for student queries.
type StudentStore interface {
	GetByID(ctx context.Context, id string) (domainStudent.Student, error)
	GetByAccountID(ctx context.Context, accountID string) (domainStudent.Student, error)
	List(ctx context.Context, filter student.ListFilter) ([]domainStudent.Student, error)
	Count(ctx context.Context, filter student.ListFilter) (int, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (domainAccount.Account, error)
}

// ProgramStore interface for program queries.
type ProgramStore interface {
	GetBySlug(ctx context.Context, slug string) (domainProgram.Program, error)
	List(ctx context.Context, filter program.ListFilter) ([]domainProgram.Program, error)
}

// SectionStore interface for section queries.
type SectionStore interface {
	ListByProgram(ctx context.Context, programID string) ([]domainSection.Section, error)
	ListByIDs(ctx context.Context, ids []string) ([]domainSection.Section, error)
}

// InterestStore interface for star queries.
type InterestStore interface {
	ListByStudentProgram(ctx context.Context, studentID, programID string) ([]domainInterest.Interest, error)
	CountBySection(ctx context.Context, sectionID string) (int, error)
	CountByStudentProgram(ctx context.Context, studentID, programID string) (int, error)
}

// RecordStore interface for event record queries.
type RecordStore interface {
	Exists(ctx context.Context, studentID, programID, event string) (bool, error)
	ListRecentByProgram(ctx context.Context, programID, event string, limit int) ([]domainRecord.Record, error)
	CountByProgramEvent(ctx context.Context, programID, event string) (int, error)
}
