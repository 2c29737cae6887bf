package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/domain/interest"
	"outreach/internal/domain/program"
	"outreach/internal/domain/section"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// ErrStarLimit is returned when a student tries to star more sections in a
// program than its stars_per_student allows.
var ErrStarLimit = errors.New("star limit reached for this program")

// StarStudentStore resolves the acting student.
type StarStudentStore interface {
	GetByAccountID(ctx context.Context, accountID string) (student.Student, error)
}

// StarSectionStore resolves the target section.
type StarSectionStore interface {
	GetByID(ctx context.Context, id string) (section.Section, error)
}

// StarProgramStore resolves the section's program for the cap and open check.
type StarProgramStore interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
}

// StarInterestStore persists stars.
type StarInterestStore interface {
	Save(ctx context.Context, value interest.Interest) error
	Delete(ctx context.Context, studentID, sectionID string) error
	CountByStudentProgram(ctx context.Context, studentID, programID string) (int, error)
	IsStarred(ctx context.Context, studentID, sectionID string) (bool, error)
}

// StarSectionInput carries input for starring or unstarring.
type StarSectionInput struct {
	AccountID string
	SectionID string
}

// StarSectionDeps holds dependencies for the star orchestrators.
type StarSectionDeps struct {
	StudentStore  StarStudentStore
	SectionStore  StarSectionStore
	ProgramStore  StarProgramStore
	InterestStore StarInterestStore
	GenerateID    func() string    // optional: defaults to uuid
	Now           func() time.Time // optional: defaults to time.Now
}

// StarSectionResult reports the star state after the operation.
type StarSectionResult struct {
	Starred   bool
	StarCount int // student's stars in the section's program
	StarLimit int
}

// ExecuteStarSection stars a section for the student behind the account.
// Re-starring an already starred section is a no-op.
// PRE: AccountID belongs to an authenticated student account
// POST: The star exists; the student's stars in the program do not exceed
// the program's stars_per_student
func ExecuteStarSection(ctx context.Context, input StarSectionInput, deps StarSectionDeps) (StarSectionResult, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	st, sec, prog, err := resolveStarTarget(ctx, input, deps)
	if err != nil {
		return StarSectionResult{}, err
	}
	if !prog.IsOpen() {
		return StarSectionResult{}, program.ErrNotOpen
	}

	count, err := deps.InterestStore.CountByStudentProgram(ctx, st.ID, prog.ID)
	if err != nil {
		return StarSectionResult{}, err
	}

	already, err := deps.InterestStore.IsStarred(ctx, st.ID, sec.ID)
	if err != nil {
		return StarSectionResult{}, err
	}
	if already {
		return StarSectionResult{Starred: true, StarCount: count, StarLimit: prog.StarsPerStudent}, nil
	}

	if count >= prog.StarsPerStudent {
		return StarSectionResult{Starred: false, StarCount: count, StarLimit: prog.StarsPerStudent}, ErrStarLimit
	}

	in := interest.Interest{
		ID:        deps.GenerateID(),
		StudentID: st.ID,
		SectionID: sec.ID,
		CreatedAt: deps.Now(),
	}
	if err := in.Validate(); err != nil {
		return StarSectionResult{}, err
	}
	if err := deps.InterestStore.Save(ctx, in); err != nil {
		return StarSectionResult{}, err
	}

	slog.Info("catalog_event", "event", "section_starred", "student_id", st.ID, "section_id", sec.ID, "program", prog.Slug)
	return StarSectionResult{Starred: true, StarCount: count + 1, StarLimit: prog.StarsPerStudent}, nil
}

// ExecuteUnstarSection removes a star. Unstarring a section that was never
// starred is a no-op.
// PRE: AccountID belongs to an authenticated student account
// POST: No star exists for (student, section)
func ExecuteUnstarSection(ctx context.Context, input StarSectionInput, deps StarSectionDeps) (StarSectionResult, error) {
	st, sec, prog, err := resolveStarTarget(ctx, input, deps)
	if err != nil {
		return StarSectionResult{}, err
	}

	if err := deps.InterestStore.Delete(ctx, st.ID, sec.ID); err != nil {
		return StarSectionResult{}, err
	}
	count, err := deps.InterestStore.CountByStudentProgram(ctx, st.ID, prog.ID)
	if err != nil {
		return StarSectionResult{}, err
	}

	slog.Info("catalog_event", "event", "section_unstarred", "student_id", st.ID, "section_id", sec.ID, "program", prog.Slug)
	return StarSectionResult{Starred: false, StarCount: count, StarLimit: prog.StarsPerStudent}, nil
}

// resolveStarTarget loads the student, section and owning program.
func resolveStarTarget(ctx context.Context, input StarSectionInput, deps StarSectionDeps) (student.Student, section.Section, program.Program, error) {
	if input.SectionID == "" {
		return student.Student{}, section.Section{}, program.Program{}, errors.New("section ID is required")
	}

	st, err := deps.StudentStore.GetByAccountID(ctx, input.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return student.Student{}, section.Section{}, program.Program{}, ErrNoStudentProfile
	}
	if err != nil {
		return student.Student{}, section.Section{}, program.Program{}, err
	}

	sec, err := deps.SectionStore.GetByID(ctx, input.SectionID)
	if err != nil {
		return student.Student{}, section.Section{}, program.Program{}, fmt.Errorf("section lookup failed: %w", err)
	}

	prog, err := deps.ProgramStore.GetByID(ctx, sec.ProgramID)
	if err != nil {
		return student.Student{}, section.Section{}, program.Program{}, fmt.Errorf("program lookup failed: %w", err)
	}

	return st, sec, prog, nil
}
