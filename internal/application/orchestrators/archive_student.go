package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"outreach/internal/domain/audit"
	"outreach/internal/domain/student"
)

// StudentStoreForArchive defines the store interface needed by Archive/Restore.
type StudentStoreForArchive interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
	Save(ctx context.Context, s student.Student) error
}

// ArchiveStudentInput carries input for the archive orchestrator.
type ArchiveStudentInput struct {
	StudentID  string
	ActorID    string
	ActorEmail string
}

// ArchiveStudentDeps holds dependencies for ArchiveStudent.
type ArchiveStudentDeps struct {
	StudentStore StudentStoreForArchive
	AuditStore   RegisterAuditStore
}

// ExecuteArchiveStudent archives a student profile. Archived students keep
// their account and history but drop out of the active list and check-in.
// PRE: StudentID must be non-empty; student must exist and not be archived
// POST: Student status set to archived
func ExecuteArchiveStudent(ctx context.Context, input ArchiveStudentInput, deps ArchiveStudentDeps) error {
	if input.StudentID == "" {
		return errors.New("student ID is required")
	}

	st, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	if err := st.Archive(); err != nil {
		return err
	}

	if err := deps.StudentStore.Save(ctx, st); err != nil {
		return err
	}

	if deps.AuditStore != nil {
		ev := audit.NewEvent(input.ActorID, input.ActorEmail, audit.CategoryRegistration, audit.ActionUpdate).
			WithResource("student", st.ID).
			WithDescription(fmt.Sprintf("archived student %s", st.Name))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "error", err, "student_id", st.ID)
		}
	}

	slog.Info("registration_event", "event", "student_archived", "student_id", input.StudentID)
	return nil
}

// RestoreStudentInput carries input for the restore orchestrator.
type RestoreStudentInput struct {
	StudentID  string
	ActorID    string
	ActorEmail string
}

// ExecuteRestoreStudent restores an archived student to active status.
// PRE: StudentID must be non-empty; student must exist and be archived
// POST: Student status set to active
func ExecuteRestoreStudent(ctx context.Context, input RestoreStudentInput, deps ArchiveStudentDeps) error {
	if input.StudentID == "" {
		return errors.New("student ID is required")
	}

	st, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	if err := st.Restore(); err != nil {
		return err
	}

	if err := deps.StudentStore.Save(ctx, st); err != nil {
		return err
	}

	if deps.AuditStore != nil {
		ev := audit.NewEvent(input.ActorID, input.ActorEmail, audit.CategoryRegistration, audit.ActionUpdate).
			WithResource("student", st.ID).
			WithDescription(fmt.Sprintf("restored student %s", st.Name))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "error", err, "student_id", st.ID)
		}
	}

	slog.Info("registration_event", "event", "student_restored", "student_id", input.StudentID)
	return nil
}
