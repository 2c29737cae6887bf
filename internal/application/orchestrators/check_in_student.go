package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"outreach/internal/domain/account"
	"outreach/internal/domain/program"
	"outreach/internal/domain/record"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// CheckInAccountStore defines the account lookup needed for check-in.
type CheckInAccountStore interface {
	GetByIDNumber(ctx context.Context, idNumber int64) (account.Account, error)
}

// CheckInStudentStore defines the student lookup needed for check-in.
type CheckInStudentStore interface {
	GetByAccountID(ctx context.Context, accountID string) (student.Student, error)
}

// CheckInProgramStore defines the program lookup needed for check-in.
type CheckInProgramStore interface {
	GetBySlug(ctx context.Context, slug string) (program.Program, error)
}

// CheckInRecordStore defines the record persistence needed for check-in.
type CheckInRecordStore interface {
	Create(ctx context.Context, r record.Record) (bool, error)
}

// CheckInStudentInput carries input for the check-in orchestrator. RawID is
// the identifier exactly as typed at the onsite desk.
type CheckInStudentInput struct {
	RawID       string
	ProgramSlug string
}

// CheckInStudentDeps holds dependencies for CheckInStudent.
type CheckInStudentDeps struct {
	AccountStore CheckInAccountStore
	StudentStore CheckInStudentStore
	ProgramStore CheckInProgramStore
	RecordStore  CheckInRecordStore
	GenerateID   func() string    // optional: defaults to uuid
	Now          func() time.Time // optional: defaults to time.Now
}

// CheckInStudentResult carries the outcome shown at the onsite desk.
// Message is always set; CheckedIn is true only when this call created the
// attendance record.
type CheckInStudentResult struct {
	Message   string
	CheckedIn bool
}

// ExecuteCheckInStudent resolves a typed identifier to a student and records
// attendance for a program. Every recognised outcome, including bad input
// and repeat check-ins, is a user-facing message rather than an error;
// errors are reserved for storage failures and unknown programs.
// PRE: ProgramSlug names an existing program
// POST: At most one attended record exists per (student, program); Message
// describes the outcome in desk-readable form
func ExecuteCheckInStudent(ctx context.Context, input CheckInStudentInput, deps CheckInStudentDeps) (CheckInStudentResult, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if !isNumericID(input.RawID) {
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is not a valid user ID (must be numeric)", input.RawID),
		}, nil
	}

	prog, err := deps.ProgramStore.GetBySlug(ctx, input.ProgramSlug)
	if err != nil {
		return CheckInStudentResult{}, fmt.Errorf("program lookup failed: %w", err)
	}

	idNumber, err := strconv.ParseInt(input.RawID, 10, 64)
	if err != nil {
		// All-digit input too large for an id number matches no account.
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is not a user", input.RawID),
		}, nil
	}

	acct, err := deps.AccountStore.GetByIDNumber(ctx, idNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is not a user", input.RawID),
		}, nil
	}
	if err != nil {
		return CheckInStudentResult{}, err
	}

	st, err := deps.StudentStore.GetByAccountID(ctx, acct.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is not a student", input.RawID),
		}, nil
	}
	if err != nil {
		return CheckInStudentResult{}, err
	}
	if !st.IsActive() {
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is not a student", input.RawID),
		}, nil
	}

	rec := record.Record{
		ID:        deps.GenerateID(),
		StudentID: st.ID,
		ProgramID: prog.ID,
		Event:     record.EventAttended,
		CreatedAt: deps.Now(),
	}
	if err := rec.Validate(); err != nil {
		return CheckInStudentResult{}, err
	}

	inserted, err := deps.RecordStore.Create(ctx, rec)
	if err != nil {
		return CheckInStudentResult{}, err
	}
	if !inserted {
		return CheckInStudentResult{
			Message: fmt.Sprintf("%s is already checked in", st.Name),
		}, nil
	}

	slog.Info("checkin_event", "event", "student_checked_in", "student_id", st.ID, "name", st.Name, "program", prog.Slug)

	return CheckInStudentResult{
		Message:   fmt.Sprintf("%s is now checked in", st.Name),
		CheckedIn: true,
	}, nil
}

// isNumericID reports whether s is non-empty and all ASCII digits.
func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
