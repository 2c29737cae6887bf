package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/domain/account"
	"outreach/internal/domain/audit"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// RegisterStudentStore persists the student profile half of registration.
type RegisterStudentStore interface {
	Save(ctx context.Context, s student.Student) error
}

// RegisterAccountStore is AccountStoreForCreate plus cleanup on failure.
type RegisterAccountStore interface {
	AccountStoreForCreate
	Delete(ctx context.Context, id string) error
}

// RegisterAuditStore records the registration in the audit trail.
type RegisterAuditStore interface {
	Save(ctx context.Context, e audit.Event) error
}

// RegisterStudentInput carries input for the orchestrator.
type RegisterStudentInput struct {
	Name       string
	GradeLevel string
	Email      string
	Password   string
	ActorID    string // admin performing the registration
	ActorEmail string
}

// RegisterStudentDeps holds dependencies for RegisterStudent.
type RegisterStudentDeps struct {
	AccountStore RegisterAccountStore
	StudentStore RegisterStudentStore
	AuditStore   RegisterAuditStore
	GenerateID   func() string    // optional: defaults to uuid
	Now          func() time.Time // optional: defaults to time.Now
}

// RegisterStudentResult reports the created pair.
type RegisterStudentResult struct {
	AccountID string
	StudentID string
	IDNumber  int64 // the number the student reads out at the check-in desk
}

// ExecuteRegisterStudent creates a student account plus its student profile.
// The account's id_number is allocated by the store and returned for the
// admin to hand to the student.
// PRE: Name and email non-empty, password >= 12 chars
// POST: Account (role student) and active student profile exist
func ExecuteRegisterStudent(ctx context.Context, input RegisterStudentInput, deps RegisterStudentDeps) (RegisterStudentResult, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if strings.TrimSpace(input.Name) == "" {
		return RegisterStudentResult{}, errors.New("student name cannot be empty")
	}

	acct, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     account.RoleStudent,
	}, CreateAccountDeps{AccountStore: deps.AccountStore})
	if err != nil {
		return RegisterStudentResult{}, err
	}

	st := student.Student{
		ID:         deps.GenerateID(),
		AccountID:  acct.ID,
		Name:       strings.TrimSpace(input.Name),
		GradeLevel: strings.TrimSpace(input.GradeLevel),
		Status:     student.StatusActive,
		CreatedAt:  deps.Now(),
	}
	if err := st.Validate(); err != nil {
		return RegisterStudentResult{}, err
	}
	if err := deps.StudentStore.Save(ctx, st); err != nil {
		// Roll back the account so the email is not burned by a half
		// registration.
		if delErr := deps.AccountStore.Delete(ctx, acct.ID); delErr != nil {
			slog.Error("register_rollback_failed", "account_id", acct.ID, "error", delErr)
		}
		return RegisterStudentResult{}, fmt.Errorf("save student profile: %w", err)
	}

	if deps.AuditStore != nil {
		ev := audit.NewEvent(input.ActorID, input.ActorEmail, audit.CategoryRegistration, audit.ActionCreate).
			WithResource("student", st.ID).
			WithDescription(fmt.Sprintf("registered student %s (#%d)", st.Name, acct.IDNumber))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "action", "register_student", "error", err)
		}
	}

	slog.Info("registration_event", "event", "student_registered", "student_id", st.ID, "account_id", acct.ID, "id_number", acct.IDNumber)

	return RegisterStudentResult{AccountID: acct.ID, StudentID: st.ID, IDNumber: acct.IDNumber}, nil
}
