package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	emailAdapter "outreach/internal/adapters/email"
	"outreach/internal/domain/account"
	emailDomain "outreach/internal/domain/email"
	"outreach/internal/domain/interest"
	outboxDomain "outreach/internal/domain/outbox"
	"outreach/internal/domain/program"
	"outreach/internal/domain/record"
	"outreach/internal/domain/section"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// ConfirmAccountStore defines the account lookup needed for confirmation.
type ConfirmAccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// ConfirmStudentStore defines the student lookup needed for confirmation.
type ConfirmStudentStore interface {
	GetByAccountID(ctx context.Context, accountID string) (student.Student, error)
}

// ConfirmProgramStore defines the program lookup needed for confirmation.
type ConfirmProgramStore interface {
	GetBySlug(ctx context.Context, slug string) (program.Program, error)
}

// ConfirmRecordStore defines record persistence for confirmation.
type ConfirmRecordStore interface {
	Exists(ctx context.Context, studentID, programID, event string) (bool, error)
	Create(ctx context.Context, r record.Record) (bool, error)
}

// ConfirmInterestStore defines the starred-section lookup for the email body.
type ConfirmInterestStore interface {
	ListByStudentProgram(ctx context.Context, studentID, programID string) ([]interest.Interest, error)
}

// ConfirmSectionStore resolves starred section details for the email body.
type ConfirmSectionStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]section.Section, error)
}

// ConfirmEmailStore persists the confirmation email and its recipient.
type ConfirmEmailStore interface {
	Save(ctx context.Context, e emailDomain.Email) error
	SaveRecipients(ctx context.Context, emailID string, recipients []emailDomain.Recipient) error
}

// ConfirmOutboxStore queues failed sends for retry.
type ConfirmOutboxStore interface {
	Save(ctx context.Context, e outboxDomain.Entry) error
}

// ConfirmRegistrationInput carries input for the confirmation orchestrator.
type ConfirmRegistrationInput struct {
	AccountID   string
	ProgramSlug string
}

// ConfirmRegistrationDeps holds dependencies for ConfirmRegistration.
type ConfirmRegistrationDeps struct {
	AccountStore  ConfirmAccountStore
	StudentStore  ConfirmStudentStore
	ProgramStore  ConfirmProgramStore
	RecordStore   ConfirmRecordStore
	InterestStore ConfirmInterestStore
	SectionStore  ConfirmSectionStore
	EmailStore    ConfirmEmailStore
	OutboxStore   ConfirmOutboxStore
	EmailSender   emailAdapter.Sender
	FromAddress   string
	ReplyTo       string
	GenerateID    func() string    // optional: defaults to uuid
	Now           func() time.Time // optional: defaults to time.Now
}

// ConfirmRegistrationResult reports what the confirmation did.
type ConfirmRegistrationResult struct {
	AlreadyConfirmed bool
	EmailSent        bool
	Starred          []section.Section
}

// ErrNoStudentProfile is returned when the account has no student profile.
var ErrNoStudentProfile = errors.New("account has no student profile")

// ExecuteConfirmRegistration records that a student locked in their lottery
// preferences for a program and emails them the list of starred sections.
// Re-confirming is a no-op. Idempotence is check-then-insert, best-effort
// under concurrent duplicate requests; the store's conditional insert keeps
// the table to one row per (student, program) but the existence check and
// the email side effect are not atomic with it.
// PRE: AccountID belongs to an authenticated account; ProgramSlug names an
// open program
// POST: Exactly one twophase_reg_done record exists for (student, program);
// at most one confirmation email was composed by this call
func ExecuteConfirmRegistration(ctx context.Context, input ConfirmRegistrationInput, deps ConfirmRegistrationDeps) (ConfirmRegistrationResult, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return ConfirmRegistrationResult{}, fmt.Errorf("account lookup failed: %w", err)
	}

	st, err := deps.StudentStore.GetByAccountID(ctx, acct.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ConfirmRegistrationResult{}, ErrNoStudentProfile
	}
	if err != nil {
		return ConfirmRegistrationResult{}, err
	}

	prog, err := deps.ProgramStore.GetBySlug(ctx, input.ProgramSlug)
	if err != nil {
		return ConfirmRegistrationResult{}, fmt.Errorf("program lookup failed: %w", err)
	}
	if !prog.IsOpen() {
		return ConfirmRegistrationResult{}, program.ErrNotOpen
	}

	starred, err := starredSections(ctx, deps, st.ID, prog.ID)
	if err != nil {
		return ConfirmRegistrationResult{}, err
	}

	exists, err := deps.RecordStore.Exists(ctx, st.ID, prog.ID, record.EventRegConfirmed)
	if err != nil {
		return ConfirmRegistrationResult{}, err
	}
	if exists {
		return ConfirmRegistrationResult{AlreadyConfirmed: true, Starred: starred}, nil
	}

	rec := record.Record{
		ID:        deps.GenerateID(),
		StudentID: st.ID,
		ProgramID: prog.ID,
		Event:     record.EventRegConfirmed,
		CreatedAt: deps.Now(),
	}
	if err := rec.Validate(); err != nil {
		return ConfirmRegistrationResult{}, err
	}
	inserted, err := deps.RecordStore.Create(ctx, rec)
	if err != nil {
		return ConfirmRegistrationResult{}, err
	}
	if !inserted {
		// A concurrent request confirmed first; it owns the email.
		return ConfirmRegistrationResult{AlreadyConfirmed: true, Starred: starred}, nil
	}

	slog.Info("registration_event", "event", "registration_confirmed", "student_id", st.ID, "program", prog.Slug, "starred", len(starred))

	sent := sendConfirmationEmail(ctx, deps, acct, st, prog, starred)

	return ConfirmRegistrationResult{EmailSent: sent, Starred: starred}, nil
}

// starredSections loads the sections the student has starred in the program,
// in starring order.
func starredSections(ctx context.Context, deps ConfirmRegistrationDeps, studentID, programID string) ([]section.Section, error) {
	interests, err := deps.InterestStore.ListByStudentProgram(ctx, studentID, programID)
	if err != nil {
		return nil, err
	}
	if len(interests) == 0 {
		return []section.Section{}, nil
	}
	ids := make([]string, 0, len(interests))
	for _, in := range interests {
		ids = append(ids, in.SectionID)
	}
	sections, err := deps.SectionStore.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	// Preserve starring order
	byID := make(map[string]section.Section, len(sections))
	for _, s := range sections {
		byID[s.ID] = s
	}
	ordered := make([]section.Section, 0, len(sections))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// sendConfirmationEmail composes, records and sends the confirmation email.
// Failures never propagate: the email row is marked failed and queued to the
// outbox, and the confirmation stands.
func sendConfirmationEmail(ctx context.Context, deps ConfirmRegistrationDeps, acct account.Account, st student.Student, prog program.Program, starred []section.Section) bool {
	subject := fmt.Sprintf("%s Lottery Preferences Confirmation", prog.Name)
	body := confirmationBody(st.Name, prog.Name, starred)

	em := emailDomain.Email{
		ID:        deps.GenerateID(),
		Subject:   subject,
		Body:      body,
		Status:    emailDomain.StatusDraft,
		CreatedAt: deps.Now(),
	}
	if err := em.MarkQueued(); err != nil {
		slog.Error("confirmation_email_queue_failed", "email_id", em.ID, "error", err)
		return false
	}
	if err := deps.EmailStore.Save(ctx, em); err != nil {
		slog.Error("confirmation_email_save_failed", "email_id", em.ID, "error", err)
		return false
	}
	recipient := emailDomain.Recipient{
		EmailID:   em.ID,
		AccountID: acct.ID,
		Name:      st.Name,
		Address:   acct.Email,
	}
	if err := deps.EmailStore.SaveRecipients(ctx, em.ID, []emailDomain.Recipient{recipient}); err != nil {
		slog.Error("confirmation_email_recipients_failed", "email_id", em.ID, "error", err)
	}

	req := emailAdapter.SendRequest{
		To:      []string{acct.Email},
		From:    deps.FromAddress,
		Subject: subject,
		HTML:    body,
		ReplyTo: deps.ReplyTo,
	}
	result, err := deps.EmailSender.Send(ctx, req)
	if err != nil {
		em.MarkFailed()
		if saveErr := deps.EmailStore.Save(ctx, em); saveErr != nil {
			slog.Error("confirmation_email_mark_failed_error", "email_id", em.ID, "error", saveErr)
		}
		queueEmailRetry(ctx, deps, em.ID, req)
		slog.Warn("confirmation_email_send_failed", "email_id", em.ID, "to", acct.Email, "error", err)
		return false
	}

	em.MarkSent(result.SentAt, result.MessageID)
	if err := deps.EmailStore.Save(ctx, em); err != nil {
		slog.Error("confirmation_email_mark_sent_error", "email_id", em.ID, "error", err)
	}
	slog.Info("email_event", "event", "confirmation_email_sent", "email_id", em.ID, "to", acct.Email, "message_id", result.MessageID)
	return true
}

// emailOutboxPayload is the JSON payload stored for email retry entries.
type emailOutboxPayload struct {
	EmailID string   `json:"email_id"`
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to"`
}

// queueEmailRetry records a failed send in the outbox for the retry worker.
func queueEmailRetry(ctx context.Context, deps ConfirmRegistrationDeps, emailID string, req emailAdapter.SendRequest) {
	if deps.OutboxStore == nil {
		return
	}
	payload, err := json.Marshal(emailOutboxPayload{
		EmailID: emailID,
		To:      req.To,
		From:    req.From,
		Subject: req.Subject,
		HTML:    req.HTML,
		ReplyTo: req.ReplyTo,
	})
	if err != nil {
		slog.Error("outbox_payload_marshal_failed", "email_id", emailID, "error", err)
		return
	}
	entry := outboxDomain.Entry{
		ID:         deps.GenerateID(),
		ActionType: outboxDomain.ActionTypeEmail,
		Payload:    string(payload),
		Status:     outboxDomain.StatusPending,
		CreatedAt:  deps.Now(),
	}
	if err := entry.Validate(); err != nil {
		slog.Error("outbox_entry_invalid", "email_id", emailID, "error", err)
		return
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("outbox_enqueue_failed", "email_id", emailID, "error", err)
		return
	}
	slog.Info("email_event", "event", "email_queued_for_retry", "email_id", emailID, "entry_id", entry.ID)
}

// confirmationBody renders the confirmation email HTML.
func confirmationBody(studentName, programName string, starred []section.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(studentName))
	fmt.Fprintf(&b, "<p>Your lottery preferences for %s have been confirmed.</p>", html.EscapeString(programName))
	if len(starred) == 0 {
		b.WriteString("<p>You have no classes starred. You can still update your preferences while registration is open.</p>")
	} else {
		b.WriteString("<p>Your starred classes:</p><ul>")
		for _, s := range starred {
			fmt.Fprintf(&b, "<li><strong>%s</strong> with %s", html.EscapeString(s.Title), html.EscapeString(s.TeacherName))
			if s.Timeslot != "" {
				fmt.Fprintf(&b, ", %s", html.EscapeString(s.Timeslot))
			}
			if s.Room != "" {
				fmt.Fprintf(&b, ", room %s", html.EscapeString(s.Room))
			}
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("<p>See you there!</p>")
	return b.String()
}
