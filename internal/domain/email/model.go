package email

import (
	"errors"
	"time"
)

// Status constants for email lifecycle.
const (
	StatusDraft  = "draft"
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Domain errors
var (
	ErrEmptySubject = errors.New("email subject is required")
	ErrEmptyBody    = errors.New("email body is required")
	ErrNoRecipients = errors.New("at least one recipient is required")
	ErrNotDraft     = errors.New("email is not in draft status")
)

// Email represents a composed email that can be sent via the provider.
// Confirmation emails are composed by the registration orchestrator; the
// send path and status bookkeeping are shared by every kind of mail.
type Email struct {
	ID                string
	Subject           string
	Body              string // HTML
	Status            string
	SentAt            time.Time
	CreatedAt         time.Time
	ProviderMessageID string // provider message ID for tracking
}

// Recipient links an email to a student account.
type Recipient struct {
	EmailID        string
	AccountID      string
	Name           string // denormalized for display
	Address        string // the actual email address for delivery
	DeliveryStatus string // queued, sent, failed
}

// Validate checks that the Email has valid data.
// PRE: Email struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Email) Validate() error {
	if e.Subject == "" {
		return ErrEmptySubject
	}
	if e.Body == "" {
		return ErrEmptyBody
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsSent returns true if the email has been sent.
// INVARIANT: Status field is not mutated
func (e *Email) IsSent() bool {
	return e.Status == StatusSent
}

// MarkQueued transitions the email to queued status for immediate sending.
// PRE: Email is in draft status
// POST: Status is set to queued
func (e *Email) MarkQueued() error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	e.Status = StatusQueued
	return nil
}

// MarkSent records that the email was successfully sent.
// PRE: Email is in queued status
// POST: Status is sent, SentAt is set
func (e *Email) MarkSent(sentAt time.Time, providerID string) {
	e.Status = StatusSent
	e.SentAt = sentAt
	e.ProviderMessageID = providerID
}

// MarkFailed records that sending failed.
// PRE: Email is in queued status
// POST: Status is failed
func (e *Email) MarkFailed() {
	e.Status = StatusFailed
}
