package student

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrAlreadyArchived = errors.New("student is already archived")
	ErrNotArchived     = errors.New("student is not archived")
)

// Student holds the profile attached to a student-role account. PhotoPath is
// a media-root-relative path and may be empty.
type Student struct {
	ID         string
	AccountID  string
	Name       string
	GradeLevel string
	Status     string
	PhotoPath  string
	CreatedAt  time.Time
}

// Validate checks if the Student has valid data.
// PRE: Student struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name must not be empty, AccountID must be set
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("student name cannot be empty")
	}
	if len(s.Name) > MaxNameLength {
		return errors.New("student name cannot exceed 100 characters")
	}
	if s.AccountID == "" {
		return errors.New("student must be linked to an account")
	}
	if s.Status != StatusActive && s.Status != StatusArchived {
		return errors.New("status must be 'active' or 'archived'")
	}
	return nil
}

// IsActive returns true if the student is currently active.
// INVARIANT: Status field is not mutated
func (s *Student) IsActive() bool {
	return s.Status == StatusActive
}

// Archive sets the student status to archived.
// PRE: Student is not already archived
// POST: Status is set to archived
func (s *Student) Archive() error {
	if s.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	s.Status = StatusArchived
	return nil
}

// Restore sets the student status back to active.
// PRE: Student is currently archived
// POST: Status is set to active
func (s *Student) Restore() error {
	if s.Status != StatusArchived {
		return ErrNotArchived
	}
	s.Status = StatusActive
	return nil
}
