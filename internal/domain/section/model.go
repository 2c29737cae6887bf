package section

import (
	"errors"
	"strings"
	"time"
)

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Domain errors
var (
	ErrEmptyTitle   = errors.New("section title cannot be empty")
	ErrNoProgram    = errors.New("section must belong to a program")
	ErrBadCapacity  = errors.New("section capacity cannot be negative")
	ErrEmptyTeacher = errors.New("section teacher name cannot be empty")
)

// Section is one class offered within a program: a title, who teaches it,
// and where and when it runs. Capacity 0 means unlimited.
type Section struct {
	ID          string
	ProgramID   string
	Title       string
	TeacherName string
	Room        string
	Timeslot    string
	Capacity    int
	Description string
	CreatedAt   time.Time
}

// Validate checks the section's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (s *Section) Validate() error {
	if s.ProgramID == "" {
		return ErrNoProgram
	}
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if len(s.Title) > MaxTitleLength {
		return errors.New("section title cannot exceed 200 characters")
	}
	if strings.TrimSpace(s.TeacherName) == "" {
		return ErrEmptyTeacher
	}
	if s.Capacity < 0 {
		return ErrBadCapacity
	}
	if len(s.Description) > MaxDescriptionLength {
		return errors.New("section description cannot exceed 2000 characters")
	}
	return nil
}
