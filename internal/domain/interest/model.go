package interest

import (
	"errors"
	"time"
)

// Interest records that a student has starred a section as a lottery
// preference. At most one row exists per (student, section) pair; the cap on
// stars per program lives on the program, not here.
type Interest struct {
	ID        string
	StudentID string
	SectionID string
	CreatedAt time.Time
}

// Validate checks the interest record's invariants.
// PRE: fields may be empty (validation catches this)
// POST: Returns nil if valid, error with descriptive message otherwise
// INVARIANT: StudentID and SectionID must be non-empty
func (i *Interest) Validate() error {
	if i.StudentID == "" {
		return errors.New("student_id is required")
	}
	if i.SectionID == "" {
		return errors.New("section_id is required")
	}
	return nil
}
