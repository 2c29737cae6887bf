package record

import (
	"errors"
	"time"
)

// Event constants. A record is an append-only fact about a student within a
// program: existence of a RegConfirmed record means the student confirmed
// their registration, existence of an Attended record means they were checked
// in at the door.
const (
	EventRegConfirmed = "twophase_reg_done"
	EventAttended     = "attended"
)

// ValidEvents contains all valid event values.
var ValidEvents = []string{EventRegConfirmed, EventAttended}

// Domain errors
var (
	ErrNoStudent    = errors.New("record must reference a student")
	ErrNoProgram    = errors.New("record must reference a program")
	ErrInvalidEvent = errors.New("event must be 'twophase_reg_done' or 'attended'")
)

// Record is one event fact. Records are created once per (student, event,
// program) and never mutated.
type Record struct {
	ID        string
	StudentID string
	ProgramID string
	Event     string
	CreatedAt time.Time
}

// Validate checks the record's invariants.
// PRE: Record struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Record) Validate() error {
	if r.StudentID == "" {
		return ErrNoStudent
	}
	if r.ProgramID == "" {
		return ErrNoProgram
	}
	if !isValidEvent(r.Event) {
		return ErrInvalidEvent
	}
	if r.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

func isValidEvent(e string) bool {
	for _, v := range ValidEvents {
		if v == e {
			return true
		}
	}
	return false
}
