package section_test

import (
	"testing"

	"outreach/internal/domain/section"
)

// TestSection_Validate tests validation of Section.
func TestSection_Validate(t *testing.T) {
	valid := section.Section{
		ID:          "1",
		ProgramID:   "prog-1",
		Title:       "Intro to Cryptography",
		TeacherName: "R. Alvarez",
		Room:        "26-100",
		Timeslot:    "Sat 10:00",
		Capacity:    25,
	}

	tests := []struct {
		name   string
		mutate func(s *section.Section)
		wantEr error
	}{
		{"valid", func(s *section.Section) {}, nil},
		{"missing program", func(s *section.Section) { s.ProgramID = "" }, section.ErrNoProgram},
		{"empty title", func(s *section.Section) { s.Title = "  " }, section.ErrEmptyTitle},
		{"empty teacher", func(s *section.Section) { s.TeacherName = "" }, section.ErrEmptyTeacher},
		{"negative capacity", func(s *section.Section) { s.Capacity = -1 }, section.ErrBadCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); err != tt.wantEr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantEr)
			}
		})
	}
}

// TestSection_ValidateZeroCapacity confirms 0 means unlimited and is allowed.
func TestSection_ValidateZeroCapacity(t *testing.T) {
	s := section.Section{
		ProgramID:   "prog-1",
		Title:       "Open Lab",
		TeacherName: "J. Osei",
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}
