package orchestrators

import (
	"context"
	"log/slog"
	"time"

	programStore "outreach/internal/adapters/storage/program"
	"outreach/internal/domain/program"
	"outreach/internal/domain/section"

	"github.com/google/uuid"
)

// ProgramStoreForSeed defines the store interface needed by SeedPrograms.
type ProgramStoreForSeed interface {
	Save(ctx context.Context, p program.Program) error
	List(ctx context.Context, filter programStore.ListFilter) ([]program.Program, error)
}

// SectionStoreForSeed defines the store interface needed by SeedPrograms.
type SectionStoreForSeed interface {
	Save(ctx context.Context, s section.Section) error
}

// SeedProgramsDeps holds dependencies for SeedPrograms.
type SeedProgramsDeps struct {
	ProgramStore ProgramStoreForSeed
	SectionStore SectionStoreForSeed
}

// ExecuteSeedPrograms creates a demo program with a few sections if no
// programs exist. Development convenience so a fresh checkout has a catalog
// to click through.
// PRE: Database is migrated
// POST: At least one open program with sections exists
func ExecuteSeedPrograms(ctx context.Context, deps SeedProgramsDeps) error {
	existing, err := deps.ProgramStore.List(ctx, programStore.ListFilter{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	progID := uuid.New().String()
	prog := program.Program{
		ID:              progID,
		Name:            "Spring Splash 2026",
		Slug:            "spring-splash-2026",
		Status:          program.StatusOpen,
		StarsPerStudent: program.DefaultStarsPerStudent,
		Description:     "A weekend of classes taught by volunteer teachers. **Star** the classes you want a lottery seat in, then confirm your preferences.",
		StartsAt:        time.Date(2026, 4, 18, 9, 0, 0, 0, time.UTC),
		CreatedAt:       time.Now(),
	}
	if err := deps.ProgramStore.Save(ctx, prog); err != nil {
		return err
	}

	sections := []section.Section{
		{Title: "Intro to Juggling", TeacherName: "Sam Lee", Room: "B12", Timeslot: "Sat 10:00", Capacity: 20},
		{Title: "Rocket Science for Beginners", TeacherName: "Ada Okoye", Room: "Lab 3", Timeslot: "Sat 11:00", Capacity: 16},
		{Title: "Chess Openings", TeacherName: "Max Pine", Room: "B12", Timeslot: "Sat 13:00", Capacity: 24},
		{Title: "Creative Writing Workshop", TeacherName: "Ira Chen", Room: "Library", Timeslot: "Sun 10:00", Capacity: 18},
	}
	for _, s := range sections {
		s.ID = uuid.New().String()
		s.ProgramID = progID
		s.CreatedAt = time.Now()
		if err := deps.SectionStore.Save(ctx, s); err != nil {
			return err
		}
	}

	slog.Info("seed_event", "event", "programs_seeded", "program", prog.Slug, "sections", len(sections))
	return nil
}
