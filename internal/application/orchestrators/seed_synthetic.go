package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	programStore "outreach/internal/adapters/storage/program"
	studentStore "outreach/internal/adapters/storage/student"
	"outreach/internal/domain/account"
	"outreach/internal/domain/interest"
	"outreach/internal/domain/program"
	"outreach/internal/domain/record"
	"outreach/internal/domain/section"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// SyntheticSeedDeps holds all stores needed for synthetic data seeding.
type SyntheticSeedDeps struct {
	AccountStore  synAccountStore
	StudentStore  synStudentStore
	ProgramStore  synProgramStore
	SectionStore  synSectionStore
	InterestStore synInterestStore
	RecordStore   synRecordStore
}

type synAccountStore interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}
type synStudentStore interface {
	Save(ctx context.Context, s student.Student) error
	List(ctx context.Context, filter studentStore.ListFilter) ([]student.Student, error)
}
type synProgramStore interface {
	List(ctx context.Context, filter programStore.ListFilter) ([]program.Program, error)
}
type synSectionStore interface {
	ListByProgram(ctx context.Context, programID string) ([]section.Section, error)
}
type synInterestStore interface {
	Save(ctx context.Context, in interest.Interest) error
}
type synRecordStore interface {
	Create(ctx context.Context, r record.Record) (bool, error)
}

// ExecuteSeedSynthetic populates the database with a realistic student body:
// accounts with student profiles, scattered stars across the demo program's
// sections, and a mix of confirmed and checked-in students. Idempotent: it
// skips when students already exist beyond the dev test account.
// PRE: Programs and test accounts are seeded
// POST: Roster of students with stars and registration records exists
func ExecuteSeedSynthetic(ctx context.Context, deps SyntheticSeedDeps) error {
	existing, err := deps.StudentStore.List(ctx, studentStore.ListFilter{Limit: 100})
	if err != nil {
		return fmt.Errorf("seed_synthetic: list students: %w", err)
	}
	if len(existing) > 2 {
		slog.Info("seed_event", "event", "synthetic_skip", "reason", "already_seeded")
		return nil
	}

	programs, err := deps.ProgramStore.List(ctx, programStore.ListFilter{Status: program.StatusOpen, Limit: 1})
	if err != nil {
		return fmt.Errorf("seed_synthetic: list programs: %w", err)
	}
	if len(programs) == 0 {
		slog.Info("seed_event", "event", "synthetic_skip", "reason", "no_open_program")
		return nil
	}
	prog := programs[0]

	sections, err := deps.SectionStore.ListByProgram(ctx, prog.ID)
	if err != nil {
		return fmt.Errorf("seed_synthetic: list sections: %w", err)
	}
	if len(sections) == 0 {
		slog.Info("seed_event", "event", "synthetic_skip", "reason", "no_sections")
		return nil
	}
	now := time.Now()

	type studentSeed struct {
		Name  string
		Email string
		Grade string
	}
	roster := []studentSeed{
		{"Marcus Oliveira", "marcus@email.example", "8"},
		{"Sarah Chen", "sarah.chen@email.example", "7"},
		{"Tane Patel", "tane.p@email.example", "9"},
		{"Emily Rodriguez", "emily.r@email.example", "6"},
		{"James Mitchell", "james.m@email.example", "8"},
		{"Aroha Williams", "aroha.w@email.example", "7"},
		{"Dave Thompson", "dave.t@email.example", "9"},
		{"Mika Tanaka", "mika.t@email.example", "6"},
		{"Liam O'Brien", "liam.ob@email.example", "8"},
		{"Ngaire Henare", "ngaire.h@email.example", "7"},
		{"Ruby Mackenzie", "ruby.m@email.example", "6"},
		{"Aiden Shaw", "aiden.s@email.example", "9"},
	}

	for i, ss := range roster {
		if _, err := deps.AccountStore.GetByEmail(ctx, ss.Email); err == nil {
			continue // roster member already seeded
		}

		acct := account.Account{
			ID:        uuid.New().String(),
			Email:     ss.Email,
			Role:      account.RoleStudent,
			CreatedAt: now,
		}
		if err := acct.SetPassword("outreach12345!"); err != nil {
			return fmt.Errorf("seed student password: %w", err)
		}
		acct, err = deps.AccountStore.Create(ctx, acct)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", ss.Email, err)
		}

		st := student.Student{
			ID:         uuid.New().String(),
			AccountID:  acct.ID,
			Name:       ss.Name,
			GradeLevel: ss.Grade,
			Status:     student.StatusActive,
			CreatedAt:  now,
		}
		if err := deps.StudentStore.Save(ctx, st); err != nil {
			return fmt.Errorf("seed student %s: %w", ss.Name, err)
		}

		// Star 1-3 sections, rotating through the catalog so popularity
		// varies between sections.
		stars := 1 + i%3
		for j := 0; j < stars && j < len(sections); j++ {
			sec := sections[(i+j)%len(sections)]
			in := interest.Interest{
				ID:        uuid.New().String(),
				StudentID: st.ID,
				SectionID: sec.ID,
				CreatedAt: now.Add(-time.Duration(48-i) * time.Hour),
			}
			if err := deps.InterestStore.Save(ctx, in); err != nil {
				return fmt.Errorf("seed star for %s: %w", ss.Name, err)
			}
		}

		// Two thirds confirmed; half of those already checked in.
		if i%3 != 2 {
			rec := record.Record{
				ID:        uuid.New().String(),
				StudentID: st.ID,
				ProgramID: prog.ID,
				Event:     record.EventRegConfirmed,
				CreatedAt: now.Add(-time.Duration(36-i) * time.Hour),
			}
			if _, err := deps.RecordStore.Create(ctx, rec); err != nil {
				return fmt.Errorf("seed confirmation for %s: %w", ss.Name, err)
			}
			if i%2 == 0 {
				att := record.Record{
					ID:        uuid.New().String(),
					StudentID: st.ID,
					ProgramID: prog.ID,
					Event:     record.EventAttended,
					CreatedAt: now.Add(-time.Duration(i) * time.Minute),
				}
				if _, err := deps.RecordStore.Create(ctx, att); err != nil {
					return fmt.Errorf("seed check-in for %s: %w", ss.Name, err)
				}
			}
		}
	}

	slog.Info("seed_event", "event", "synthetic_seeded", "students", len(roster), "program", prog.Slug)
	return nil
}
