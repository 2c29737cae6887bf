package projections

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	programStore "outreach/internal/adapters/storage/program"
	studentStore "outreach/internal/adapters/storage/student"
	domainInterest "outreach/internal/domain/interest"
	domainProgram "outreach/internal/domain/program"
	domainSection "outreach/internal/domain/section"
	domainStudent "outreach/internal/domain/student"
)

type mockCatalogProgramStore struct {
	programs []domainProgram.Program
}

// GetBySlug returns the seeded program with the given slug.
// PRE: slug is non-empty
// POST: Returns the program or sql.ErrNoRows
func (m *mockCatalogProgramStore) GetBySlug(_ context.Context, slug string) (domainProgram.Program, error) {
	for _, p := range m.programs {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domainProgram.Program{}, fmt.Errorf("program %s: %w", slug, sql.ErrNoRows)
}

// List returns seeded programs matching the status filter.
// PRE: filter is valid
// POST: Returns matching programs in seeded order
func (m *mockCatalogProgramStore) List(_ context.Context, filter programStore.ListFilter) ([]domainProgram.Program, error) {
	var out []domainProgram.Program
	for _, p := range m.programs {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type mockCatalogSectionStore struct {
	byProgram map[string][]domainSection.Section
}

// ListByProgram returns seeded sections for the program.
func (m *mockCatalogSectionStore) ListByProgram(_ context.Context, programID string) ([]domainSection.Section, error) {
	return m.byProgram[programID], nil
}

// ListByIDs returns seeded sections matching the given IDs.
func (m *mockCatalogSectionStore) ListByIDs(_ context.Context, ids []string) ([]domainSection.Section, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []domainSection.Section
	for _, sections := range m.byProgram {
		for _, sec := range sections {
			if want[sec.ID] {
				out = append(out, sec)
			}
		}
	}
	return out, nil
}

type mockCatalogInterestStore struct {
	interests []domainInterest.Interest
	sections  map[string]string // section ID -> program ID
}

// ListByStudentProgram returns the student's stars within one program.
func (m *mockCatalogInterestStore) ListByStudentProgram(_ context.Context, studentID, programID string) ([]domainInterest.Interest, error) {
	var out []domainInterest.Interest
	for _, in := range m.interests {
		if in.StudentID == studentID && m.sections[in.SectionID] == programID {
			out = append(out, in)
		}
	}
	return out, nil
}

// CountBySection counts stars on one section across all students.
func (m *mockCatalogInterestStore) CountBySection(_ context.Context, sectionID string) (int, error) {
	count := 0
	for _, in := range m.interests {
		if in.SectionID == sectionID {
			count++
		}
	}
	return count, nil
}

// CountByStudentProgram counts the student's stars within one program.
func (m *mockCatalogInterestStore) CountByStudentProgram(ctx context.Context, studentID, programID string) (int, error) {
	list, err := m.ListByStudentProgram(ctx, studentID, programID)
	return len(list), err
}

type mockCatalogStudentStore struct {
	byAccount map[string]domainStudent.Student
}

// GetByID returns a seeded student by ID.
func (m *mockCatalogStudentStore) GetByID(_ context.Context, id string) (domainStudent.Student, error) {
	for _, st := range m.byAccount {
		if st.ID == id {
			return st, nil
		}
	}
	return domainStudent.Student{}, fmt.Errorf("student %s: %w", id, sql.ErrNoRows)
}

// GetByAccountID returns the seeded student linked to the account.
func (m *mockCatalogStudentStore) GetByAccountID(_ context.Context, accountID string) (domainStudent.Student, error) {
	st, ok := m.byAccount[accountID]
	if !ok {
		return domainStudent.Student{}, fmt.Errorf("student for account %s: %w", accountID, sql.ErrNoRows)
	}
	return st, nil
}

// List returns all seeded students.
func (m *mockCatalogStudentStore) List(_ context.Context, _ studentStore.ListFilter) ([]domainStudent.Student, error) {
	var out []domainStudent.Student
	for _, st := range m.byAccount {
		out = append(out, st)
	}
	return out, nil
}

// Count returns the number of seeded students.
func (m *mockCatalogStudentStore) Count(_ context.Context, _ studentStore.ListFilter) (int, error) {
	return len(m.byAccount), nil
}

func catalogDeps() GetCatalogDeps {
	open := domainProgram.Program{
		ID:              "prog-1",
		Name:            "Spring Splash 2026",
		Slug:            "spring-splash-2026",
		Status:          domainProgram.StatusOpen,
		StarsPerStudent: 3,
	}
	draft := domainProgram.Program{
		ID:     "prog-2",
		Name:   "Fall Focus 2026",
		Slug:   "fall-focus-2026",
		Status: domainProgram.StatusDraft,
	}
	sections := []domainSection.Section{
		{ID: "sec-1", ProgramID: "prog-1", Title: "Intro to Juggling"},
		{ID: "sec-2", ProgramID: "prog-1", Title: "Rocket Science for Beginners"},
	}
	return GetCatalogDeps{
		ProgramStore: &mockCatalogProgramStore{programs: []domainProgram.Program{open, draft}},
		SectionStore: &mockCatalogSectionStore{byProgram: map[string][]domainSection.Section{"prog-1": sections}},
		InterestStore: &mockCatalogInterestStore{
			interests: []domainInterest.Interest{
				{ID: "in-1", StudentID: "stu-1", SectionID: "sec-2", CreatedAt: time.Now()},
				{ID: "in-2", StudentID: "stu-other", SectionID: "sec-2", CreatedAt: time.Now()},
			},
			sections: map[string]string{"sec-1": "prog-1", "sec-2": "prog-1"},
		},
		StudentStore: &mockCatalogStudentStore{byAccount: map[string]domainStudent.Student{
			"acct-1": {ID: "stu-1", AccountID: "acct-1", Name: "Jordan Baker", Status: domainStudent.StatusActive},
		}},
	}
}

// TestQueryGetCatalog_MarksViewerStars verifies the catalog flags the viewing student's stars.
func TestQueryGetCatalog_MarksViewerStars(t *testing.T) {
	res, err := QueryGetCatalog(context.Background(), GetCatalogQuery{AccountID: "acct-1"}, catalogDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasProfile {
		t.Error("expected HasProfile for an account with a student row")
	}
	if len(res.Programs) != 1 {
		t.Fatalf("programs=%d want 1 (draft program must be hidden)", len(res.Programs))
	}

	cp := res.Programs[0]
	if cp.StarsUsed != 1 || cp.StarLimit != 3 {
		t.Errorf("stars used/limit = %d/%d, want 1/3", cp.StarsUsed, cp.StarLimit)
	}
	if len(cp.Sections) != 2 {
		t.Fatalf("sections=%d want 2", len(cp.Sections))
	}
	if cp.Sections[0].Starred {
		t.Error("sec-1 should not be starred")
	}
	if !cp.Sections[1].Starred {
		t.Error("sec-2 should be starred")
	}
	if cp.Sections[1].StarCount != 2 {
		t.Errorf("sec-2 star count = %d, want 2 (all students)", cp.Sections[1].StarCount)
	}
}

// TestQueryGetCatalog_AnonymousViewer verifies the catalog renders without star state for no account.
func TestQueryGetCatalog_AnonymousViewer(t *testing.T) {
	res, err := QueryGetCatalog(context.Background(), GetCatalogQuery{}, catalogDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasProfile {
		t.Error("expected HasProfile false without an account")
	}
	if len(res.Programs) != 1 {
		t.Fatalf("programs=%d want 1", len(res.Programs))
	}
	for _, sec := range res.Programs[0].Sections {
		if sec.Starred {
			t.Errorf("section %s starred for anonymous viewer", sec.Section.ID)
		}
	}
}

// TestQueryGetCatalog_AccountWithoutProfile verifies a profileless account still sees the catalog.
func TestQueryGetCatalog_AccountWithoutProfile(t *testing.T) {
	res, err := QueryGetCatalog(context.Background(), GetCatalogQuery{AccountID: "acct-admin"}, catalogDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasProfile {
		t.Error("expected HasProfile false for an account with no student row")
	}
	if res.Programs[0].StarsUsed != 0 {
		t.Errorf("stars used = %d, want 0", res.Programs[0].StarsUsed)
	}
}
