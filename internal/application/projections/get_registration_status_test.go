package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	domainInterest "outreach/internal/domain/interest"
	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
)

type mockRegStatusRecordStore struct {
	records []domainRecord.Record
}

// Exists reports whether a record with the key exists.
func (m *mockRegStatusRecordStore) Exists(_ context.Context, studentID, programID, event string) (bool, error) {
	for _, r := range m.records {
		if r.StudentID == studentID && r.ProgramID == programID && r.Event == event {
			return true, nil
		}
	}
	return false, nil
}

// GetByKey returns the record with the key or sql.ErrNoRows.
func (m *mockRegStatusRecordStore) GetByKey(_ context.Context, studentID, programID, event string) (domainRecord.Record, error) {
	for _, r := range m.records {
		if r.StudentID == studentID && r.ProgramID == programID && r.Event == event {
			return r, nil
		}
	}
	return domainRecord.Record{}, fmt.Errorf("record: %w", sql.ErrNoRows)
}

// ListRecentByProgram returns seeded records for the program and event, newest first.
func (m *mockRegStatusRecordStore) ListRecentByProgram(_ context.Context, programID, event string, _ int) ([]domainRecord.Record, error) {
	var out []domainRecord.Record
	for _, r := range m.records {
		if r.ProgramID == programID && r.Event == event {
			out = append(out, r)
		}
	}
	return out, nil
}

// CountByProgramEvent counts seeded records for the program and event.
func (m *mockRegStatusRecordStore) CountByProgramEvent(ctx context.Context, programID, event string) (int, error) {
	list, err := m.ListRecentByProgram(ctx, programID, event, 0)
	return len(list), err
}

func regStatusDeps(t *testing.T) GetRegistrationStatusDeps {
	t.Helper()
	base := catalogDeps()

	closed := domainProgram.Program{
		ID:     "prog-3",
		Name:   "Winter Wonder 2025",
		Slug:   "winter-wonder-2025",
		Status: domainProgram.StatusClosed,
	}
	ps := base.ProgramStore.(*mockCatalogProgramStore)
	ps.programs = append(ps.programs, closed)

	is := base.InterestStore.(*mockCatalogInterestStore)
	is.interests = append(is.interests, domainInterest.Interest{
		ID: "in-3", StudentID: "stu-1", SectionID: "sec-1", CreatedAt: time.Now(),
	})

	return GetRegistrationStatusDeps{
		StudentStore:  base.StudentStore,
		ProgramStore:  base.ProgramStore,
		SectionStore:  base.SectionStore,
		InterestStore: base.InterestStore,
		RecordStore: &mockRegStatusRecordStore{records: []domainRecord.Record{
			{ID: "rec-1", StudentID: "stu-1", ProgramID: "prog-3", Event: domainRecord.EventRegConfirmed,
				CreatedAt: time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)},
		}},
	}
}

// TestQueryGetRegistrationStatus_StarredInStarOrder verifies sections appear in starring order.
func TestQueryGetRegistrationStatus_StarredInStarOrder(t *testing.T) {
	res, err := QueryGetRegistrationStatus(context.Background(), GetRegistrationStatusQuery{AccountID: "acct-1"}, regStatusDeps(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StudentName != "Jordan Baker" {
		t.Errorf("student name = %q", res.StudentName)
	}

	var open *RegistrationProgramStatus
	for i := range res.Programs {
		if res.Programs[i].Program.ID == "prog-1" {
			open = &res.Programs[i]
		}
	}
	if open == nil {
		t.Fatal("open program missing from status page")
	}
	if len(open.Starred) != 2 {
		t.Fatalf("starred=%d want 2", len(open.Starred))
	}
	// stu-1 starred sec-2 first, then sec-1.
	if open.Starred[0].ID != "sec-2" || open.Starred[1].ID != "sec-1" {
		t.Errorf("starred order = [%s %s], want [sec-2 sec-1]", open.Starred[0].ID, open.Starred[1].ID)
	}
	if open.Confirmed {
		t.Error("open program should not be confirmed yet")
	}
}

// TestQueryGetRegistrationStatus_ConfirmedClosedProgramRetained verifies a confirmation keeps a closed program visible.
func TestQueryGetRegistrationStatus_ConfirmedClosedProgramRetained(t *testing.T) {
	res, err := QueryGetRegistrationStatus(context.Background(), GetRegistrationStatusQuery{AccountID: "acct-1"}, regStatusDeps(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var closed *RegistrationProgramStatus
	for i := range res.Programs {
		if res.Programs[i].Program.ID == "prog-3" {
			closed = &res.Programs[i]
		}
	}
	if closed == nil {
		t.Fatal("closed program with a confirmation should stay visible")
	}
	if !closed.Confirmed {
		t.Error("expected confirmed badge")
	}
	want := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)
	if !closed.ConfirmedAt.Equal(want) {
		t.Errorf("confirmed at = %v, want %v", closed.ConfirmedAt, want)
	}
}

// TestQueryGetRegistrationStatus_UnrelatedClosedProgramHidden verifies draft/closed programs without stars or confirmation are skipped.
func TestQueryGetRegistrationStatus_UnrelatedClosedProgramHidden(t *testing.T) {
	res, err := QueryGetRegistrationStatus(context.Background(), GetRegistrationStatusQuery{AccountID: "acct-1"}, regStatusDeps(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range res.Programs {
		if p.Program.ID == "prog-2" {
			t.Error("draft program with no relationship should be hidden")
		}
	}
}

// TestQueryGetRegistrationStatus_NoProfile verifies the no-profile sentinel.
func TestQueryGetRegistrationStatus_NoProfile(t *testing.T) {
	_, err := QueryGetRegistrationStatus(context.Background(), GetRegistrationStatusQuery{AccountID: "acct-admin"}, regStatusDeps(t))
	if !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}
