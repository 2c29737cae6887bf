package projections

import (
	"context"
	"testing"
	"time"

	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
	domainStudent "outreach/internal/domain/student"
)

func onsiteDeps(now time.Time) GetOnsiteDashboardDeps {
	open := domainProgram.Program{
		ID:     "prog-1",
		Name:   "Spring Splash 2026",
		Slug:   "spring-splash-2026",
		Status: domainProgram.StatusOpen,
	}
	second := domainProgram.Program{
		ID:     "prog-2",
		Name:   "Autumn Arts 2026",
		Slug:   "autumn-arts-2026",
		Status: domainProgram.StatusOpen,
	}

	records := []domainRecord.Record{
		{ID: "rec-1", StudentID: "stu-1", ProgramID: "prog-1", Event: domainRecord.EventAttended, CreatedAt: now.Add(-10 * time.Minute)},
		{ID: "rec-2", StudentID: "stu-2", ProgramID: "prog-1", Event: domainRecord.EventAttended, CreatedAt: now.Add(-25 * time.Hour)},
		{ID: "rec-3", StudentID: "stu-gone", ProgramID: "prog-1", Event: domainRecord.EventAttended, CreatedAt: now.Add(-5 * time.Minute)},
		{ID: "rec-4", StudentID: "stu-1", ProgramID: "prog-1", Event: domainRecord.EventRegConfirmed, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "rec-5", StudentID: "stu-2", ProgramID: "prog-1", Event: domainRecord.EventRegConfirmed, CreatedAt: now.Add(-49 * time.Hour)},
	}

	return GetOnsiteDashboardDeps{
		ProgramStore: &mockCatalogProgramStore{programs: []domainProgram.Program{open, second}},
		RecordStore:  &mockRegStatusRecordStore{records: records},
		StudentStore: &mockCatalogStudentStore{byAccount: map[string]domainStudent.Student{
			"acct-1": {ID: "stu-1", AccountID: "acct-1", Name: "Jordan Baker", GradeLevel: "7"},
			"acct-2": {ID: "stu-2", AccountID: "acct-2", Name: "Sam Reyes", GradeLevel: "8"},
		}},
	}
}

// TestQueryGetOnsiteDashboard_TodayFeedAndCounts verifies the feed is limited to today and counts cover all time.
func TestQueryGetOnsiteDashboard_TodayFeedAndCounts(t *testing.T) {
	now := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	res, err := QueryGetOnsiteDashboard(context.Background(), GetOnsiteDashboardQuery{}, onsiteDeps(now), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Selected.ID != "prog-1" {
		t.Errorf("selected = %q, want first open program", res.Selected.ID)
	}
	if res.ConfirmedCount != 2 {
		t.Errorf("confirmed = %d, want 2", res.ConfirmedCount)
	}
	if res.AttendedCount != 3 {
		t.Errorf("attended = %d, want 3 (all time)", res.AttendedCount)
	}

	// rec-2 is yesterday; rec-3's student no longer exists.
	if len(res.TodayFeed) != 1 {
		t.Fatalf("feed=%d want 1", len(res.TodayFeed))
	}
	if res.TodayFeed[0].StudentName != "Jordan Baker" {
		t.Errorf("feed[0] = %q, want Jordan Baker", res.TodayFeed[0].StudentName)
	}
}

// TestQueryGetOnsiteDashboard_ExplicitProgram verifies selecting a program by slug.
func TestQueryGetOnsiteDashboard_ExplicitProgram(t *testing.T) {
	now := time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)
	res, err := QueryGetOnsiteDashboard(context.Background(), GetOnsiteDashboardQuery{ProgramSlug: "autumn-arts-2026"}, onsiteDeps(now), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.ID != "prog-2" {
		t.Errorf("selected = %q, want prog-2", res.Selected.ID)
	}
	if res.AttendedCount != 0 || len(res.TodayFeed) != 0 {
		t.Error("prog-2 has no check-ins")
	}
}

// TestQueryGetOnsiteDashboard_NoOpenPrograms verifies the dashboard renders empty without open programs.
func TestQueryGetOnsiteDashboard_NoOpenPrograms(t *testing.T) {
	now := time.Now()
	deps := onsiteDeps(now)
	deps.ProgramStore = &mockCatalogProgramStore{}

	res, err := QueryGetOnsiteDashboard(context.Background(), GetOnsiteDashboardQuery{}, deps, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.ID != "" || len(res.TodayFeed) != 0 {
		t.Error("expected an empty dashboard")
	}
}
