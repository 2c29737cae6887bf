package projections

import (
	"context"
	"time"

	"outreach/internal/adapters/storage/program"
	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
)

// GetOnsiteDashboardQuery carries query parameters.
type GetOnsiteDashboardQuery struct {
	ProgramSlug string // optional, defaults to the first open program
}

// CheckInFeedEntry is one row of today's check-in feed.
type CheckInFeedEntry struct {
	StudentID   string
	StudentName string
	GradeLevel  string
	CheckedInAt time.Time
}

// GetOnsiteDashboardResult carries the query result.
type GetOnsiteDashboardResult struct {
	Programs       []domainProgram.Program // selector options
	Selected       domainProgram.Program
	ConfirmedCount int
	AttendedCount  int
	TodayFeed      []CheckInFeedEntry // newest first
}

// GetOnsiteDashboardDeps holds dependencies for GetOnsiteDashboard.
type GetOnsiteDashboardDeps struct {
	ProgramStore ProgramStore
	RecordStore  RecordStore
	StudentStore StudentStore
}

// QueryGetOnsiteDashboard retrieves the door screen: confirmed-vs-attended
// counts for the selected program and the feed of students checked in today.
// PRE: Valid query parameters
// POST: Feed limited to now's calendar day, newest first
func QueryGetOnsiteDashboard(ctx context.Context, query GetOnsiteDashboardQuery, deps GetOnsiteDashboardDeps, now time.Time) (GetOnsiteDashboardResult, error) {
	programs, err := deps.ProgramStore.List(ctx, program.ListFilter{
		Status: domainProgram.StatusOpen,
		Limit:  50,
	})
	if err != nil {
		return GetOnsiteDashboardResult{}, err
	}

	result := GetOnsiteDashboardResult{Programs: programs}

	if query.ProgramSlug != "" {
		prog, err := deps.ProgramStore.GetBySlug(ctx, query.ProgramSlug)
		if err != nil {
			return GetOnsiteDashboardResult{}, err
		}
		result.Selected = prog
	} else if len(programs) > 0 {
		result.Selected = programs[0]
	} else {
		// Nothing open; render an empty dashboard.
		return result, nil
	}

	progID := result.Selected.ID

	if count, err := deps.RecordStore.CountByProgramEvent(ctx, progID, domainRecord.EventRegConfirmed); err == nil {
		result.ConfirmedCount = count
	}
	if count, err := deps.RecordStore.CountByProgramEvent(ctx, progID, domainRecord.EventAttended); err == nil {
		result.AttendedCount = count
	}

	records, err := deps.RecordStore.ListRecentByProgram(ctx, progID, domainRecord.EventAttended, 200)
	if err != nil {
		return GetOnsiteDashboardResult{}, err
	}

	today := now.Truncate(24 * time.Hour)
	for _, rec := range records {
		if !rec.CreatedAt.Truncate(24 * time.Hour).Equal(today) {
			continue
		}
		st, err := deps.StudentStore.GetByID(ctx, rec.StudentID)
		if err != nil {
			continue // Skip if student not found
		}
		result.TodayFeed = append(result.TodayFeed, CheckInFeedEntry{
			StudentID:   st.ID,
			StudentName: st.Name,
			GradeLevel:  st.GradeLevel,
			CheckedInAt: rec.CreatedAt,
		})
	}

	return result, nil
}
