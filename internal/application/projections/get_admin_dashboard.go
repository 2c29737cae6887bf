package projections

import (
	"context"

	"outreach/internal/adapters/storage/audit"
	"outreach/internal/adapters/storage/program"
	"outreach/internal/adapters/storage/student"
	domainAudit "outreach/internal/domain/audit"
	domainEmail "outreach/internal/domain/email"
	domainOutbox "outreach/internal/domain/outbox"
	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
	domainStudent "outreach/internal/domain/student"
)

// AdminDashboardAuditStore defines the audit store interface needed by the dashboard projection.
type AdminDashboardAuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit int) ([]domainAudit.Event, error)
}

// AdminDashboardEmailStore defines the email store interface needed by the dashboard projection.
type AdminDashboardEmailStore interface {
	CountByStatus(ctx context.Context, status string) (int, error)
}

// AdminDashboardOutboxStore defines the outbox store interface needed by the dashboard projection.
type AdminDashboardOutboxStore interface {
	CountByStatus(ctx context.Context, status string) (int, error)
}

// AdminDashboardSectionStore defines the section store interface needed by the dashboard projection.
type AdminDashboardSectionStore interface {
	SectionStore
	CountByProgram(ctx context.Context, programID string) (int, error)
}

// ProgramBreakdown is one program row of the admin dashboard table.
type ProgramBreakdown struct {
	Program        domainProgram.Program
	SectionCount   int
	StarCount      int
	ConfirmedCount int
	AttendedCount  int
}

// GetAdminDashboardResult carries the query result.
type GetAdminDashboardResult struct {
	ActiveStudents   int
	ArchivedStudents int
	TotalConfirmed   int
	TotalAttended    int

	Breakdown []ProgramBreakdown

	EmailsSent   int
	EmailsFailed int
	OutboxOpen   int // pending + retrying entries awaiting the worker

	RecentActivity []domainAudit.Event
}

// GetAdminDashboardDeps holds dependencies for GetAdminDashboard.
type GetAdminDashboardDeps struct {
	StudentStore  StudentStore
	ProgramStore  ProgramStore
	SectionStore  AdminDashboardSectionStore
	InterestStore InterestStore
	RecordStore   RecordStore
	EmailStore    AdminDashboardEmailStore // optional: nil skips email panel
	OutboxStore   AdminDashboardOutboxStore
	AuditStore    AdminDashboardAuditStore // optional: nil skips activity feed
}

// QueryGetAdminDashboard aggregates the admin landing page: headline counts,
// a per-program breakdown, email and outbox health, and recent audit
// activity. Panel errors zero the panel rather than failing the page.
func QueryGetAdminDashboard(ctx context.Context, deps GetAdminDashboardDeps) (GetAdminDashboardResult, error) {
	result := GetAdminDashboardResult{}

	if count, err := deps.StudentStore.Count(ctx, student.ListFilter{Status: domainStudent.StatusActive}); err == nil {
		result.ActiveStudents = count
	}
	if count, err := deps.StudentStore.Count(ctx, student.ListFilter{Status: domainStudent.StatusArchived}); err == nil {
		result.ArchivedStudents = count
	}

	programs, err := deps.ProgramStore.List(ctx, program.ListFilter{Limit: 100})
	if err != nil {
		return GetAdminDashboardResult{}, err
	}

	for _, prog := range programs {
		row := ProgramBreakdown{Program: prog}

		if count, err := deps.SectionStore.CountByProgram(ctx, prog.ID); err == nil {
			row.SectionCount = count
		}
		if sections, err := deps.SectionStore.ListByProgram(ctx, prog.ID); err == nil {
			for _, sec := range sections {
				if count, err := deps.InterestStore.CountBySection(ctx, sec.ID); err == nil {
					row.StarCount += count
				}
			}
		}
		if count, err := deps.RecordStore.CountByProgramEvent(ctx, prog.ID, domainRecord.EventRegConfirmed); err == nil {
			row.ConfirmedCount = count
			result.TotalConfirmed += count
		}
		if count, err := deps.RecordStore.CountByProgramEvent(ctx, prog.ID, domainRecord.EventAttended); err == nil {
			row.AttendedCount = count
			result.TotalAttended += count
		}

		result.Breakdown = append(result.Breakdown, row)
	}

	if deps.EmailStore != nil {
		if count, err := deps.EmailStore.CountByStatus(ctx, domainEmail.StatusSent); err == nil {
			result.EmailsSent = count
		}
		if count, err := deps.EmailStore.CountByStatus(ctx, domainEmail.StatusFailed); err == nil {
			result.EmailsFailed = count
		}
	}
	if deps.OutboxStore != nil {
		if count, err := deps.OutboxStore.CountByStatus(ctx, domainOutbox.StatusPending); err == nil {
			result.OutboxOpen += count
		}
		if count, err := deps.OutboxStore.CountByStatus(ctx, domainOutbox.StatusRetrying); err == nil {
			result.OutboxOpen += count
		}
	}

	if deps.AuditStore != nil {
		if events, err := deps.AuditStore.List(ctx, audit.Filter{}, 10); err == nil {
			result.RecentActivity = events
		}
	}

	return result, nil
}
