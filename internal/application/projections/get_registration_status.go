package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"outreach/internal/adapters/storage/program"
	domainProgram "outreach/internal/domain/program"
	domainRecord "outreach/internal/domain/record"
	domainSection "outreach/internal/domain/section"
)

// GetRegistrationStatusQuery carries query parameters.
type GetRegistrationStatusQuery struct {
	AccountID string
}

// RegistrationProgramStatus is one program's registration state for a student.
type RegistrationProgramStatus struct {
	Program     domainProgram.Program
	Starred     []domainSection.Section // in the order the student starred them
	Confirmed   bool
	ConfirmedAt time.Time
	Attended    bool
}

// GetRegistrationStatusResult carries the query result.
type GetRegistrationStatusResult struct {
	StudentID   string
	StudentName string
	Programs    []RegistrationProgramStatus
}

// ErrNoProfile is returned when the account has no student profile attached.
var ErrNoProfile = errors.New("account has no student profile")

// RegistrationRecordStore extends RecordStore with the key lookup used to
// surface the confirmation timestamp.
type RegistrationRecordStore interface {
	RecordStore
	GetByKey(ctx context.Context, studentID, programID, event string) (domainRecord.Record, error)
}

// GetRegistrationStatusDeps holds dependencies for GetRegistrationStatus.
type GetRegistrationStatusDeps struct {
	StudentStore  StudentStore
	ProgramStore  ProgramStore
	SectionStore  SectionStore
	InterestStore InterestStore
	RecordStore   RegistrationRecordStore
}

// QueryGetRegistrationStatus retrieves the student's starred sections and
// confirmation state for every open program. Closed programs where the
// student holds a confirmation are included so the page keeps showing what
// they signed up for after registration ends.
// PRE: AccountID resolves to a student profile
// POST: Starred sections ordered by starring time
func QueryGetRegistrationStatus(ctx context.Context, query GetRegistrationStatusQuery, deps GetRegistrationStatusDeps) (GetRegistrationStatusResult, error) {
	st, err := deps.StudentStore.GetByAccountID(ctx, query.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetRegistrationStatusResult{}, ErrNoProfile
		}
		return GetRegistrationStatusResult{}, err
	}

	result := GetRegistrationStatusResult{
		StudentID:   st.ID,
		StudentName: st.Name,
	}

	programs, err := deps.ProgramStore.List(ctx, program.ListFilter{Limit: 50})
	if err != nil {
		return GetRegistrationStatusResult{}, err
	}

	for _, prog := range programs {
		status := RegistrationProgramStatus{Program: prog}

		interests, err := deps.InterestStore.ListByStudentProgram(ctx, st.ID, prog.ID)
		if err != nil {
			return GetRegistrationStatusResult{}, err
		}
		if len(interests) > 0 {
			ids := make([]string, len(interests))
			for i, in := range interests {
				ids[i] = in.SectionID
			}
			sections, err := deps.SectionStore.ListByIDs(ctx, ids)
			if err != nil {
				return GetRegistrationStatusResult{}, err
			}
			byID := make(map[string]domainSection.Section, len(sections))
			for _, sec := range sections {
				byID[sec.ID] = sec
			}
			for _, id := range ids {
				if sec, ok := byID[id]; ok {
					status.Starred = append(status.Starred, sec)
				}
			}
		}

		if rec, err := deps.RecordStore.GetByKey(ctx, st.ID, prog.ID, domainRecord.EventRegConfirmed); err == nil {
			status.Confirmed = true
			status.ConfirmedAt = rec.CreatedAt
		}
		if ok, err := deps.RecordStore.Exists(ctx, st.ID, prog.ID, domainRecord.EventAttended); err == nil && ok {
			status.Attended = true
		}

		// Skip programs the student has no relationship with unless they
		// are open for registration right now.
		if !prog.IsOpen() && len(status.Starred) == 0 && !status.Confirmed {
			continue
		}

		result.Programs = append(result.Programs, status)
	}

	return result, nil
}
