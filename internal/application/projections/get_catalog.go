package projections

import (
	"context"
	"database/sql"
	"errors"

	"outreach/internal/adapters/storage/program"
	domainProgram "outreach/internal/domain/program"
	domainSection "outreach/internal/domain/section"
)

// GetCatalogQuery carries query parameters.
type GetCatalogQuery struct {
	AccountID string // optional, empty renders the catalog without star state
}

// CatalogSection is one section row with the viewer's star state.
type CatalogSection struct {
	Section   domainSection.Section
	Starred   bool
	StarCount int // stars across all students, a rough popularity signal
}

// CatalogProgram is one open program with its sections.
type CatalogProgram struct {
	Program   domainProgram.Program
	Sections  []CatalogSection
	StarsUsed int
	StarLimit int
}

// GetCatalogResult carries the query result.
type GetCatalogResult struct {
	Programs []CatalogProgram
	// HasProfile is false when the account has no student profile; the
	// catalog still renders but starring is disabled.
	HasProfile bool
}

// GetCatalogDeps holds dependencies for GetCatalog.
type GetCatalogDeps struct {
	ProgramStore  ProgramStore
	SectionStore  SectionStore
	InterestStore InterestStore
	StudentStore  StudentStore
}

// QueryGetCatalog retrieves all open programs with their sections, marked
// with the viewing student's stars and remaining star budget.
// PRE: Valid query parameters
// POST: Returns open programs ordered as the store lists them
func QueryGetCatalog(ctx context.Context, query GetCatalogQuery, deps GetCatalogDeps) (GetCatalogResult, error) {
	programs, err := deps.ProgramStore.List(ctx, program.ListFilter{
		Status: domainProgram.StatusOpen,
		Limit:  50,
	})
	if err != nil {
		return GetCatalogResult{}, err
	}

	result := GetCatalogResult{}

	studentID := ""
	if query.AccountID != "" {
		st, err := deps.StudentStore.GetByAccountID(ctx, query.AccountID)
		if err == nil {
			studentID = st.ID
			result.HasProfile = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return GetCatalogResult{}, err
		}
	}

	for _, prog := range programs {
		cp := CatalogProgram{
			Program:   prog,
			StarLimit: prog.StarsPerStudent,
		}

		starred := map[string]bool{}
		if studentID != "" {
			interests, err := deps.InterestStore.ListByStudentProgram(ctx, studentID, prog.ID)
			if err != nil {
				return GetCatalogResult{}, err
			}
			for _, in := range interests {
				starred[in.SectionID] = true
			}
			cp.StarsUsed = len(interests)
		}

		sections, err := deps.SectionStore.ListByProgram(ctx, prog.ID)
		if err != nil {
			return GetCatalogResult{}, err
		}
		for _, sec := range sections {
			cs := CatalogSection{
				Section: sec,
				Starred: starred[sec.ID],
			}
			if count, err := deps.InterestStore.CountBySection(ctx, sec.ID); err == nil {
				cs.StarCount = count
			}
			cp.Sections = append(cp.Sections, cs)
		}

		result.Programs = append(result.Programs, cp)
	}

	return result, nil
}
