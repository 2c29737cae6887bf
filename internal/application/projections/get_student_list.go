package projections

import (
	"context"

	"outreach/internal/adapters/storage/student"
	"outreach/internal/application/listutil"
	domainStudent "outreach/internal/domain/student"
)

// StudentListSortColumns are the columns the student list accepts for sorting.
var StudentListSortColumns = []string{"name", "grade_level", "status", "created_at"}

// StudentRow is one row of the admin student list.
type StudentRow struct {
	Student  domainStudent.Student
	Email    string
	IDNumber int64
}

// GetStudentListResult carries the query result.
type GetStudentListResult struct {
	Rows []StudentRow
	Page listutil.PageInfo
}

// GetStudentListDeps holds dependencies for GetStudentList.
type GetStudentListDeps struct {
	StudentStore StudentStore
	AccountStore AccountStore
}

// QueryGetStudentList retrieves one page of students with their account
// email and check-in number. A student whose account row is missing still
// renders, with the account columns blank.
// PRE: params parsed through listutil (sort column already whitelisted)
// POST: Page reflects the filtered total, not the table size
func QueryGetStudentList(ctx context.Context, params listutil.ListParams, deps GetStudentListDeps) (GetStudentListResult, error) {
	filter := student.ListFilter{
		Status: params.Filters["status"],
		Search: params.Search,
		Sort:   params.Sort,
		Dir:    params.Dir,
	}

	total, err := deps.StudentStore.Count(ctx, filter)
	if err != nil {
		return GetStudentListResult{}, err
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)

	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	students, err := deps.StudentStore.List(ctx, filter)
	if err != nil {
		return GetStudentListResult{}, err
	}

	rows := make([]StudentRow, 0, len(students))
	for _, st := range students {
		row := StudentRow{Student: st}
		if acct, err := deps.AccountStore.GetByID(ctx, st.AccountID); err == nil {
			row.Email = acct.Email
			row.IDNumber = acct.IDNumber
		}
		rows = append(rows, row)
	}

	return GetStudentListResult{Rows: rows, Page: page}, nil
}
