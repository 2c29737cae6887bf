package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/http/perf"
	"outreach/internal/application/listutil"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
)

// requireAdmin checks that the request carries an admin session. Meant for
// form actions and API calls; page handlers use requireAdminPage so a
// logged-out browser lands on the login form instead of a bare 401.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	if sess.Role != "admin" {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role, "required", "admin")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdminPage is the page-navigation variant of requireAdmin.
func requireAdminPage(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return middleware.Session{}, false
	}
	if sess.Role != "admin" {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role, "required", "admin")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// handleAdminDashboard handles GET /admin
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdminPage(w, r); !ok {
		return
	}

	result, err := projections.QueryGetAdminDashboard(r.Context(), projections.GetAdminDashboardDeps{
		StudentStore:  stores.StudentStore,
		ProgramStore:  stores.ProgramStore,
		SectionStore:  stores.SectionStore,
		InterestStore: stores.InterestStore,
		RecordStore:   stores.RecordStore,
		EmailStore:    stores.EmailStore,
		OutboxStore:   stores.OutboxStore,
		AuditStore:    stores.AuditStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	var snap perf.Snapshot
	if perfCollector != nil {
		snap = perfCollector.Snapshot(timeNow().Add(-time.Hour), 5)
	}

	renderTemplate(w, r, "admin_dashboard.html", map[string]any{
		"Dash": result,
		"Perf": snap,
	})
}

// handleAdminStudents handles both GET (list) and POST (register) for
// /admin/students.
func handleAdminStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	isHTML := isHTMLRequest(r)

	if r.Method == "GET" {
		var ok bool
		if isHTML {
			_, ok = requireAdminPage(w, r)
		} else {
			_, ok = requireAdmin(w, r)
		}
		if !ok {
			return
		}

		lp := listutil.ParseListParams(r.URL.Query(),
			projections.StudentListSortColumns,
			[]string{"status"},
		)

		result, err := projections.QueryGetStudentList(ctx, lp, projections.GetStudentListDeps{
			StudentStore: stores.StudentStore,
			AccountStore: stores.AccountStore,
		})
		if err != nil {
			internalError(w, err)
			return
		}

		if isHTML {
			renderTemplate(w, r, "admin_students.html", map[string]any{
				"Rows":           result.Rows,
				"Page":           result.Page,
				"Sort":           lp.Sort,
				"Dir":            lp.Dir,
				"Search":         lp.Search,
				"Status":         lp.Filters["status"],
				"PerPage":        lp.PerPage,
				"PerPageOptions": listutil.PerPageOptions,
				"Created":        r.URL.Query().Get("created"),
				"Error":          r.URL.Query().Get("error"),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
		return
	}

	if r.Method == "POST" {
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.RegisterStudentInput{
			Name:       r.FormValue("name"),
			GradeLevel: r.FormValue("grade_level"),
			Email:      r.FormValue("email"),
			Password:   r.FormValue("password"),
			ActorID:    sess.AccountID,
			ActorEmail: sess.Email,
		}
		result, err := orchestrators.ExecuteRegisterStudent(ctx, input, orchestrators.RegisterStudentDeps{
			AccountStore: stores.AccountStore,
			StudentStore: stores.StudentStore,
			AuditStore:   stores.AuditStore,
			GenerateID:   generateID,
			Now:          timeNow,
		})
		if err != nil {
			// Validation failures (short password, taken email) carry
			// messages the admin can act on, so surface them on the list
			// page instead of a bare 500.
			http.Redirect(w, r, "/admin/students?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/admin/students?created="+strconv.FormatInt(result.IDNumber, 10), http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleAdminStudentArchive handles POST /admin/students/archive
func handleAdminStudentArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteArchiveStudent(r.Context(), orchestrators.ArchiveStudentInput{
		StudentID:  r.FormValue("student_id"),
		ActorID:    sess.AccountID,
		ActorEmail: sess.Email,
	}, orchestrators.ArchiveStudentDeps{
		StudentStore: stores.StudentStore,
		AuditStore:   stores.AuditStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
}

// handleAdminStudentRestore handles POST /admin/students/restore
func handleAdminStudentRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteRestoreStudent(r.Context(), orchestrators.RestoreStudentInput{
		StudentID:  r.FormValue("student_id"),
		ActorID:    sess.AccountID,
		ActorEmail: sess.Email,
	}, orchestrators.ArchiveStudentDeps{
		StudentStore: stores.StudentStore,
		AuditStore:   stores.AuditStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
}
