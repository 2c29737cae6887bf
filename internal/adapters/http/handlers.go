package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	accountDomain "outreach/internal/domain/account"
	programDomain "outreach/internal/domain/program"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const templatesDir = "internal/adapters/http/templates"

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	email := ""
	if ok {
		role = sess.Role
		email = sess.Email
	}

	funcMap := template.FuncMap{
		"currentRole":  func() string { return role },
		"currentEmail": func() string { return email },
		"isLoggedIn":   func() bool { return role != "" },
		"isAdmin":      func() bool { return role == accountDomain.RoleAdmin },
		"csrfToken":    func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"sortHeaderArgs": func(col, label, activeSort, activeDir, search, status string, perPage int) map[string]string {
			nextDir := "asc"
			if col == activeSort && activeDir == "asc" {
				nextDir = "desc"
			}
			return map[string]string{
				"Col": col, "Label": label,
				"ActiveSort": activeSort, "ActiveDir": activeDir, "NextDir": nextDir,
				"Search": search, "Status": status,
				"PerPage": fmt.Sprintf("%d", perPage),
			}
		},
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// homeFor maps a role to its landing page.
func homeFor(role string) string {
	switch role {
	case accountDomain.RoleAdmin:
		return "/admin"
	case accountDomain.RoleOnsite:
		return "/onsite"
	default:
		return "/catalog"
	}
}

// handleHome sends each role to its landing page.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, homeFor(sess.Role), http.StatusSeeOther)
}

// handleHealthz handles GET /healthz for liveness probes.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		// If already logged in, go straight to the landing page
		if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, homeFor(sess.Role), http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{
			"CSRFToken": csrf.Token(r),
		})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.LoginInput{
			Email:    r.FormValue("Email"),
			Password: r.FormValue("Password"),
		}

		deps := orchestrators.LoginDeps{
			AccountStore: stores.AccountStore,
		}

		result, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
		if err != nil {
			renderTemplate(w, r, "login.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"Error":     err.Error(),
			})
			return
		}

		token, err := sessions.Create(result.AccountID, result.Email, result.Role)
		if err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}

		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, homeFor(result.Role), http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Delete session
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil {
		sessions.Delete(cookie.Value)
	}

	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleChangePassword handles GET (form) and POST (update) for /password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == "GET" {
		renderTemplate(w, r, "password.html", map[string]any{
			"CSRFToken": csrf.Token(r),
		})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Form error", http.StatusBadRequest)
			return
		}

		input := orchestrators.ChangePasswordInput{
			AccountID:       session.AccountID,
			CurrentPassword: r.FormValue("CurrentPassword"),
			NewPassword:     r.FormValue("NewPassword"),
		}

		// Validate confirm matches
		if r.FormValue("NewPassword") != r.FormValue("ConfirmPassword") {
			renderTemplate(w, r, "password.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"Error":     "New passwords do not match",
			})
			return
		}

		deps := orchestrators.ChangePasswordDeps{
			AccountStore: stores.AccountStore,
		}

		if err := orchestrators.ExecuteChangePassword(r.Context(), input, deps); err != nil {
			renderTemplate(w, r, "password.html", map[string]any{
				"CSRFToken": csrf.Token(r),
				"Error":     err.Error(),
			})
			return
		}

		http.Redirect(w, r, homeFor(session.Role), http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleCatalog handles GET /catalog: open programs with their sections.
// Anyone may browse; starring needs a logged-in student profile.
func handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())

	query := projections.GetCatalogQuery{AccountID: sess.AccountID}
	deps := projections.GetCatalogDeps{
		ProgramStore:  stores.ProgramStore,
		SectionStore:  stores.SectionStore,
		InterestStore: stores.InterestStore,
		StudentStore:  stores.StudentStore,
	}

	result, err := projections.QueryGetCatalog(r.Context(), query, deps)
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "catalog.html", result)
}

// handleStarSection handles POST /api/sections/star
func handleStarSection(w http.ResponseWriter, r *http.Request) {
	starOrUnstar(w, r, orchestrators.ExecuteStarSection)
}

// handleUnstarSection handles POST /api/sections/unstar
func handleUnstarSection(w http.ResponseWriter, r *http.Request) {
	starOrUnstar(w, r, orchestrators.ExecuteUnstarSection)
}

// starOrUnstar runs one of the star orchestrators and translates its
// outcomes for the catalog page's fetch calls.
func starOrUnstar(w http.ResponseWriter, r *http.Request, exec func(context.Context, orchestrators.StarSectionInput, orchestrators.StarSectionDeps) (orchestrators.StarSectionResult, error)) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var body struct {
		SectionID string `json:"section_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	input := orchestrators.StarSectionInput{
		AccountID: sess.AccountID,
		SectionID: body.SectionID,
	}
	deps := orchestrators.StarSectionDeps{
		StudentStore:  stores.StudentStore,
		SectionStore:  stores.SectionStore,
		ProgramStore:  stores.ProgramStore,
		InterestStore: stores.InterestStore,
	}

	result, err := exec(r.Context(), input, deps)
	switch {
	case errors.Is(err, orchestrators.ErrStarLimit):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error":      err.Error(),
			"star_count": result.StarCount,
			"star_limit": result.StarLimit,
		})
		return
	case errors.Is(err, orchestrators.ErrNoStudentProfile):
		http.Error(w, "no student profile for this account", http.StatusForbidden)
		return
	case errors.Is(err, programDomain.ErrNotOpen):
		http.Error(w, "program is not open", http.StatusConflict)
		return
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "unknown section", http.StatusNotFound)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"starred":    result.Starred,
		"star_count": result.StarCount,
		"star_limit": result.StarLimit,
	})
}

// confirmErrorMessages maps the short codes the confirm redirect carries
// back to user-facing text on the registration page.
var confirmErrorMessages = map[string]string{
	"not_open":   "That program is not open for registration.",
	"no_profile": "This account has no student profile.",
	"not_found":  "Unknown program.",
}

// handleRegistrationStatus handles GET /registration: the student's starred
// sections and confirmation state per program.
func handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	query := projections.GetRegistrationStatusQuery{AccountID: sess.AccountID}
	deps := projections.GetRegistrationStatusDeps{
		StudentStore:  stores.StudentStore,
		ProgramStore:  stores.ProgramStore,
		SectionStore:  stores.SectionStore,
		InterestStore: stores.InterestStore,
		RecordStore:   stores.RecordStore,
	}

	result, err := projections.QueryGetRegistrationStatus(r.Context(), query, deps)
	if errors.Is(err, projections.ErrNoProfile) {
		renderTemplate(w, r, "registration.html", map[string]any{"NoProfile": true})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	data := map[string]any{"Programs": result.Programs}
	if msg, ok := confirmErrorMessages[r.URL.Query().Get("error")]; ok {
		data["Error"] = msg
	}
	renderTemplate(w, r, "registration.html", data)
}

// handleConfirmRegistration handles /programs/{slug}/confirm.
// GET never confirms: email scanners follow links, so the GET only
// redirects to the registration page where the real button lives.
// POST performs the idempotent confirmation and emails the section list.
func handleConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		http.Redirect(w, r, "/registration", http.StatusFound)
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	input := orchestrators.ConfirmRegistrationInput{
		AccountID:   sess.AccountID,
		ProgramSlug: r.PathValue("slug"),
	}
	deps := orchestrators.ConfirmRegistrationDeps{
		AccountStore:  stores.AccountStore,
		StudentStore:  stores.StudentStore,
		ProgramStore:  stores.ProgramStore,
		RecordStore:   stores.RecordStore,
		InterestStore: stores.InterestStore,
		SectionStore:  stores.SectionStore,
		EmailStore:    stores.EmailStore,
		OutboxStore:   stores.OutboxStore,
		EmailSender:   emailSender,
		FromAddress:   emailFromAddress,
		ReplyTo:       emailReplyTo,
	}

	_, err := orchestrators.ExecuteConfirmRegistration(r.Context(), input, deps)
	switch {
	case errors.Is(err, orchestrators.ErrNoStudentProfile):
		http.Redirect(w, r, "/registration?error=no_profile", http.StatusSeeOther)
		return
	case errors.Is(err, programDomain.ErrNotOpen):
		http.Redirect(w, r, "/registration?error=not_open", http.StatusSeeOther)
		return
	case errors.Is(err, sql.ErrNoRows):
		http.Redirect(w, r, "/registration?error=not_found", http.StatusSeeOther)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/registration", http.StatusSeeOther)
}

// handleOnsite handles GET /onsite: the check-in desk dashboard.
func handleOnsite(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if sess.Role != accountDomain.RoleOnsite && sess.Role != accountDomain.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	query := projections.GetOnsiteDashboardQuery{
		ProgramSlug: r.URL.Query().Get("program"),
	}
	deps := projections.GetOnsiteDashboardDeps{
		ProgramStore: stores.ProgramStore,
		RecordStore:  stores.RecordStore,
		StudentStore: stores.StudentStore,
	}

	result, err := projections.QueryGetOnsiteDashboard(r.Context(), query, deps, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "onsite.html", result)
}

// handleCheckInAPI handles POST /api/checkin from the onsite desk.
// Every recognised outcome, typos included, is a 200 with a message the
// desk shows verbatim; non-200s are reserved for transport problems.
func handleCheckInAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if sess.Role != accountDomain.RoleOnsite && sess.Role != accountDomain.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var body struct {
		ID      string `json:"id"`
		Program string `json:"program"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	input := orchestrators.CheckInStudentInput{
		RawID:       body.ID,
		ProgramSlug: body.Program,
	}
	deps := orchestrators.CheckInStudentDeps{
		AccountStore: stores.AccountStore,
		StudentStore: stores.StudentStore,
		ProgramStore: stores.ProgramStore,
		RecordStore:  stores.RecordStore,
	}

	result, err := orchestrators.ExecuteCheckInStudent(r.Context(), input, deps)
	if errors.Is(err, sql.ErrNoRows) {
		// The desk page always posts a real slug; this is a stale tab.
		http.Error(w, "unknown program", http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": result.Message})
}

// handleMediaFile serves uploaded files under /media/. Only files with a
// media row are served; the row carries the content type recorded at
// upload time.
func handleMediaFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/media/")
	if rel == "" {
		http.NotFound(w, r)
		return
	}

	mf, err := stores.MediaStore.GetByPath(r.Context(), rel)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	f, err := stores.MediaFiles.Open(r.Context(), mf.Path)
	if err != nil {
		// Row exists but the bytes are gone; treat as missing.
		slog.Warn("media_file_missing", "path", mf.Path, "error", err)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	if mf.ContentType != "" {
		w.Header().Set("Content-Type", mf.ContentType)
	}
	io.Copy(w, f)
}
