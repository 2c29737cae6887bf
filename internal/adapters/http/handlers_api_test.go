package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"outreach/internal/adapters/http/middleware"

	emailAdapter "outreach/internal/adapters/email"
	accountDomain "outreach/internal/domain/account"
	emailDomain "outreach/internal/domain/email"
	mediafileDomain "outreach/internal/domain/mediafile"
	outboxDomain "outreach/internal/domain/outbox"
	programDomain "outreach/internal/domain/program"
	sectionDomain "outreach/internal/domain/section"
	studentDomain "outreach/internal/domain/student"
)

// --- Tests: /api/checkin ---

// TestHandleCheckInAPI_Unauthenticated tests the corresponding handler.
func TestHandleCheckInAPI_Unauthenticated(t *testing.T) {
	stores = newFullStores()
	req := httptest.NewRequest("POST", "/api/checkin", strings.NewReader(`{"id":"1042","program":"science-fair"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestHandleCheckInAPI_StudentForbidden tests that students cannot work
// the desk.
func TestHandleCheckInAPI_StudentForbidden(t *testing.T) {
	stores = newFullStores()
	req := authRequest("POST", "/api/checkin", `{"id":"1042","program":"science-fair"}`, studentSession)
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// TestHandleCheckInAPI_Messages walks the desk outcomes in order: bad
// input, unknown number, number without a student, first check-in, and
// the repeat.
func TestHandleCheckInAPI_Messages(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	ctx := context.Background()

	// An account with no student profile behind it
	if err := stores.AccountStore.Save(ctx, accountDomain.Account{
		ID: "acct-orphan", Email: "orphan@outreach.test",
		Role: accountDomain.RoleStudent, IDNumber: 2000, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed orphan account: %v", err)
	}

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"non numeric", "12ab", "12ab is not a valid user ID (must be numeric)"},
		{"unknown number", "9999", "9999 is not a user"},
		{"no student profile", "2000", "2000 is not a student"},
		{"first check-in", "1042", "Rima Te Kanawa is now checked in"},
		{"repeat check-in", "1042", "Rima Te Kanawa is already checked in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"id":%q,"program":"science-fair"}`, tt.id)
			req := authRequest("POST", "/api/checkin", body, onsiteSession)
			rec := httptest.NewRecorder()
			handleCheckInAPI(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
			}
			var resp struct {
				Message string `json:"message"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Message != tt.want {
				t.Errorf("got message %q, want %q", resp.Message, tt.want)
			}
		})
	}
}

// TestHandleCheckInAPI_ArchivedStudent tests that archived students read
// as not-a-student at the desk.
func TestHandleCheckInAPI_ArchivedStudent(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	if err := stores.StudentStore.Save(context.Background(), studentDomain.Student{
		ID: "stu-1", AccountID: studentSession.AccountID, Name: "Rima Te Kanawa",
		GradeLevel: "7", Status: studentDomain.StatusArchived, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("archive student: %v", err)
	}

	req := authRequest("POST", "/api/checkin", `{"id":"1042","program":"science-fair"}`, onsiteSession)
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "1042 is not a student" {
		t.Errorf("got message %q, want %q", resp.Message, "1042 is not a student")
	}
}

// TestHandleCheckInAPI_UnknownProgram tests the stale-tab case.
func TestHandleCheckInAPI_UnknownProgram(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	req := authRequest("POST", "/api/checkin", `{"id":"1042","program":"winter-gala"}`, adminSession)
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandleCheckInAPI_RejectsUnknownFields tests the strict decoder.
func TestHandleCheckInAPI_RejectsUnknownFields(t *testing.T) {
	stores = newFullStores()
	req := authRequest("POST", "/api/checkin", `{"id":"1042","program":"science-fair","extra":true}`, onsiteSession)
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandleCheckInAPI_MethodNotAllowed tests the corresponding handler.
func TestHandleCheckInAPI_MethodNotAllowed(t *testing.T) {
	stores = newFullStores()
	req := authRequest("GET", "/api/checkin", "", onsiteSession)
	rec := httptest.NewRecorder()
	handleCheckInAPI(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

// --- Tests: /api/sections/star and /api/sections/unstar ---

type starResponse struct {
	Starred   bool   `json:"starred"`
	StarCount int    `json:"star_count"`
	StarLimit int    `json:"star_limit"`
	Error     string `json:"error"`
}

func postStar(t *testing.T, handler http.HandlerFunc, sectionID string, sess middleware.Session) (*httptest.ResponseRecorder, starResponse) {
	t.Helper()
	req := authRequest("POST", "/api/sections/star", fmt.Sprintf(`{"section_id":%q}`, sectionID), sess)
	rec := httptest.NewRecorder()
	handler(rec, req)
	var resp starResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

// TestHandleStarSection_Success tests the corresponding handler.
func TestHandleStarSection_Success(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	if err := stores.SectionStore.Save(context.Background(), sectionDomain.Section{
		ID: "sec-3", ProgramID: "prog-1", Title: "Chemistry", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed section: %v", err)
	}

	rec, resp := postStar(t, handleStarSection, "sec-3", studentSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !resp.Starred {
		t.Error("expected starred true")
	}
	if resp.StarCount != 3 || resp.StarLimit != 3 {
		t.Errorf("got count %d limit %d, want 3 and 3", resp.StarCount, resp.StarLimit)
	}
}

// TestHandleStarSection_LimitReached tests the 409 when the program's star
// budget is spent.
func TestHandleStarSection_LimitReached(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	ctx := context.Background()
	for _, id := range []string{"sec-3", "sec-4"} {
		if err := stores.SectionStore.Save(ctx, sectionDomain.Section{
			ID: id, ProgramID: "prog-1", Title: "Extra " + id, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("seed section: %v", err)
		}
	}
	// Third star uses up the budget
	if rec, _ := postStar(t, handleStarSection, "sec-3", studentSession); rec.Code != http.StatusOK {
		t.Fatalf("third star: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec, resp := postStar(t, handleStarSection, "sec-4", studentSession)
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusConflict, rec.Body.String())
	}
	if resp.Error == "" {
		t.Error("expected error message in body")
	}
	if resp.StarCount != 3 || resp.StarLimit != 3 {
		t.Errorf("got count %d limit %d, want 3 and 3", resp.StarCount, resp.StarLimit)
	}
}

// TestHandleStarSection_Idempotent tests that re-starring a starred
// section reports success without growing the count.
func TestHandleStarSection_Idempotent(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)

	rec, resp := postStar(t, handleStarSection, "sec-1", studentSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !resp.Starred {
		t.Error("expected starred true")
	}
	if resp.StarCount != 2 {
		t.Errorf("got count %d, want 2", resp.StarCount)
	}
}

// TestHandleStarSection_RequiresLogin tests the corresponding handler.
func TestHandleStarSection_RequiresLogin(t *testing.T) {
	stores = newFullStores()
	req := httptest.NewRequest("POST", "/api/sections/star", strings.NewReader(`{"section_id":"sec-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handleStarSection(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestHandleStarSection_NoProfile tests starring from an account with no
// student profile.
func TestHandleStarSection_NoProfile(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	other := middleware.Session{AccountID: "acct-other", Email: "other@outreach.test", Role: "student", CreatedAt: time.Now()}

	rec, _ := postStar(t, handleStarSection, "sec-1", other)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// TestHandleStarSection_UnknownSection tests the corresponding handler.
func TestHandleStarSection_UnknownSection(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)

	rec, _ := postStar(t, handleStarSection, "sec-nope", studentSession)
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestHandleStarSection_ClosedProgram tests the corresponding handler.
func TestHandleStarSection_ClosedProgram(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	if err := stores.ProgramStore.Save(context.Background(), programDomain.Program{
		ID: "prog-1", Name: "Science Fair", Slug: "science-fair",
		Status: programDomain.StatusClosed, StarsPerStudent: 3, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("close program: %v", err)
	}

	rec, _ := postStar(t, handleStarSection, "sec-1", studentSession)
	if rec.Code != http.StatusConflict {
		t.Errorf("got %d, want %d", rec.Code, http.StatusConflict)
	}
}

// TestHandleUnstarSection_RemovesStar tests the corresponding handler.
func TestHandleUnstarSection_RemovesStar(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)

	rec, resp := postStar(t, handleUnstarSection, "sec-1", studentSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if resp.Starred {
		t.Error("expected starred false")
	}
	if resp.StarCount != 1 {
		t.Errorf("got count %d, want 1", resp.StarCount)
	}
	starred, _ := stores.InterestStore.IsStarred(context.Background(), "stu-1", "sec-1")
	if starred {
		t.Error("star still present after unstar")
	}
}

// --- Tests: /admin/students ---

// TestHandleAdminStudents_JSONList tests the JSON mode of the list.
func TestHandleAdminStudents_JSONList(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)

	req := authRequest("GET", "/admin/students", "", adminSession)
	rec := httptest.NewRecorder()
	handleAdminStudents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	var result struct {
		Rows []json.RawMessage
		Page struct{ Total int }
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(result.Rows))
	}
	if result.Page.Total != 1 {
		t.Errorf("got total %d, want 1", result.Page.Total)
	}
}

// TestHandleAdminStudents_POST_CreatesStudent tests registration through
// the admin form.
func TestHandleAdminStudents_POST_CreatesStudent(t *testing.T) {
	stores = newFullStores()

	form := url.Values{
		"name":        []string{"Hemi Walker"},
		"grade_level": []string{"8"},
		"email":       []string{"hemi@outreach.test"},
		"password":    []string{"a-long-enough-password"},
	}
	req := formRequest("/admin/students", form, adminSession)
	rec := httptest.NewRecorder()
	handleAdminStudents(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/admin/students?created=") {
		t.Fatalf("got redirect %q, want created banner", loc)
	}

	ctx := context.Background()
	acct, err := stores.AccountStore.GetByEmail(ctx, "hemi@outreach.test")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if acct.Role != accountDomain.RoleStudent {
		t.Errorf("got role %q, want %q", acct.Role, accountDomain.RoleStudent)
	}
	if acct.IDNumber == 0 {
		t.Error("account has no allocated id number")
	}
	if !strings.HasSuffix(loc, fmt.Sprintf("created=%d", acct.IDNumber)) {
		t.Errorf("redirect %q does not carry id number %d", loc, acct.IDNumber)
	}
	st, err := stores.StudentStore.GetByAccountID(ctx, acct.ID)
	if err != nil {
		t.Fatalf("student profile not created: %v", err)
	}
	if st.Name != "Hemi Walker" || st.Status != studentDomain.StatusActive {
		t.Errorf("unexpected student %+v", st)
	}

	audits := stores.AuditStore.(*mockAuditStore)
	if len(audits.events) == 0 {
		t.Error("expected an audit event for the registration")
	}
}

// TestHandleAdminStudents_POST_DuplicateEmail tests that validation
// failures surface on the list page.
func TestHandleAdminStudents_POST_DuplicateEmail(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)

	form := url.Values{
		"name":        []string{"Second Rima"},
		"grade_level": []string{"7"},
		"email":       []string{studentSession.Email},
		"password":    []string{"a-long-enough-password"},
	}
	req := formRequest("/admin/students", form, adminSession)
	rec := httptest.NewRecorder()
	handleAdminStudents(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("got redirect %q, want error param", loc)
	}
}

// TestHandleAdminStudents_RequiresAdmin tests both auth styles of the
// endpoint.
func TestHandleAdminStudents_RequiresAdmin(t *testing.T) {
	stores = newFullStores()

	// JSON client with the wrong role gets a plain 403
	req := authRequest("GET", "/admin/students", "", studentSession)
	rec := httptest.NewRecorder()
	handleAdminStudents(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student JSON: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Anonymous browser lands on the login form
	req = httptest.NewRequest("GET", "/admin/students", nil)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	handleAdminStudents(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anon HTML: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("anon HTML: got redirect %q, want %q", loc, "/login")
	}
}

// TestHandleAdminStudentArchiveAndRestore tests the archive round trip.
func TestHandleAdminStudentArchiveAndRestore(t *testing.T) {
	stores = newFullStores()
	seedRegistrationWorld(t)
	ctx := context.Background()

	req := formRequest("/admin/students/archive", url.Values{"student_id": []string{"stu-1"}}, adminSession)
	rec := httptest.NewRecorder()
	handleAdminStudentArchive(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("archive: got %d, want %d. Body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	st, _ := stores.StudentStore.GetByID(ctx, "stu-1")
	if st.Status != studentDomain.StatusArchived {
		t.Errorf("got status %q, want %q", st.Status, studentDomain.StatusArchived)
	}

	req = formRequest("/admin/students/restore", url.Values{"student_id": []string{"stu-1"}}, adminSession)
	rec = httptest.NewRecorder()
	handleAdminStudentRestore(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("restore: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	st, _ = stores.StudentStore.GetByID(ctx, "stu-1")
	if st.Status != studentDomain.StatusActive {
		t.Errorf("got status %q, want %q", st.Status, studentDomain.StatusActive)
	}

	audits := stores.AuditStore.(*mockAuditStore)
	if len(audits.events) != 2 {
		t.Errorf("got %d audit events, want 2", len(audits.events))
	}
}

// --- Tests: /admin/media ---

func multipartUpload(t *testing.T, field, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// TestHandleAdminMediaUpload_StoresFileAndRow tests the upload flow.
func TestHandleAdminMediaUpload_StoresFileAndRow(t *testing.T) {
	stores = newFullStores()

	body, contentType := multipartUpload(t, "file", "Poster.PNG", "fake-image-bytes")
	req := httptest.NewRequest("POST", "/admin/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	handleAdminMediaUpload(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/admin/media?uploaded=") {
		t.Errorf("got redirect %q, want uploaded banner", loc)
	}

	ctx := context.Background()
	mf, err := stores.MediaStore.GetByPath(ctx, "uploads/Poster.PNG")
	if err != nil {
		t.Fatalf("media row not saved: %v", err)
	}
	if mf.OriginalName != "Poster.PNG" {
		t.Errorf("got original name %q, want %q", mf.OriginalName, "Poster.PNG")
	}
	f, err := stores.MediaFiles.Open(ctx, mf.Path)
	if err != nil {
		t.Fatalf("stored file not readable: %v", err)
	}
	f.Close()

	audits := stores.AuditStore.(*mockAuditStore)
	if len(audits.events) != 1 {
		t.Errorf("got %d audit events, want 1", len(audits.events))
	}
}

// TestHandleAdminMediaUpload_MissingFile tests the corresponding handler.
func TestHandleAdminMediaUpload_MissingFile(t *testing.T) {
	stores = newFullStores()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest("POST", "/admin/media/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	handleAdminMediaUpload(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("got redirect %q, want error param", loc)
	}
}

// TestHandleAdminMediaDelete_RemovesRowAndBytes tests the delete flow.
func TestHandleAdminMediaDelete_RemovesRowAndBytes(t *testing.T) {
	stores = newFullStores()
	ctx := context.Background()
	if err := stores.MediaStore.Save(ctx, mediafileDomain.MediaFile{
		ID: "med-1", Path: "uploads/old.jpg", OriginalName: "old.jpg",
		ContentType: "image/jpeg", SizeBytes: 4, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed media row: %v", err)
	}
	if _, err := stores.MediaFiles.Save(ctx, "uploads/old.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("seed media bytes: %v", err)
	}

	req := formRequest("/admin/media/delete", url.Values{"media_id": []string{"med-1"}}, adminSession)
	rec := httptest.NewRecorder()
	handleAdminMediaDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if _, err := stores.MediaStore.GetByID(ctx, "med-1"); err == nil {
		t.Error("media row still present after delete")
	}
	if _, err := stores.MediaFiles.Open(ctx, "uploads/old.jpg"); err == nil {
		t.Error("media bytes still present after delete")
	}
}

// TestHandleAdminMedia_RequiresAdmin tests the corresponding handler.
func TestHandleAdminMedia_RequiresAdmin(t *testing.T) {
	stores = newFullStores()
	req := authRequest("GET", "/admin/media", "", onsiteSession)
	rec := httptest.NewRecorder()
	handleAdminMedia(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// --- Tests: /admin/outbox ---

// TestHandleAdminOutboxRetry_SendsQueuedEmail tests a manual retry of a
// failed email entry.
func TestHandleAdminOutboxRetry_SendsQueuedEmail(t *testing.T) {
	stores = newFullStores()
	SetEmailSender(emailAdapter.NewNoopSender(), "noreply@outreach.test", "info@outreach.test")
	ctx := context.Background()

	if err := stores.EmailStore.Save(ctx, emailDomain.Email{
		ID: "em-1", Subject: "Science Fair Lottery Preferences Confirmation",
		Body: "<p>hello</p>", Status: emailDomain.StatusFailed, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed email: %v", err)
	}
	payload := `{"email_id":"em-1","to":["rima@outreach.test"],"from":"noreply@outreach.test","subject":"s","html":"<p>hello</p>","reply_to":""}`
	if err := stores.OutboxStore.Save(ctx, outboxDomain.Entry{
		ID: "ob-1", ActionType: outboxDomain.ActionTypeEmail, Payload: payload,
		Status: outboxDomain.StatusFailed, Attempts: 1, MaxAttempts: 5,
		LastAttemptedAt: time.Now().Add(-time.Hour), CreatedAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed outbox entry: %v", err)
	}

	req := formRequest("/admin/outbox/retry", url.Values{"entry_id": []string{"ob-1"}}, adminSession)
	rec := httptest.NewRecorder()
	handleAdminOutboxRetry(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d. Body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/outbox" {
		t.Errorf("got redirect %q, want %q", loc, "/admin/outbox")
	}

	entry, _ := stores.OutboxStore.GetByID(ctx, "ob-1")
	if entry.Status != outboxDomain.StatusDone {
		t.Errorf("got entry status %q, want %q", entry.Status, outboxDomain.StatusDone)
	}
	em, _ := stores.EmailStore.GetByID(ctx, "em-1")
	if em.Status != emailDomain.StatusSent {
		t.Errorf("got email status %q, want %q", em.Status, emailDomain.StatusSent)
	}
}

// TestHandleAdminOutboxRetry_UnknownEntry tests the corresponding handler.
func TestHandleAdminOutboxRetry_UnknownEntry(t *testing.T) {
	stores = newFullStores()
	SetEmailSender(emailAdapter.NewNoopSender(), "noreply@outreach.test", "info@outreach.test")

	req := formRequest("/admin/outbox/retry", url.Values{"entry_id": []string{"ob-nope"}}, adminSession)
	rec := httptest.NewRecorder()
	handleAdminOutboxRetry(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("got redirect %q, want error param", loc)
	}
}

// TestHandleAdminOutboxAbandon tests the corresponding handler.
func TestHandleAdminOutboxAbandon(t *testing.T) {
	stores = newFullStores()
	ctx := context.Background()
	if err := stores.OutboxStore.Save(ctx, outboxDomain.Entry{
		ID: "ob-1", ActionType: outboxDomain.ActionTypeEmail, Payload: `{}`,
		Status: outboxDomain.StatusFailed, Attempts: 2, MaxAttempts: 5, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed outbox entry: %v", err)
	}

	req := formRequest("/admin/outbox/abandon", url.Values{"entry_id": []string{"ob-1"}}, adminSession)
	rec := httptest.NewRecorder()
	handleAdminOutboxAbandon(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	entry, _ := stores.OutboxStore.GetByID(ctx, "ob-1")
	if entry.Status != outboxDomain.StatusAbandoned {
		t.Errorf("got entry status %q, want %q", entry.Status, outboxDomain.StatusAbandoned)
	}
}

// TestHandleAdminOutbox_RequiresAdmin tests the corresponding handler.
func TestHandleAdminOutbox_RequiresAdmin(t *testing.T) {
	stores = newFullStores()
	req := httptest.NewRequest("GET", "/admin/outbox", nil)
	rec := httptest.NewRecorder()
	handleAdminOutbox(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("got redirect %q, want %q", loc, "/login")
	}
}

// --- Tests: /admin/audit ---

// TestHandleAdminAudit_RequiresAdmin tests the page's auth gates.
func TestHandleAdminAudit_RequiresAdmin(t *testing.T) {
	stores = newFullStores()

	req := httptest.NewRequest("GET", "/admin/audit", nil)
	rec := httptest.NewRecorder()
	handleAdminAudit(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anon: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	req = authRequest("GET", "/admin/audit", "", onsiteSession)
	rec = httptest.NewRecorder()
	handleAdminAudit(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("onsite: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
