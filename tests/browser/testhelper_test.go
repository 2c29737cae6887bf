package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	emailPkg "outreach/internal/adapters/email"
	"outreach/internal/adapters/filestore"
	web "outreach/internal/adapters/http"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/http/perf"
	"outreach/internal/adapters/storage"
	accountStore "outreach/internal/adapters/storage/account"
	auditStorePkg "outreach/internal/adapters/storage/audit"
	emailStorePkg "outreach/internal/adapters/storage/email"
	interestStorePkg "outreach/internal/adapters/storage/interest"
	mediaStorePkg "outreach/internal/adapters/storage/mediafile"
	outboxStorePkg "outreach/internal/adapters/storage/outbox"
	programStore "outreach/internal/adapters/storage/program"
	recordStorePkg "outreach/internal/adapters/storage/record"
	sectionStorePkg "outreach/internal/adapters/storage/section"
	studentStorePkg "outreach/internal/adapters/storage/student"
	"outreach/internal/application/orchestrators"
	"outreach/internal/config"
)

// Credentials the helper seeds for each role.
const (
	adminEmail      = "admin@test.com"
	onsiteEmail     = "desk@test.com"
	studentEmail    = "student@test.com"
	commonPassword  = "TestPass123!"
	seededStudentID = "stu-browser"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL   string
	DB        *sql.DB
	Server    *http.Server
	PW        *playwright.Playwright
	Browser   playwright.Browser
	Stores    *web.Stores
	AdminID   string
	StudentNo int64 // the seeded student's check-in number
	tmpDir    string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	disk, err := filestore.NewDisk(filepath.Join(tmpDir, "media"))
	if err != nil {
		t.Fatalf("failed to create media root: %v", err)
	}

	acctStore := accountStore.NewSQLiteStore(db)
	stores := &web.Stores{
		AccountStore:  acctStore,
		StudentStore:  studentStorePkg.NewSQLiteStore(db),
		ProgramStore:  programStore.NewSQLiteStore(db),
		SectionStore:  sectionStorePkg.NewSQLiteStore(db),
		InterestStore: interestStorePkg.NewSQLiteStore(db),
		RecordStore:   recordStorePkg.NewSQLiteStore(db),
		EmailStore:    emailStorePkg.NewSQLiteStore(db),
		OutboxStore:   outboxStorePkg.NewSQLiteStore(db),
		AuditStore:    auditStorePkg.NewSQLiteStore(db),
		MediaStore:    mediaStorePkg.NewSQLiteStore(db),
		MediaFiles:    filestore.NewLowercaseExt(disk),
	}

	ctx := context.Background()

	adminAcct, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Email:    adminEmail,
		Password: commonPassword,
		Role:     "admin",
	}, orchestrators.CreateAccountDeps{AccountStore: acctStore})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	if _, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Email:    onsiteEmail,
		Password: commonPassword,
		Role:     "onsite",
	}, orchestrators.CreateAccountDeps{AccountStore: acctStore}); err != nil {
		t.Fatalf("failed to create onsite account: %v", err)
	}

	reg, err := orchestrators.ExecuteRegisterStudent(ctx, orchestrators.RegisterStudentInput{
		Name:       "Awhina Park",
		GradeLevel: "7",
		Email:      studentEmail,
		Password:   commonPassword,
		ActorID:    adminAcct.ID,
		ActorEmail: adminEmail,
	}, orchestrators.RegisterStudentDeps{
		AccountStore: acctStore,
		StudentStore: stores.StudentStore,
		AuditStore:   stores.AuditStore,
		GenerateID:   func() string { return seededStudentID },
	})
	if err != nil {
		t.Fatalf("failed to register student: %v", err)
	}

	// Demo program with sections so the catalog has content
	seedProgDeps := orchestrators.SeedProgramsDeps{
		ProgramStore: stores.ProgramStore,
		SectionStore: stores.SectionStore,
	}
	if err := orchestrators.ExecuteSeedPrograms(ctx, seedProgDeps); err != nil {
		t.Fatalf("failed to seed programs: %v", err)
	}

	web.SetEmailSender(emailPkg.NewNoopSender(), "noreply@test.com", "")

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so relative template/static paths work
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	// Page crawls fire requests faster than the production limit
	web.RateLimitPerSecond = 1000

	cfg := config.Config{
		Addr:      fmt.Sprintf("127.0.0.1:%d", port),
		DBPath:    dbPath,
		Env:       "development",
		MediaRoot: filepath.Join(tmpDir, "media"),
		StaticDir: "static",
	}
	mux := web.NewMux(cfg, stores, perf.NewCollector(perf.DefaultRingSize))
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL:   baseURL,
		DB:        db,
		Server:    srv,
		PW:        pw,
		Browser:   browser,
		Stores:    stores,
		AdminID:   adminAcct.ID,
		StudentNo: reg.IDNumber,
		tmpDir:    tmpDir,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// loginAs logs in with the given credentials and waits for the role's
// landing page.
func (a *testApp) loginAs(t *testing.T, page playwright.Page, email, password, wantPath string) {
	t.Helper()
	_, err := page.Goto(a.BaseURL + "/login")
	if err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=Email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=Password]").Fill(password); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+wantPath, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to %s: %v", wantPath, err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
