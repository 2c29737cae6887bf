package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "modernc.org/sqlite"

	emailPkg "outreach/internal/adapters/email"
	"outreach/internal/adapters/filestore"
	web "outreach/internal/adapters/http"
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

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	disk, err := filestore.NewDisk(cfg.MediaRoot)
	if err != nil {
		log.Fatalf("failed to open media root %q: %v", cfg.MediaRoot, err)
	}

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:  acctStore,
		StudentStore:  studentStorePkg.NewSQLiteStore(timedDB),
		ProgramStore:  programStore.NewSQLiteStore(timedDB),
		SectionStore:  sectionStorePkg.NewSQLiteStore(timedDB),
		InterestStore: interestStorePkg.NewSQLiteStore(timedDB),
		RecordStore:   recordStorePkg.NewSQLiteStore(timedDB),
		EmailStore:    emailStorePkg.NewSQLiteStore(timedDB),
		OutboxStore:   outboxStorePkg.NewSQLiteStore(timedDB),
		AuditStore:    auditStorePkg.NewSQLiteStore(timedDB),
		MediaStore:    mediaStorePkg.NewSQLiteStore(timedDB),

		// Uploaded files keep their name but the extension is lowercased,
		// so lookups never miss on .JPG vs .jpg.
		MediaFiles: filestore.NewLowercaseExt(disk),
	}

	ctx := context.Background()

	// Seed default admin account if no accounts exist
	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		if cfg.IsProduction() {
			log.Fatal("OUTREACH_ADMIN_PASSWORD is required in production")
		}
		adminPassword = "Umami monster"
	}
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Seed a demo program so a fresh checkout has a catalog
	seedProgDeps := orchestrators.SeedProgramsDeps{
		ProgramStore: stores.ProgramStore,
		SectionStore: stores.SectionStore,
	}
	if err := orchestrators.ExecuteSeedPrograms(ctx, seedProgDeps); err != nil {
		log.Fatalf("failed to seed programs: %v", err)
	}

	// Seed test accounts for each role (all environments, idempotent)
	testAcctDeps := orchestrators.TestAccountSeedDeps{
		AccountStore: acctStore,
		StudentStore: stores.StudentStore,
	}
	if err := orchestrators.ExecuteSeedTestAccounts(ctx, testAcctDeps); err != nil {
		log.Fatalf("failed to seed test accounts: %v", err)
	}

	// Seed synthetic roster for development only
	if cfg.IsDevelopment() {
		synDeps := orchestrators.SyntheticSeedDeps{
			AccountStore:  acctStore,
			StudentStore:  stores.StudentStore,
			ProgramStore:  stores.ProgramStore,
			SectionStore:  stores.SectionStore,
			InterestStore: stores.InterestStore,
			RecordStore:   stores.RecordStore,
		}
		if err := orchestrators.ExecuteSeedSynthetic(ctx, synDeps); err != nil {
			log.Fatalf("failed to seed synthetic data: %v", err)
		}
		log.Println("Synthetic seed data loaded (dev mode)")
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Println("WARNING: OUTREACH_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set OUTREACH_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, cfg.EmailFrom, cfg.ReplyTo)

	// Background retry loop for emails the provider rejected
	retryDeps := orchestrators.OutboxRetryDeps{
		OutboxStore: stores.OutboxStore,
		EmailStore:  stores.EmailStore,
		EmailSender: sender,
	}
	stopRetries := orchestrators.StartOutboxRetryScheduler(ctx, retryDeps, orchestrators.DefaultOutboxRetryConfig())
	defer stopRetries()

	mux := web.NewMux(cfg, stores, collector)

	log.Printf("Outreach %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
