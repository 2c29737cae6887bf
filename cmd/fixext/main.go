// Command fixext renames media files whose extension contains uppercase
// letters to the lowercased form and rewrites database references to them.
// Run it once against installations that predate lowercase-on-upload;
// new uploads never need it.
//
// Usage:
//
//	fixext [--dry-run] [--verbose] [--db PATH] [--root DIR]
//
// Flags default to OUTREACH_DB_PATH and OUTREACH_MEDIA_ROOT.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	auditStorePkg "outreach/internal/adapters/storage/audit"
	"outreach/internal/application/orchestrators"
	"outreach/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	dryRun := flag.Bool("dry-run", false, "report planned renames without touching anything")
	verbose := flag.Bool("verbose", false, "print every rename and reference update")
	dbPath := flag.String("db", cfg.DBPath, "path to the SQLite database")
	mediaRoot := flag.String("root", cfg.MediaRoot, "media root directory to scan")
	flag.Parse()

	if err := run(*dbPath, *mediaRoot, *dryRun, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "fixext: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, mediaRoot string, dryRun, verbose bool) error {
	// Same pragmas as the server; busy_timeout matters because the server
	// may be live while references are rewritten.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	input := orchestrators.ExtensionMigrationInput{
		MediaRoot: mediaRoot,
		DryRun:    dryRun,
		Verbose:   verbose,
	}
	deps := orchestrators.ExtensionMigrationDeps{
		DB:         db,
		AuditStore: auditStorePkg.NewSQLiteStore(db),
		Out:        os.Stdout,
	}

	_, err = orchestrators.ExecuteExtensionMigration(context.Background(), input, deps)
	return err
}
