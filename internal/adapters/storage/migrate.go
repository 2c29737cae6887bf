package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// A migration upgrades the schema from version-1 to version. Version 1 is
// the InitDB baseline; the entries below only cover later versions.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		version: 2,
		name:    "program stars and banner",
		apply: func(tx *sql.Tx) error {
			stmts := []string{
				"ALTER TABLE program ADD COLUMN stars_per_student INTEGER NOT NULL DEFAULT 3",
				"ALTER TABLE program ADD COLUMN banner_path TEXT NOT NULL DEFAULT ''",
			}
			for _, s := range stmts {
				if _, err := tx.Exec(s); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		version: 3,
		name:    "media library, outbox and audit",
		apply: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS media_file (
					id TEXT PRIMARY KEY,
					path TEXT NOT NULL UNIQUE,
					original_name TEXT NOT NULL DEFAULT '',
					content_type TEXT NOT NULL DEFAULT '',
					size_bytes INTEGER NOT NULL DEFAULT 0,
					uploaded_by TEXT NOT NULL DEFAULT '',
					created_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS outbox (
					id TEXT PRIMARY KEY,
					action_type TEXT NOT NULL,
					payload TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					attempts INTEGER NOT NULL DEFAULT 0,
					max_attempts INTEGER NOT NULL DEFAULT 5,
					last_attempted_at TEXT,
					created_at TEXT NOT NULL,
					external_id TEXT NOT NULL DEFAULT '',
					error_message TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS audit (
					id TEXT PRIMARY KEY,
					timestamp TEXT NOT NULL,
					category TEXT NOT NULL,
					action TEXT NOT NULL,
					severity TEXT NOT NULL DEFAULT 'info',
					actor_id TEXT NOT NULL DEFAULT '',
					actor_email TEXT NOT NULL DEFAULT '',
					resource_id TEXT NOT NULL DEFAULT '',
					resource_type TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					ip_address TEXT NOT NULL DEFAULT ''
				)`,
			}
			for _, s := range stmts {
				if _, err := tx.Exec(s); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// LatestSchemaVersion returns the schema version a fully migrated database has.
// PRE: none
// POST: returns the highest migration version (1 if none are registered)
func LatestSchemaVersion() int {
	latest := 1
	for _, m := range migrations {
		if m.version > latest {
			latest = m.version
		}
	}
	return latest
}

// MigrateDB brings the database schema up to the latest version.
// Version 0 databases (fresh, or created before version tracking) get the
// InitDB baseline, which is safe to re-apply. Databases that already hold
// tables are backed up to a .bak file before any structural change.
// PRE: db is open; dbPath is the backing file ("" or ":memory:" skips backup)
// POST: schema_version records the latest version
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := currentSchemaVersion(db)
	if err != nil {
		return err
	}

	latest := LatestSchemaVersion()
	if current >= latest {
		return nil
	}

	hasTables, err := hasUserTables(db)
	if err != nil {
		return err
	}
	if hasTables {
		if err := backupFile(dbPath, current); err != nil {
			return fmt.Errorf("failed to back up database before migration: %w", err)
		}
	}

	if current == 0 {
		if err := InitDB(db); err != nil {
			return err
		}
		if err := recordVersion(db, 1); err != nil {
			return err
		}
		current = 1
		slog.Info("schema_created", "version", 1)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			m.version, time.Now().Format(time.RFC3339Nano),
		); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}

	return nil
}

// SchemaVersion returns the highest applied schema version, or 0 when the
// database has never been migrated.
// PRE: db is open
// POST: returns a version >= 0 without modifying the database
func SchemaVersion(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if v.Valid {
		return int(v.Int64), nil
	}
	return 0, nil
}

// currentSchemaVersion returns the highest applied version, or 0 when no
// version rows exist yet.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if v.Valid {
		return int(v.Int64), nil
	}
	return 0, nil
}

// hasUserTables reports whether the database holds any tables besides the
// version bookkeeping.
func hasUserTables(db *sql.DB) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_version'",
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func recordVersion(db *sql.DB, version int) error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		version, time.Now().Format(time.RFC3339Nano),
	)
	return err
}

// backupFile copies the database file aside before a migration runs.
func backupFile(dbPath string, fromVersion int) error {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	src, err := os.Open(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	bakPath := fmt.Sprintf("%s.v%d.bak", dbPath, fromVersion)
	dst, err := os.Create(bakPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	slog.Info("db_backup_created", "path", bakPath)
	return nil
}
