package storage

import (
	"database/sql"
	"fmt"
)

// InitDB creates the baseline schema. Later tables and columns are added
// by the migration chain in migrate.go, never here.
// PRE: db is a valid database connection
// POST: All baseline tables exist, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		id_number INTEGER NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS student (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		name TEXT NOT NULL,
		grade_level TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		photo_path TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS program (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		starts_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS section (
		id TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		title TEXT NOT NULL,
		teacher_name TEXT NOT NULL,
		room TEXT NOT NULL DEFAULT '',
		timeslot TEXT NOT NULL DEFAULT '',
		capacity INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (program_id) REFERENCES program(id)
	);

	CREATE TABLE IF NOT EXISTS interest (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		section_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (student_id, section_id),
		FOREIGN KEY (student_id) REFERENCES student(id),
		FOREIGN KEY (section_id) REFERENCES section(id)
	);

	CREATE TABLE IF NOT EXISTS record (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		program_id TEXT NOT NULL,
		event TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (student_id) REFERENCES student(id),
		FOREIGN KEY (program_id) REFERENCES program(id)
	);

	CREATE INDEX IF NOT EXISTS idx_record_lookup ON record(student_id, program_id, event);

	CREATE TABLE IF NOT EXISTS email (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL,
		sent_at TEXT,
		created_at TEXT NOT NULL,
		provider_message_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS email_recipient (
		email_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		delivery_status TEXT NOT NULL DEFAULT 'queued',
		PRIMARY KEY (email_id, account_id),
		FOREIGN KEY (email_id) REFERENCES email(id)
	);

	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
