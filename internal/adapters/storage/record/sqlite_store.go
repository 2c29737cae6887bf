package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/record"
)

const recordColumns = "id, student_id, program_id, event, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new record Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts the record unless one with the same
// (student, program, event) key already exists. The existence check and
// the insert run as one statement, so concurrent callers cannot both
// insert a row for the same key.
// PRE: entity has been validated
// POST: Exactly one row exists for the key; returns true iff this call
// inserted it
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Record) (bool, error) {
	query := "INSERT INTO record (id, student_id, program_id, event, created_at) " +
		"SELECT ?, ?, ?, ?, ? " +
		"WHERE NOT EXISTS (SELECT 1 FROM record WHERE student_id = ? AND program_id = ? AND event = ?)"
	res, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.StudentID,
		entity.ProgramID,
		entity.Event,
		entity.CreatedAt.Format(time.RFC3339Nano),
		entity.StudentID,
		entity.ProgramID,
		entity.Event,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Exists reports whether a record with the key already exists.
func (s *SQLiteStore) Exists(ctx context.Context, studentID, programID, event string) (bool, error) {
	query := "SELECT COUNT(*) FROM record WHERE student_id = ? AND program_id = ? AND event = ?"
	var count int
	err := s.db.QueryRowContext(ctx, query, studentID, programID, event).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check record: %w", err)
	}
	return count > 0, nil
}

// GetByKey retrieves the record for a (student, program, event) key.
func (s *SQLiteStore) GetByKey(ctx context.Context, studentID, programID, event string) (domain.Record, error) {
	query := "SELECT " + recordColumns + " FROM record WHERE student_id = ? AND program_id = ? AND event = ?"
	row := s.db.QueryRowContext(ctx, query, studentID, programID, event)
	entity, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Record{}, fmt.Errorf("record not found: %w", err)
	}
	return entity, err
}

// ListByStudent retrieves all records for a student, newest first.
func (s *SQLiteStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Record, error) {
	query := "SELECT " + recordColumns + " FROM record WHERE student_id = ? ORDER BY created_at DESC"
	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records by student: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListRecentByProgram retrieves the newest records of one event kind in
// a program.
func (s *SQLiteStore) ListRecentByProgram(ctx context.Context, programID, event string, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + recordColumns + " FROM record " +
		"WHERE program_id = ? AND event = ? ORDER BY created_at DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, programID, event, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// CountByProgramEvent counts records of one event kind in a program.
func (s *SQLiteStore) CountByProgramEvent(ctx context.Context, programID, event string) (int, error) {
	query := "SELECT COUNT(*) FROM record WHERE program_id = ? AND event = ?"
	var count int
	err := s.db.QueryRowContext(ctx, query, programID, event).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Delete removes a Record from the database.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM record WHERE id = ?"
	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func collectRecords(rows *sql.Rows) ([]domain.Record, error) {
	var entities []domain.Record
	for rows.Next() {
		entity, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var entity domain.Record
	var createdAtStr string
	if err := scan(
		&entity.ID,
		&entity.StudentID,
		&entity.ProgramID,
		&entity.Event,
		&createdAtStr,
	); err != nil {
		return domain.Record{}, err
	}
	var err error
	entity.CreatedAt, err = parseStoredTime(createdAtStr)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

func parseStoredTime(value string) (time.Time, error) {
	formats := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"}
	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
