package interest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/interest"
)

const interestColumns = "id, student_id, section_id, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new interest Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an Interest. Saving the same (student, section) pair
// twice leaves a single row.
// PRE: entity has been validated
// POST: The star exists exactly once
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Interest) error {
	query := "INSERT INTO interest (id, student_id, section_id, created_at) VALUES (?, ?, ?, ?) " +
		"ON CONFLICT(student_id, section_id) DO NOTHING"
	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.StudentID,
		entity.SectionID,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save interest: %w", err)
	}
	return nil
}

// Delete removes a star. Deleting a star that does not exist is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, studentID, sectionID string) error {
	query := "DELETE FROM interest WHERE student_id = ? AND section_id = ?"
	_, err := s.db.ExecContext(ctx, query, studentID, sectionID)
	if err != nil {
		return fmt.Errorf("failed to delete interest: %w", err)
	}
	return nil
}

// ListByStudent retrieves all stars for a student, oldest first.
func (s *SQLiteStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Interest, error) {
	query := "SELECT " + interestColumns + " FROM interest WHERE student_id = ? ORDER BY created_at ASC"
	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interest by student: %w", err)
	}
	defer rows.Close()
	return collectInterests(rows)
}

// ListByStudentProgram retrieves a student's stars limited to one program's
// sections, oldest first.
func (s *SQLiteStore) ListByStudentProgram(ctx context.Context, studentID, programID string) ([]domain.Interest, error) {
	query := "SELECT interest.id, interest.student_id, interest.section_id, interest.created_at FROM interest " +
		"JOIN section ON section.id = interest.section_id " +
		"WHERE interest.student_id = ? AND section.program_id = ? " +
		"ORDER BY interest.created_at ASC"
	rows, err := s.db.QueryContext(ctx, query, studentID, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interest by student and program: %w", err)
	}
	defer rows.Close()
	return collectInterests(rows)
}

// ListBySection retrieves all stars on a section, oldest first.
func (s *SQLiteStore) ListBySection(ctx context.Context, sectionID string) ([]domain.Interest, error) {
	query := "SELECT " + interestColumns + " FROM interest WHERE section_id = ? ORDER BY created_at ASC"
	rows, err := s.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interest by section: %w", err)
	}
	defer rows.Close()
	return collectInterests(rows)
}

// CountBySection counts stars on a single section.
func (s *SQLiteStore) CountBySection(ctx context.Context, sectionID string) (int, error) {
	query := "SELECT COUNT(*) FROM interest WHERE section_id = ?"
	var count int
	err := s.db.QueryRowContext(ctx, query, sectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interest by section: %w", err)
	}
	return count, nil
}

// CountByStudentProgram counts a student's stars across one program's
// sections.
func (s *SQLiteStore) CountByStudentProgram(ctx context.Context, studentID, programID string) (int, error) {
	query := "SELECT COUNT(*) FROM interest " +
		"JOIN section ON section.id = interest.section_id " +
		"WHERE interest.student_id = ? AND section.program_id = ?"
	var count int
	err := s.db.QueryRowContext(ctx, query, studentID, programID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interest by student and program: %w", err)
	}
	return count, nil
}

// IsStarred reports whether the student has starred the section.
func (s *SQLiteStore) IsStarred(ctx context.Context, studentID, sectionID string) (bool, error) {
	query := "SELECT COUNT(*) FROM interest WHERE student_id = ? AND section_id = ?"
	var count int
	err := s.db.QueryRowContext(ctx, query, studentID, sectionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check interest: %w", err)
	}
	return count > 0, nil
}

func collectInterests(rows *sql.Rows) ([]domain.Interest, error) {
	var entities []domain.Interest
	for rows.Next() {
		entity, err := scanInterest(rows.Scan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func scanInterest(scan func(dest ...any) error) (domain.Interest, error) {
	var entity domain.Interest
	var createdAtStr string
	if err := scan(
		&entity.ID,
		&entity.StudentID,
		&entity.SectionID,
		&createdAtStr,
	); err != nil {
		return domain.Interest{}, err
	}
	var err error
	entity.CreatedAt, err = parseStoredTime(createdAtStr)
	if err != nil {
		return domain.Interest{}, fmt.Errorf("failed to parse created_at: %w", err)
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
