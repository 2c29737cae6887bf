package section

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/section"
)

const sectionColumns = "id, program_id, title, teacher_name, room, timeslot, capacity, description, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SectionStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Section by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Section, error) {
	query := "SELECT " + sectionColumns + " FROM section WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanSection(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Section{}, fmt.Errorf("section not found: %w", err)
	}
	return entity, err
}

// Save persists a Section to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Section) error {
	query := `INSERT INTO section (id, program_id, title, teacher_name, room, timeslot, capacity, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			program_id=excluded.program_id,
			title=excluded.title,
			teacher_name=excluded.teacher_name,
			room=excluded.room,
			timeslot=excluded.timeslot,
			capacity=excluded.capacity,
			description=excluded.description`

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.ProgramID,
		entity.Title,
		entity.TeacherName,
		entity.Room,
		entity.Timeslot,
		entity.Capacity,
		entity.Description,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Delete removes a Section from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM section WHERE id = ?", id)
	return err
}

// ListByProgram retrieves all sections of a program ordered by timeslot then title.
// PRE: programID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByProgram(ctx context.Context, programID string) ([]domain.Section, error) {
	query := "SELECT " + sectionColumns + " FROM section WHERE program_id = ? ORDER BY timeslot, title"
	rows, err := s.db.QueryContext(ctx, query, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSections(rows)
}

// ListByIDs retrieves the sections with the given IDs, ordered by timeslot then title.
// PRE: none (empty ids returns empty slice)
// POST: Returns matching entities; missing IDs are silently absent
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Section, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := "SELECT " + sectionColumns + " FROM section WHERE id IN (" + placeholders + ") ORDER BY timeslot, title"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSections(rows)
}

// CountByProgram returns the number of sections in a program.
// PRE: programID is non-empty
// POST: Returns count >= 0
func (s *SQLiteStore) CountByProgram(ctx context.Context, programID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM section WHERE program_id = ?", programID).Scan(&count)
	return count, err
}

func collectSections(rows *sql.Rows) ([]domain.Section, error) {
	var results []domain.Section
	for rows.Next() {
		entity, err := scanSection(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanSection extracts a Section from a row scanner function.
func scanSection(scan func(dest ...any) error) (domain.Section, error) {
	var entity domain.Section
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.ProgramID,
		&entity.Title,
		&entity.TeacherName,
		&entity.Room,
		&entity.Timeslot,
		&entity.Capacity,
		&entity.Description,
		&createdAt,
	)
	if err != nil {
		return domain.Section{}, err
	}
	entity.CreatedAt, _ = parseStoredTime(createdAt)
	return entity, nil
}

// parseStoredTime parses a time stored as text, trying the layouts that have
// appeared in the database over time.
func parseStoredTime(value string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", value)
}
