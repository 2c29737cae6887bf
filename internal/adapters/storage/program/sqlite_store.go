package program

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/program"
)

const programColumns = "id, name, slug, status, stars_per_student, description, banner_path, starts_at, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProgramStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Program by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Program, error) {
	query := "SELECT " + programColumns + " FROM program WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Program{}, fmt.Errorf("program not found: %w", err)
	}
	return entity, err
}

// GetBySlug retrieves a Program by its URL slug.
// PRE: slug is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Program, error) {
	query := "SELECT " + programColumns + " FROM program WHERE slug = ?"
	row := s.db.QueryRowContext(ctx, query, slug)

	entity, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Program{}, fmt.Errorf("program not found: %w", err)
	}
	return entity, err
}

// Save persists a Program to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Program) error {
	query := `INSERT INTO program (id, name, slug, status, stars_per_student, description, banner_path, starts_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			slug=excluded.slug,
			status=excluded.status,
			stars_per_student=excluded.stars_per_student,
			description=excluded.description,
			banner_path=excluded.banner_path,
			starts_at=excluded.starts_at`

	var startsAt any
	if !entity.StartsAt.IsZero() {
		startsAt = entity.StartsAt.Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Slug,
		entity.Status,
		entity.StarsPerStudent,
		entity.Description,
		entity.BannerPath,
		startsAt,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Delete removes a Program from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM program WHERE id = ?", id)
	return err
}

// List retrieves Programs based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Program, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT " + programColumns + " FROM program")
	if filter.Status != "" {
		queryBuilder.WriteString(" WHERE status = ?")
		args = append(args, filter.Status)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	queryBuilder.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Program
	for rows.Next() {
		entity, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanProgram extracts a Program from a row scanner function.
func scanProgram(scan func(dest ...any) error) (domain.Program, error) {
	var entity domain.Program
	var startsAt sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Slug,
		&entity.Status,
		&entity.StarsPerStudent,
		&entity.Description,
		&entity.BannerPath,
		&startsAt,
		&createdAt,
	)
	if err != nil {
		return domain.Program{}, err
	}
	if startsAt.Valid && startsAt.String != "" {
		entity.StartsAt, _ = parseStoredTime(startsAt.String)
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
