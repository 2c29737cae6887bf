package mediafile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/mediafile"
)

const mediaFileColumns = "id, path, original_name, content_type, size_bytes, uploaded_by, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new media file Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a MediaFile by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.MediaFile, error) {
	query := "SELECT " + mediaFileColumns + " FROM media_file WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanMediaFile(row.Scan)
	if err == sql.ErrNoRows {
		return domain.MediaFile{}, fmt.Errorf("media file not found: %w", err)
	}
	return entity, err
}

// GetByPath retrieves a MediaFile by its storage path.
func (s *SQLiteStore) GetByPath(ctx context.Context, path string) (domain.MediaFile, error) {
	query := "SELECT " + mediaFileColumns + " FROM media_file WHERE path = ?"
	row := s.db.QueryRowContext(ctx, query, path)
	entity, err := scanMediaFile(row.Scan)
	if err == sql.ErrNoRows {
		return domain.MediaFile{}, fmt.Errorf("media file not found: %w", err)
	}
	return entity, err
}

// Save persists a MediaFile to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.MediaFile) error {
	query := "INSERT INTO media_file (" + mediaFileColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT(id) DO UPDATE SET " +
		"path=excluded.path, original_name=excluded.original_name, content_type=excluded.content_type, " +
		"size_bytes=excluded.size_bytes, uploaded_by=excluded.uploaded_by, created_at=excluded.created_at"
	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Path,
		entity.OriginalName,
		entity.ContentType,
		entity.SizeBytes,
		entity.UploadedBy,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save media file: %w", err)
	}
	return nil
}

// Delete removes a MediaFile from the database.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM media_file WHERE id = ?"
	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// List retrieves media files, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]domain.MediaFile, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := "SELECT " + mediaFileColumns + " FROM media_file ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}
	defer rows.Close()

	var entities []domain.MediaFile
	for rows.Next() {
		entity, err := scanMediaFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// Count returns the total number of media files.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_file").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count media files: %w", err)
	}
	return count, nil
}

func scanMediaFile(scan func(dest ...any) error) (domain.MediaFile, error) {
	var entity domain.MediaFile
	var createdAtStr string
	if err := scan(
		&entity.ID,
		&entity.Path,
		&entity.OriginalName,
		&entity.ContentType,
		&entity.SizeBytes,
		&entity.UploadedBy,
		&createdAtStr,
	); err != nil {
		return domain.MediaFile{}, err
	}
	var err error
	entity.CreatedAt, err = parseStoredTime(createdAtStr)
	if err != nil {
		return domain.MediaFile{}, fmt.Errorf("failed to parse created_at: %w", err)
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
