package email

import (
	"context"
	"database/sql"
	"time"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/email"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

const emailColumns = "id, subject, body, status, sent_at, created_at, provider_message_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Email by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Email, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+emailColumns+" FROM email WHERE id = ?", id)
	return scanEmail(row.Scan)
}

// Save persists an Email to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Email) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email (id, subject, body, status, sent_at, created_at, provider_message_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   subject=excluded.subject, body=excluded.body, status=excluded.status,
		   sent_at=excluded.sent_at, created_at=excluded.created_at,
		   provider_message_id=excluded.provider_message_id`,
		e.ID, e.Subject, e.Body, e.Status,
		nullTime(e.SentAt), e.CreatedAt.Format(timeLayout), e.ProviderMessageID)
	return err
}

// Delete removes an Email and its recipient rows.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM email_recipient WHERE email_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM email WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves emails matching the filter.
// PRE: none
// POST: Returns matching emails sorted by created_at DESC
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Email, error) {
	query := "SELECT " + emailColumns + " FROM email WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		query += " AND (subject LIKE ? OR body LIKE ?)"
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmails(rows)
}

// CountByStatus counts emails with the given status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM email WHERE status = ?", status).Scan(&count)
	return count, err
}

// SaveRecipients saves the recipient list for an email, replacing any existing.
// PRE: emailID exists
// POST: Recipients are persisted
func (s *SQLiteStore) SaveRecipients(ctx context.Context, emailID string, recipients []domain.Recipient) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM email_recipient WHERE email_id = ?", emailID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO email_recipient (email_id, account_id, name, address, delivery_status)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recipients {
		if _, err := stmt.ExecContext(ctx, r.EmailID, r.AccountID, r.Name, r.Address, r.DeliveryStatus); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRecipients retrieves all recipients for an email.
// PRE: emailID is non-empty
// POST: Returns recipient list
func (s *SQLiteStore) GetRecipients(ctx context.Context, emailID string) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email_id, account_id, name, address, delivery_status
		 FROM email_recipient WHERE email_id = ?`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		if err := rows.Scan(&r.EmailID, &r.AccountID, &r.Name, &r.Address, &r.DeliveryStatus); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// ListByRecipientAccountID retrieves sent emails addressed to an account,
// newest first.
// PRE: accountID is non-empty
func (s *SQLiteStore) ListByRecipientAccountID(ctx context.Context, accountID string) ([]domain.Email, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.subject, e.body, e.status, e.sent_at, e.created_at, e.provider_message_id
		 FROM email e
		 JOIN email_recipient er ON e.id = er.email_id
		 WHERE er.account_id = ? AND e.status = 'sent'
		 ORDER BY e.sent_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmails(rows)
}

func scanEmail(scan func(dest ...any) error) (domain.Email, error) {
	var e domain.Email
	var sentAt sql.NullString
	var createdAt string
	err := scan(&e.ID, &e.Subject, &e.Body, &e.Status, &sentAt, &createdAt, &e.ProviderMessageID)
	if err != nil {
		return domain.Email{}, err
	}
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if sentAt.Valid {
		e.SentAt, _ = time.Parse(timeLayout, sentAt.String)
	}
	return e, nil
}

func scanEmails(rows *sql.Rows) ([]domain.Email, error) {
	var emails []domain.Email
	for rows.Next() {
		e, err := scanEmail(rows.Scan)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
