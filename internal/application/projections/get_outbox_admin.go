package projections

import (
	"context"

	"outreach/internal/adapters/storage/email"
	domainEmail "outreach/internal/domain/email"
	domainOutbox "outreach/internal/domain/outbox"
)

// OutboxAdminStore defines the outbox store interface needed by the outbox page.
type OutboxAdminStore interface {
	ListRecent(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// OutboxAdminEmailStore defines the email store interface needed by the outbox page.
type OutboxAdminEmailStore interface {
	List(ctx context.Context, filter email.ListFilter) ([]domainEmail.Email, error)
	GetRecipients(ctx context.Context, emailID string) ([]domainEmail.Recipient, error)
}

// EmailLogRow is one email with its recipients resolved.
type EmailLogRow struct {
	Email      domainEmail.Email
	Recipients []domainEmail.Recipient
}

// GetOutboxAdminResult carries the query result.
type GetOutboxAdminResult struct {
	Entries  []domainOutbox.Entry
	Counts   map[string]int // status -> count
	EmailLog []EmailLogRow
}

// GetOutboxAdminDeps holds dependencies for GetOutboxAdmin.
type GetOutboxAdminDeps struct {
	OutboxStore OutboxAdminStore
	EmailStore  OutboxAdminEmailStore
}

// QueryGetOutboxAdmin retrieves the delivery page: recent outbox entries
// with per-status totals, and the recent email log with recipients.
func QueryGetOutboxAdmin(ctx context.Context, deps GetOutboxAdminDeps) (GetOutboxAdminResult, error) {
	entries, err := deps.OutboxStore.ListRecent(ctx, 50)
	if err != nil {
		return GetOutboxAdminResult{}, err
	}

	counts := map[string]int{}
	for _, status := range []string{
		domainOutbox.StatusPending,
		domainOutbox.StatusRetrying,
		domainOutbox.StatusDone,
		domainOutbox.StatusFailed,
		domainOutbox.StatusAbandoned,
	} {
		if count, err := deps.OutboxStore.CountByStatus(ctx, status); err == nil && count > 0 {
			counts[status] = count
		}
	}

	result := GetOutboxAdminResult{Entries: entries, Counts: counts}

	emails, err := deps.EmailStore.List(ctx, email.ListFilter{Limit: 50})
	if err != nil {
		return GetOutboxAdminResult{}, err
	}
	for _, em := range emails {
		row := EmailLogRow{Email: em}
		if recips, err := deps.EmailStore.GetRecipients(ctx, em.ID); err == nil {
			row.Recipients = recips
		}
		result.EmailLog = append(result.EmailLog, row)
	}

	return result, nil
}
