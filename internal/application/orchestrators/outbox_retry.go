package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "outreach/internal/adapters/email"
	"outreach/internal/adapters/storage/outbox"
	emailDomain "outreach/internal/domain/email"
	domainOutbox "outreach/internal/domain/outbox"
)

// RetryEmailStore is the slice of the email store the retry worker needs to
// reconcile email rows after a successful resend.
type RetryEmailStore interface {
	GetByID(ctx context.Context, id string) (emailDomain.Email, error)
	Save(ctx context.Context, e emailDomain.Email) error
}

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore outbox.Store
	EmailStore  RetryEmailStore
	EmailSender emailAdapter.Sender
}

// ExecuteOutboxRetry processes pending and retryable outbox entries.
// It implements exponential backoff and respects max attempts.
// PRE: Deps are valid and store is connected
// POST: All eligible entries are processed, results logged
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) error {
	entries, err := deps.OutboxStore.ListPending(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to list retryable outbox entries: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	slog.Info("outbox_retry_start", "count", len(entries))

	var processed, succeeded, failed int
	baseDelay := 1 * time.Minute
	maxDelay := 1 * time.Hour

	for _, entry := range entries {
		processed++

		// Check if enough time has passed since last attempt
		if !entry.LastAttemptedAt.IsZero() {
			nextRetry := entry.LastAttemptedAt.Add(entry.NextRetryDelay(baseDelay, maxDelay))
			if time.Now().Before(nextRetry) {
				slog.Debug("outbox_retry_skipped_backoff", "entry_id", entry.ID, "next_retry", nextRetry)
				continue
			}
		}

		entry.MarkAttempt()

		var externalID string
		var retryErr error
		switch entry.ActionType {
		case domainOutbox.ActionTypeEmail:
			externalID, retryErr = retryEmail(ctx, deps, entry)
		default:
			retryErr = fmt.Errorf("unknown action type: %s", entry.ActionType)
		}

		if retryErr != nil {
			entry.MarkFailed(retryErr)
			failed++
			slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", retryErr)
		} else {
			entry.MarkSuccess(externalID)
			succeeded++
			slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		}

		if saveErr := deps.OutboxStore.Save(ctx, entry); saveErr != nil {
			slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", saveErr)
		}
	}

	slog.Info("outbox_retry_complete", "processed", processed, "succeeded", succeeded, "failed", failed)
	return nil
}

// retryEmail resends an email from the outbox payload and reconciles the
// original email row. The send result wins: if the provider accepted the
// message but the row update fails, the entry still completes.
// PRE: Entry payload contains valid email data
// POST: Email sent and row marked sent, or error returned
func retryEmail(ctx context.Context, deps OutboxRetryDeps, entry domainOutbox.Entry) (string, error) {
	var payload emailOutboxPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal email payload: %w", err)
	}
	if len(payload.To) == 0 {
		return "", fmt.Errorf("email payload has no recipients")
	}

	result, err := deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      payload.To,
		From:    payload.From,
		Subject: payload.Subject,
		HTML:    payload.HTML,
		ReplyTo: payload.ReplyTo,
	})
	if err != nil {
		return "", err
	}

	if payload.EmailID != "" && deps.EmailStore != nil {
		em, getErr := deps.EmailStore.GetByID(ctx, payload.EmailID)
		if getErr != nil {
			slog.Warn("outbox_retry_email_row_missing", "email_id", payload.EmailID, "error", getErr)
			return result.MessageID, nil
		}
		em.MarkSent(result.SentAt, result.MessageID)
		if saveErr := deps.EmailStore.Save(ctx, em); saveErr != nil {
			slog.Error("outbox_retry_email_row_update_failed", "email_id", payload.EmailID, "error", saveErr)
		}
	}

	return result.MessageID, nil
}

// ExecuteOutboxManualRetry processes a single outbox entry immediately,
// skipping the backoff window (for the admin retry button).
// PRE: entryID is non-empty
// POST: Entry is attempted once, status updated
func ExecuteOutboxManualRetry(ctx context.Context, entryID string, deps OutboxRetryDeps) error {
	entry, err := deps.OutboxStore.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}

	entry.MarkAttempt()

	var externalID string
	var retryErr error
	switch entry.ActionType {
	case domainOutbox.ActionTypeEmail:
		externalID, retryErr = retryEmail(ctx, deps, entry)
	default:
		retryErr = fmt.Errorf("unknown action type: %s", entry.ActionType)
	}

	if retryErr != nil {
		entry.MarkFailed(retryErr)
		slog.Warn("outbox_manual_retry_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", retryErr)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_manual_retry_succeeded", "entry_id", entry.ID, "external_id", externalID)
	}

	return deps.OutboxStore.Save(ctx, entry)
}

// ExecuteOutboxAbandon marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func ExecuteOutboxAbandon(ctx context.Context, entryID string, deps OutboxRetryDeps) error {
	entry, err := deps.OutboxStore.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	entry.MarkAbandoned()
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return err
	}
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID, "action", entry.ActionType)
	return nil
}

// OutboxRetryConfig holds configuration for the retry scheduler.
type OutboxRetryConfig struct {
	Interval time.Duration // How often to run retries
	Enabled  bool
}

// DefaultOutboxRetryConfig returns sensible defaults.
func DefaultOutboxRetryConfig() OutboxRetryConfig {
	return OutboxRetryConfig{
		Interval: 5 * time.Minute,
		Enabled:  true,
	}
}

// StartOutboxRetryScheduler starts a background goroutine that periodically retries outbox entries.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ExecuteOutboxRetry(ctx, deps); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return cancel
}
