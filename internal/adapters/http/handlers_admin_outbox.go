package web

import (
	"net/http"
	"net/url"

	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
)

// handleAdminOutbox handles GET /admin/outbox
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdminPage(w, r); !ok {
		return
	}

	result, err := projections.QueryGetOutboxAdmin(r.Context(), projections.GetOutboxAdminDeps{
		OutboxStore: stores.OutboxStore,
		EmailStore:  stores.EmailStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_outbox.html", map[string]any{
		"Entries":  result.Entries,
		"Counts":   result.Counts,
		"EmailLog": result.EmailLog,
		"Error":    r.URL.Query().Get("error"),
	})
}

// handleAdminOutboxRetry handles POST /admin/outbox/retry. The entry is
// retried inline rather than waiting for the scheduler, so the admin sees
// the outcome on the next page load.
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	entryID := r.FormValue("entry_id")
	if entryID == "" {
		http.Error(w, "entry_id is required", http.StatusBadRequest)
		return
	}

	deps := orchestrators.OutboxRetryDeps{
		OutboxStore: stores.OutboxStore,
		EmailStore:  stores.EmailStore,
		EmailSender: emailSender,
	}
	if err := orchestrators.ExecuteOutboxManualRetry(r.Context(), entryID, deps); err != nil {
		// Terminal entries and dead IDs are operator mistakes, not server
		// faults; show the reason on the page.
		http.Redirect(w, r, "/admin/outbox?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/outbox", http.StatusSeeOther)
}

// handleAdminOutboxAbandon handles POST /admin/outbox/abandon
func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	entryID := r.FormValue("entry_id")
	if entryID == "" {
		http.Error(w, "entry_id is required", http.StatusBadRequest)
		return
	}

	deps := orchestrators.OutboxRetryDeps{
		OutboxStore: stores.OutboxStore,
		EmailStore:  stores.EmailStore,
		EmailSender: emailSender,
	}
	if err := orchestrators.ExecuteOutboxAbandon(r.Context(), entryID, deps); err != nil {
		http.Redirect(w, r, "/admin/outbox?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/outbox", http.StatusSeeOther)
}
