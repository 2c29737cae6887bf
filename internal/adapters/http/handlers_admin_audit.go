package web

import (
	"net/http"
	"strconv"

	auditStore "outreach/internal/adapters/storage/audit"
	auditDomain "outreach/internal/domain/audit"
)

// handleAdminAudit renders the audit trail page (GET /admin/audit)
// PRE: User must be authenticated as admin
// POST: Renders audit events with optional filters
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdminPage(w, r); !ok {
		return
	}
	ctx := r.Context()

	// Parse query parameters for filtering
	filter := auditStore.Filter{}

	if category := r.URL.Query().Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := r.URL.Query().Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := r.URL.Query().Get("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		sev := auditDomain.Severity(severity)
		filter.Severity = &sev
	}
	if resourceID := r.URL.Query().Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	if fromDate := r.URL.Query().Get("from"); fromDate != "" {
		filter.FromDate = &fromDate
	}
	if toDate := r.URL.Query().Get("to"); toDate != "" {
		filter.ToDate = &toDate
	}

	// Parse limit, default to 100
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	events, err := stores.AuditStore.List(ctx, filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}

	// The form repopulates from the raw query values, not the typed filter.
	q := r.URL.Query()
	renderTemplate(w, r, "admin_audit.html", map[string]any{
		"Events": events,
		"Query": map[string]string{
			"Category":   q.Get("category"),
			"Action":     q.Get("action"),
			"Severity":   q.Get("severity"),
			"ActorID":    q.Get("actor_id"),
			"ResourceID": q.Get("resource_id"),
			"From":       q.Get("from"),
			"To":         q.Get("to"),
		},
		"Limit": limit,
	})
}
