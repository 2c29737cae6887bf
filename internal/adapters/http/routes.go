package web

import "net/http"

// registerRoutes attaches every application route to the mux. Static
// assets are registered by NewMux so tests can exercise routes without
// a static directory on disk.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/healthz", handleHealthz)

	// Sessions
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/password", handleChangePassword)

	// Student-facing pages
	mux.HandleFunc("/catalog", handleCatalog)
	mux.HandleFunc("/registration", handleRegistrationStatus)
	mux.HandleFunc("/programs/{slug}/confirm", handleConfirmRegistration)
	mux.HandleFunc("/api/sections/star", handleStarSection)
	mux.HandleFunc("/api/sections/unstar", handleUnstarSection)

	// Onsite desk
	mux.HandleFunc("/onsite", handleOnsite)
	mux.HandleFunc("/api/checkin", handleCheckInAPI)

	// Admin
	mux.HandleFunc("/admin", handleAdminDashboard)
	mux.HandleFunc("/admin/students", handleAdminStudents)
	mux.HandleFunc("/admin/students/archive", handleAdminStudentArchive)
	mux.HandleFunc("/admin/students/restore", handleAdminStudentRestore)
	mux.HandleFunc("/admin/media", handleAdminMedia)
	mux.HandleFunc("/admin/media/upload", handleAdminMediaUpload)
	mux.HandleFunc("/admin/media/delete", handleAdminMediaDelete)
	mux.HandleFunc("/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("/admin/outbox/retry", handleAdminOutboxRetry)
	mux.HandleFunc("/admin/outbox/abandon", handleAdminOutboxAbandon)
	mux.HandleFunc("/admin/audit", handleAdminAudit)

	// Uploaded media
	mux.HandleFunc("/media/", handleMediaFile)
}
