package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/filestore"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/http/perf"
	accountStore "outreach/internal/adapters/storage/account"
	auditStore "outreach/internal/adapters/storage/audit"
	emailStore "outreach/internal/adapters/storage/email"
	interestStore "outreach/internal/adapters/storage/interest"
	mediaStore "outreach/internal/adapters/storage/mediafile"
	outboxStore "outreach/internal/adapters/storage/outbox"
	programStore "outreach/internal/adapters/storage/program"
	recordStore "outreach/internal/adapters/storage/record"
	sectionStore "outreach/internal/adapters/storage/section"
	studentStore "outreach/internal/adapters/storage/student"
	"outreach/internal/config"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	StudentStore  studentStore.Store
	ProgramStore  programStore.Store
	SectionStore  sectionStore.Store
	InterestStore interestStore.Store
	RecordStore   recordStore.Store
	EmailStore    emailStore.Store
	OutboxStore   outboxStore.Store
	AuditStore    auditStore.Store
	MediaStore    mediaStore.Store

	// MediaFiles is the disk layer that media rows point into.
	MediaFiles filestore.Storage
}

// csrfKeyFromConfig decodes the CSRF secret (hex-encoded, 32 bytes).
// In production, the key MUST be set; config.Load enforces that. In
// development, a random key is generated per startup.
func csrfKeyFromConfig(cfg config.Config) []byte {
	if cfg.CSRFKey != "" {
		key, err := hex.DecodeString(cfg.CSRFKey)
		if err != nil || len(key) != 32 {
			log.Fatal("OUTREACH_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if cfg.IsProduction() {
		log.Fatal("OUTREACH_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (open forms break on restart). Set OUTREACH_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// NewMux wires HTTP handlers for the app.
func NewMux(cfg config.Config, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = cfg.IsProduction()

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from config
	csrfKey := csrfKeyFromConfig(cfg)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
