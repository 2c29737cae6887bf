package program

import (
	"errors"
	"strings"
	"time"
)

// Program status constants. Only open programs accept stars, confirmations
// and check-ins.
const (
	StatusDraft    = "draft"
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusArchived = "archived"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []string{StatusDraft, StatusOpen, StatusClosed, StatusArchived}

// Max length constants.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 10000
)

// DefaultStarsPerStudent caps how many sections a student may star per
// program when the program does not override it.
const DefaultStarsPerStudent = 3

// Domain errors
var (
	ErrEmptyName     = errors.New("program name cannot be empty")
	ErrEmptySlug     = errors.New("program slug cannot be empty")
	ErrInvalidSlug   = errors.New("program slug may only contain lowercase letters, digits and '-'")
	ErrInvalidStatus = errors.New("status must be one of: draft, open, closed, archived")
	ErrNotOpen       = errors.New("program is not open")
)

// Program represents one edition of an enrichment event (e.g. "Spring Splash
// 2026"). Description is markdown; BannerPath is media-root relative and may
// be empty.
type Program struct {
	ID              string
	Name            string
	Slug            string
	Status          string
	StarsPerStudent int
	Description     string
	BannerPath      string
	StartsAt        time.Time
	CreatedAt       time.Time
}

// Validate checks if the Program has valid data.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise; StarsPerStudent defaulted if unset
func (p *Program) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return errors.New("program name cannot exceed 200 characters")
	}
	if p.Slug == "" {
		return ErrEmptySlug
	}
	if !isValidSlug(p.Slug) {
		return ErrInvalidSlug
	}
	if !isValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	if len(p.Description) > MaxDescriptionLength {
		return errors.New("program description cannot exceed 10000 characters")
	}
	if p.StarsPerStudent <= 0 {
		p.StarsPerStudent = DefaultStarsPerStudent
	}
	return nil
}

// IsOpen returns true if the program accepts registration activity.
// INVARIANT: Program fields are not mutated
func (p *Program) IsOpen() bool {
	return p.Status == StatusOpen
}

// Slugify derives a URL slug from a program name.
// PRE: none
// POST: returns lowercase name with runs of non-alphanumerics collapsed to '-'
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true // trims leading dashes
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func isValidSlug(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
