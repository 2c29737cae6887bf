package browser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// waitForMessage polls the desk message element until it contains want.
func waitForMessage(t *testing.T, page playwright.Page, want string) {
	t.Helper()
	msg := page.Locator("#checkin-message")
	for i := 0; i < 50; i++ {
		text, err := msg.TextContent()
		if err == nil && strings.Contains(text, want) {
			return
		}
		page.WaitForTimeout(100)
	}
	text, _ := msg.TextContent()
	t.Fatalf("desk message = %q, want it to contain %q", text, want)
}

// submitCheckIn types an ID into the desk form and submits it.
func submitCheckIn(t *testing.T, page playwright.Page, id string) {
	t.Helper()
	if err := page.Locator("#checkin-id").Fill(id); err != nil {
		t.Fatalf("failed to fill ID field: %v", err)
	}
	if err := page.Locator("#checkin-form button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit check-in: %v", err)
	}
}

// TestCheckInDesk_HappyPath drives the desk through a real check-in:
// first attempt welcomes the student, the repeat is called out as already
// done, and the student appears in today's feed.
func TestCheckInDesk_HappyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.loginAs(t, page, onsiteEmail, commonPassword, "/onsite")

	idNumber := fmt.Sprintf("%d", app.StudentNo)

	submitCheckIn(t, page, idNumber)
	waitForMessage(t, page, "Awhina Park is now checked in")

	submitCheckIn(t, page, idNumber)
	waitForMessage(t, page, "Awhina Park is already checked in")

	// The feed renders on page load
	if _, err := page.Reload(); err != nil {
		t.Fatalf("failed to reload desk: %v", err)
	}
	feed, err := page.Locator("table.listing tbody").TextContent()
	if err != nil {
		t.Fatalf("failed to read feed: %v", err)
	}
	if !strings.Contains(feed, "Awhina Park") {
		t.Errorf("today's feed does not list the checked-in student: %q", feed)
	}
}

// TestCheckInDesk_BadInput covers the typo messages the desk volunteer sees.
func TestCheckInDesk_BadInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.loginAs(t, page, onsiteEmail, commonPassword, "/onsite")

	submitCheckIn(t, page, "12ab")
	waitForMessage(t, page, "12ab is not a valid user ID (must be numeric)")

	submitCheckIn(t, page, "424242")
	waitForMessage(t, page, "424242 is not a user")
}

// TestCheckInDesk_StudentCannotOpen verifies the desk is staff-only.
func TestCheckInDesk_StudentCannotOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.loginAs(t, page, studentEmail, commonPassword, "/catalog")

	resp, err := page.Goto(app.BaseURL + "/onsite")
	if err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}
	if resp.Status() != 403 {
		t.Errorf("student opening the desk: got status %d, want 403", resp.Status())
	}
}
