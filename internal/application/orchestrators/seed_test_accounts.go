package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/domain/account"
	"outreach/internal/domain/student"

	"github.com/google/uuid"
)

// TestAccountSeedDeps holds stores needed for test account seeding.
type TestAccountSeedDeps struct {
	AccountStore testAcctAccountStore
	StudentStore testAcctStudentStore
}

type testAcctAccountStore interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type testAcctStudentStore interface {
	Save(ctx context.Context, s student.Student) error
}

// testAccountDef defines a single test account to seed.
type testAccountDef struct {
	Email       string
	Password    string
	Role        string
	StudentName string
}

// testAccounts returns the list of test accounts to seed.
func testAccounts() []testAccountDef {
	return []testAccountDef{
		{
			Email:       "dev+admin@outreach.example",
			Password:    "Umami+admin+dev!",
			Role:        account.RoleAdmin,
			StudentName: "", // staff accounts have no student profile
		},
		{
			Email:       "dev+onsite@outreach.example",
			Password:    "Umami+onsite+dev!",
			Role:        account.RoleOnsite,
			StudentName: "",
		},
		{
			Email:       "dev+student@outreach.example",
			Password:    "Umami+student+dev!",
			Role:        account.RoleStudent,
			StudentName: "Test Student",
		},
	}
}

// ExecuteSeedTestAccounts creates test accounts for each role if they don't already exist.
// It is idempotent: accounts that already exist (checked by email) are skipped.
// PRE: Database is migrated, admin seed has run.
// POST: 3 test accounts exist with correct roles; 1 student profile for the student account.
func ExecuteSeedTestAccounts(ctx context.Context, deps TestAccountSeedDeps) error {
	created := 0
	for _, def := range testAccounts() {
		// Check if account already exists
		_, err := deps.AccountStore.GetByEmail(ctx, def.Email)
		if err == nil {
			continue // already exists
		}

		acct := account.Account{
			ID:        uuid.New().String(),
			Email:     def.Email,
			Role:      def.Role,
			CreatedAt: time.Now(),
		}
		if err := acct.SetPassword(def.Password); err != nil {
			return fmt.Errorf("seed test account %s: set password: %w", def.Email, err)
		}
		acct, err = deps.AccountStore.Create(ctx, acct)
		if err != nil {
			return fmt.Errorf("seed test account %s: create: %w", def.Email, err)
		}

		// Create student profile for student-role accounts
		if def.StudentName != "" {
			st := student.Student{
				ID:        uuid.New().String(),
				AccountID: acct.ID,
				Name:      def.StudentName,
				Status:    student.StatusActive,
				CreatedAt: time.Now(),
			}
			if err := deps.StudentStore.Save(ctx, st); err != nil {
				return fmt.Errorf("seed test student %s: save: %w", def.StudentName, err)
			}
		}

		created++
		slog.Info("seed_event", "event", "test_account_created", "email", def.Email, "role", def.Role, "id_number", acct.IDNumber)
	}

	if created > 0 {
		slog.Info("seed_event", "event", "test_accounts_seeded", "created", created)
	}
	return nil
}
