package testutil_test

import (
	"testing"

	"fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "projects", "project_users", "finances", "allocations", "expenses", "project_balances", "notifications", "audit_logs", "ledger_locks"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}

	var lock models.LedgerLock
	if err := db.First(&lock, "name = ?", models.SystemLedgerLock).Error; err != nil {
		t.Errorf("system ledger lock should be seeded: %v", err)
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestUser(t, a)

	var count int64
	b.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected isolated databases, found %d users in the second one", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	admin := testutil.CreateTestAdmin(t, db)
	if admin.ID == "" || !admin.IsAdmin() {
		t.Fatal("admin should have an ID and the admin role")
	}
	user := testutil.CreateTestUser(t, db)

	project := testutil.CreateTestProject(t, db, admin.ID)
	if project.Status != models.ProjectStatusActive {
		t.Errorf("expected active project, got %s", project.Status)
	}

	pu := testutil.AssignTestUser(t, db, project.ID, user.ID)
	if pu.ProjectID != project.ID || pu.UserID != user.ID {
		t.Errorf("unexpected assignment %+v", pu)
	}

	finance := testutil.CreateTestFinance(t, db, 1000)
	if finance.Amount != money.New(1000) {
		t.Errorf("expected 1000.00, got %s", finance.Amount)
	}

	allocation := testutil.CreateTestAllocation(t, db, project.ID, admin.ID, money.New(400), models.StatusApproved)
	if allocation.Status != models.StatusApproved {
		t.Errorf("expected approved allocation, got %s", allocation.Status)
	}

	expense := testutil.CreateTestExpense(t, db, project.ID, user.ID, money.New(50), models.StatusPending)
	if expense.Amount.String() != "50.00" {
		t.Errorf("expected 50.00, got %s", expense.Amount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrProjectNotFound, "custom message")
	testutil.AssertAppError(t, err, "PROJECT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
