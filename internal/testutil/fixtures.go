package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fundledger/internal/models"
	"fundledger/internal/money"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a regular user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, models.RoleUser)
}

// CreateTestAdmin creates an admin user.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("admin%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, models.RoleAdmin)
}

// CreateTestUserWithEmail creates a user with the given email and role.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", nextID()),
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProject creates an active project.
func CreateTestProject(t *testing.T, db *gorm.DB, createdBy string) *models.Project {
	t.Helper()
	return CreateTestProjectWithStatus(t, db, createdBy, models.ProjectStatusActive)
}

// CreateTestProjectWithStatus creates a project in the given status.
func CreateTestProjectWithStatus(t *testing.T, db *gorm.DB, createdBy string, status models.ProjectStatus) *models.Project {
	t.Helper()

	n := nextID()
	project := &models.Project{
		ProjectCode: fmt.Sprintf("PRJ-%04d", n),
		Name:        fmt.Sprintf("Test Project %d", n),
		Status:      status,
		CreatedBy:   createdBy,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// AssignTestUser assigns userID to projectID.
func AssignTestUser(t *testing.T, db *gorm.DB, projectID, userID string) *models.ProjectUser {
	t.Helper()

	pu := &models.ProjectUser{
		ProjectID:  projectID,
		UserID:     userID,
		AssignedAt: time.Now(),
	}
	if err := db.Create(pu).Error; err != nil {
		t.Fatalf("failed to assign test user: %v", err)
	}
	return pu
}

// CreateTestFinance inserts an approved deposit of the given major units.
func CreateTestFinance(t *testing.T, db *gorm.DB, major int64) *models.Finance {
	t.Helper()
	return CreateTestFinanceWithStatus(t, db, money.New(major), models.StatusApproved)
}

// CreateTestFinanceWithStatus inserts a deposit in the given status.
func CreateTestFinanceWithStatus(t *testing.T, db *gorm.DB, amount money.Amount, status models.Status) *models.Finance {
	t.Helper()

	finance := &models.Finance{
		Amount:      amount,
		Description: fmt.Sprintf("Test deposit %d", nextID()),
		Status:      status,
		DepositedAt: time.Now(),
	}
	if err := db.Create(finance).Error; err != nil {
		t.Fatalf("failed to create test finance: %v", err)
	}
	return finance
}

// CreateTestAllocation inserts an allocation row directly, bypassing the
// balance check and the project_balances cache.
func CreateTestAllocation(t *testing.T, db *gorm.DB, projectID, allocatedBy string, amount money.Amount, status models.Status) *models.Allocation {
	t.Helper()

	allocation := &models.Allocation{
		ProjectID:   projectID,
		Amount:      amount,
		Description: fmt.Sprintf("Test allocation %d", nextID()),
		AllocatedBy: allocatedBy,
		Status:      status,
		AllocatedAt: time.Now(),
	}
	if err := db.Create(allocation).Error; err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return allocation
}

// CreateTestExpense inserts an expense row directly, bypassing the balance
// check and the project_balances cache.
func CreateTestExpense(t *testing.T, db *gorm.DB, projectID, userID string, amount money.Amount, status models.Status) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		ProjectID:   projectID,
		UserID:      userID,
		Amount:      amount,
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Status:      status,
		SpentAt:     time.Now(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
