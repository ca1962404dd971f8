package services

import (
	"strings"
	"testing"

	"fundledger/internal/testutil"
	"fundledger/internal/uuid"
)

func TestAuditService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	admin := testutil.CreateTestAdmin(t, db)
	allocationID := uuid.New()

	svc.Log(admin.ID, "CREATE_ALLOCATION", "allocation", allocationID, "127.0.0.1", map[string]interface{}{"amount": "600.00"})
	svc.Log(admin.ID, "APPROVE_EXPENSE", "expense", uuid.New(), "127.0.0.1", nil)

	t.Run("all", func(t *testing.T) {
		page, err := svc.ListAuditLogs(paginationFirst(), AuditFilter{})
		testutil.AssertNoError(t, err)
		if page.Pagination.Total != 2 {
			t.Errorf("expected 2 entries, got %d", page.Pagination.Total)
		}
	})

	t.Run("by_resource", func(t *testing.T) {
		page, err := svc.ListAuditLogs(paginationFirst(), AuditFilter{ResourceType: "allocation", ResourceID: allocationID})
		testutil.AssertNoError(t, err)
		if page.Pagination.Total != 1 {
			t.Fatalf("expected 1 entry, got %d", page.Pagination.Total)
		}
		if !strings.Contains(page.Data[0].Changes, `"amount":"600.00"`) {
			t.Errorf("expected changes JSON, got %q", page.Data[0].Changes)
		}
	})

	t.Run("by_action", func(t *testing.T) {
		page, err := svc.ListAuditLogs(paginationFirst(), AuditFilter{Action: "APPROVE_EXPENSE"})
		testutil.AssertNoError(t, err)
		if page.Pagination.Total != 1 || page.Data[0].Changes != "" {
			t.Errorf("unexpected page: %+v", page.Data)
		}
	})
}
