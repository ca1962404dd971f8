package services

import (
	"testing"

	"fundledger/internal/models"
	"fundledger/internal/testutil"
	"fundledger/internal/uuid"
)

func TestNotificationService(t *testing.T) {
	t.Run("create_requires_user_and_title", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)

		_, err := svc.Create("", "x", "title", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("notify_admins_skips_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.NotifyAdmins(models.NotificationExpenseSubmitted, "t", "m", "expense", uuid.New()))

		adminCount, _ := svc.UnreadCount(admin.ID)
		userCount, _ := svc.UnreadCount(user.ID)
		if adminCount != 1 || userCount != 0 {
			t.Errorf("expected admin=1 user=0, got admin=%d user=%d", adminCount, userCount)
		}
	})

	t.Run("mark_read", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		n, err := svc.Create(user.ID, models.NotificationExpenseApproved, "Approved", "", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.Create(user.ID, models.NotificationExpenseRejected, "Rejected", "", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.MarkRead(other.ID, n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")

		read, err := svc.MarkRead(user.ID, n.ID)
		testutil.AssertNoError(t, err)
		if !read.IsRead || read.ReadAt == nil {
			t.Errorf("expected notification marked read: %+v", read)
		}

		unread, err := svc.ListNotifications(user.ID, paginationFirst(), true)
		testutil.AssertNoError(t, err)
		if unread.Pagination.Total != 1 {
			t.Errorf("expected 1 unread, got %d", unread.Pagination.Total)
		}

		changed, err := svc.MarkAllRead(user.ID)
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 changed, got %d", changed)
		}
		count, _ := svc.UnreadCount(user.ID)
		if count != 0 {
			t.Errorf("expected 0 unread, got %d", count)
		}
	})
}
