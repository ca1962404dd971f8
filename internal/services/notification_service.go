package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// notificationService stores in-app notifications.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// Create stores one notification for userID.
func (s *notificationService) Create(userID, notificationType, title, message, relatedType, relatedID string) (*models.Notification, error) {
	if userID == "" || title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user and title are required")
	}

	n := &models.Notification{
		UserID:      userID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}
	if err := s.db.Create(n).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

func (s *notificationService) fanOut(userIDs []string, notificationType, title, message, relatedType, relatedID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	batch := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		batch = append(batch, models.Notification{
			UserID:      id,
			Type:        notificationType,
			Title:       title,
			Message:     message,
			RelatedType: relatedType,
			RelatedID:   relatedID,
		})
	}
	if err := s.db.Create(&batch).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// NotifyAdmins sends the same notification to every active admin.
func (s *notificationService) NotifyAdmins(notificationType, title, message, relatedType, relatedID string) error {
	var ids []string
	err := s.db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Pluck("id", &ids).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.fanOut(ids, notificationType, title, message, relatedType, relatedID)
}

// NotifyProjectMembers sends the same notification to every user assigned to
// the project.
func (s *notificationService) NotifyProjectMembers(projectID, notificationType, title, message, relatedType, relatedID string) error {
	var ids []string
	err := s.db.Model(&models.ProjectUser{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.fanOut(ids, notificationType, title, message, relatedType, relatedID)
}

// ListNotifications returns a page of the user's notifications, newest first.
func (s *notificationService) ListNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *notificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *notificationService) MarkRead(userID, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n.IsRead {
		return &n, nil
	}

	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	if err := s.db.Model(&n).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read and returns
// how many changed.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}
