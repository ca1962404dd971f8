package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/logger"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// ListAuditLogs returns a page of audit entries, newest first.
func (s *auditService) ListAuditLogs(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditLog{})
	if filter.UserID != "" {
		base = base.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		base = base.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		base = base.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		base = base.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.FromDate != nil {
		base = base.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("created_at <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PerPage, totalItems)
	return &result, nil
}
