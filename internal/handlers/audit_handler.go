package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// AuditHandler exposes the audit trail to admins
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs handles listing audit entries
// @Summary     List audit log
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       user_id query string false "Filter by actor"
// @Param       action query string false "Filter by action, e.g. CREATE_ALLOCATION"
// @Param       resource_type query string false "Filter by resource type"
// @Param       resource_id query string false "Filter by resource ID"
// @Param       from_date query string false "On or after (YYYY-MM-DD)"
// @Param       to_date query string false "On or before (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit entries"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.auditService.ListAuditLogs(page, services.AuditFilter{
		UserID:       c.Query("user_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		FromDate:     from,
		ToDate:       to,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
