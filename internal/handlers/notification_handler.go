package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// NotificationHandler handles the caller's in-app notifications
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications handles listing the caller's notifications
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       unread query bool false "Only unread notifications"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Paginated notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	unreadOnly := false
	if v := c.Query("unread"); v != "" {
		if unreadOnly, err = strconv.ParseBool(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid unread"))
			return
		}
	}

	result, err := h.notificationService.ListNotifications(userID, page, unreadOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UnreadCount handles counting the caller's unread notifications
// @Summary     Unread notification count
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead handles marking one notification read
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification "Notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.notificationService.MarkRead(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, notification)
}

// MarkAllRead handles marking every notification read
// @Summary     Mark all notifications read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Number of notifications marked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"updated": updated})
}
