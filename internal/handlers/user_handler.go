package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// UserHandler handles user administration requests
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents an admin-created account
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email,max=255"`
	Password  string      `json:"password" binding:"required,min=8,max=128"`
	FirstName string      `json:"first_name" binding:"max=100"`
	LastName  string      `json:"last_name" binding:"max=100"`
	Role      models.Role `json:"role" binding:"omitempty,role"`
}

// UpdateUserRequest represents the fields an admin may change on a user
type UpdateUserRequest struct {
	FirstName *string      `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string      `json:"last_name" binding:"omitempty,max=100"`
	Role      *models.Role `json:"role" binding:"omitempty,role"`
	IsActive  *bool        `json:"is_active"`
}

// CreateUser handles account creation by an admin
// @Summary     Create user
// @Description Create a user account with an explicit role
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User data"
// @Success     201 {object} models.User "Created user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	user, err := h.userService.CreateUserWithRole(req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "CREATE_USER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role})

	respondOK(c, http.StatusCreated, user)
}

// ListUsers handles listing accounts
// @Summary     List users
// @Description List user accounts with optional role, active and search filters
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       role query string false "Filter by role (admin, user)"
// @Param       is_active query bool false "Filter by active flag"
// @Param       search query string false "Match email or name"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	filter := services.UserFilter{Search: c.Query("search")}
	if v := c.Query("role"); v != "" {
		role := models.Role(v)
		if role != models.RoleAdmin && role != models.RoleUser {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid role, must be admin or user"))
			return
		}
		filter.Role = &role
	}
	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_active"))
			return
		}
		filter.IsActive = &active
	}

	result, err := h.userService.ListUsers(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles retrieving one account
// @Summary     Get user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user)
}

// UpdateUser handles changing an account's profile, role or active flag
// @Summary     Update user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} models.User "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if id == adminID && req.IsActive != nil && !*req.IsActive {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "You cannot deactivate your own account"))
		return
	}

	user, err := h.userService.UpdateUser(id, services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "UPDATE_USER", "user", id, c.ClientIP(), map[string]interface{}{
		"role":      user.Role,
		"is_active": user.IsActive,
	})

	respondOK(c, http.StatusOK, user)
}
