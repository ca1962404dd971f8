package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// ProjectHandler handles project and membership requests
type ProjectHandler struct {
	projectService services.ProjectServicer
	auditService   services.AuditServicer
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService services.ProjectServicer, auditService services.AuditServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, auditService: auditService}
}

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	ProjectCode  string               `json:"project_code" binding:"required,project_code"`
	Name         string               `json:"name" binding:"required,max=200"`
	Description  string               `json:"description" binding:"max=2000"`
	Status       models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
	ExpenseTypes []string             `json:"expense_types" binding:"omitempty,dive,required,max=50"`
	StartDate    string               `json:"start_date" example:"2026-01-01"`
	EndDate      string               `json:"end_date" example:"2026-12-31"`
}

// UpdateProjectRequest represents the request body for updating a project
type UpdateProjectRequest struct {
	Name         *string               `json:"name" binding:"omitempty,max=200"`
	Description  *string               `json:"description" binding:"omitempty,max=2000"`
	Status       *models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
	ExpenseTypes *[]string             `json:"expense_types" binding:"omitempty,dive,required,max=50"`
	StartDate    *string               `json:"start_date"`
	EndDate      *string               `json:"end_date"`
}

// AssignUserRequest names the user to add to a project
type AssignUserRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// CreateProject handles project creation
// @Summary     Create project
// @Description Create a project. The code is upper-cased and must be unique.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProjectRequest true "Project data"
// @Success     201 {object} models.Project "Created project"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate project code"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := optionalTime(req.StartDate, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := optionalTime(req.EndDate, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not be before start_date"))
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		ProjectCode:  req.ProjectCode,
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		ExpenseTypes: req.ExpenseTypes,
		StartDate:    start,
		EndDate:      end,
		CreatedBy:    userID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT", "project", project.ID, c.ClientIP(),
		map[string]interface{}{"project_code": project.ProjectCode, "name": project.Name})

	respondOK(c, http.StatusCreated, project)
}

// ListProjects handles listing projects
// @Summary     List projects
// @Description Admins see every project; other users see the projects they are assigned to.
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       status query string false "Filter by status"
// @Param       search query string false "Match code or name"
// @Success     200 {object} pagination.PageResponse[models.Project] "Paginated projects"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.ProjectFilter{Search: c.Query("search")}
	if !isAdmin(c) {
		filter.UserID = userID
	}
	h.listProjects(c, filter)
}

// MyProjects handles listing the caller's assigned projects
// @Summary     List my projects
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       status query string false "Filter by status"
// @Success     200 {object} pagination.PageResponse[models.Project] "Paginated projects"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /projects/mine [get]
func (h *ProjectHandler) MyProjects(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.listProjects(c, services.ProjectFilter{UserID: userID, Search: c.Query("search")})
}

func (h *ProjectHandler) listProjects(c *gin.Context, filter services.ProjectFilter) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	if v := c.Query("status"); v != "" {
		status := models.ProjectStatus(v)
		if !status.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid project status"))
			return
		}
		filter.Status = &status
	}

	result, err := h.projectService.ListProjects(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// authorizeProject lets admins through and requires other callers to be
// assigned to the project.
func (h *ProjectHandler) authorizeProject(c *gin.Context, projectID string) error {
	if isAdmin(c) {
		return nil
	}
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	assigned, err := h.projectService.IsAssigned(projectID, userID)
	if err != nil {
		return err
	}
	if !assigned {
		return apperrors.ErrUserNotAssigned
	}
	return nil
}

// GetProject handles retrieving one project
// @Summary     Get project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.Project "Project"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     403 {object} ErrorResponse "Not assigned"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.authorizeProject(c, id); err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetProject(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, project)
}

// UpdateProject handles updating a project
// @Summary     Update project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       request body UpdateProjectRequest true "Fields to change"
// @Success     200 {object} models.Project "Updated project"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
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

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		ExpenseTypes: req.ExpenseTypes,
	}
	if req.StartDate != nil {
		if in.StartDate, err = optionalTime(*req.StartDate, "start_date"); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.EndDate != nil {
		if in.EndDate, err = optionalTime(*req.EndDate, "end_date"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	project, err := h.projectService.UpdateProject(id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	h.auditService.Log(userID, "UPDATE_PROJECT", "project", id, c.ClientIP(), changes)

	respondOK(c, http.StatusOK, project)
}

// DeleteProject handles soft-deleting a project
// @Summary     Delete project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} SuccessResponse "Project deleted"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

	if err := h.projectService.DeleteProject(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT", "project", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// AssignUser handles adding a member to a project
// @Summary     Assign user to project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       request body AssignUserRequest true "User to assign"
// @Success     201 {object} models.ProjectUser "Assignment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Project or user not found"
// @Failure     409 {object} ErrorResponse "Already assigned"
// @Router      /projects/{id}/members [post]
func (h *ProjectHandler) AssignUser(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.projectService.AssignUser(projectID, req.UserID, adminID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "ASSIGN_PROJECT_USER", "project", projectID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID})

	respondOK(c, http.StatusCreated, member)
}

// UnassignUser handles removing a member from a project
// @Summary     Unassign user from project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       userId path string true "User ID"
// @Success     200 {object} SuccessResponse "User unassigned"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     403 {object} ErrorResponse "User not assigned"
// @Router      /projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) UnassignUser(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.UnassignUser(projectID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "UNASSIGN_PROJECT_USER", "project", projectID, c.ClientIP(),
		map[string]interface{}{"user_id": userID})

	respondOK(c, http.StatusOK, gin.H{"message": "User unassigned from project"})
}

// ListMembers handles listing a project's members
// @Summary     List project members
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {array} models.ProjectUser "Members"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     403 {object} ErrorResponse "Not assigned"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id}/members [get]
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.authorizeProject(c, projectID); err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.projectService.ListMembers(projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, members)
}
