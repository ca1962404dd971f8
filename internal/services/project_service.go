package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// projectService handles project administration and membership.
type projectService struct {
	db       *gorm.DB
	notifier NotificationServicer
}

// NewProjectService creates a new ProjectServicer. notifier may be nil.
func NewProjectService(db *gorm.DB, notifier NotificationServicer) ProjectServicer {
	return &projectService{db: db, notifier: notifier}
}

func normalizeExpenseTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CreateProject creates a project and its empty balance row.
func (s *projectService) CreateProject(in CreateProjectInput) (*models.Project, error) {
	code := strings.ToUpper(strings.TrimSpace(in.ProjectCode))
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project code and name are required")
	}

	status := in.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid project status")
	}

	project := &models.Project{
		ProjectCode:  code,
		Name:         name,
		Description:  in.Description,
		Status:       status,
		ExpenseTypes: normalizeExpenseTypes(in.ExpenseTypes),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		CreatedBy:    in.CreatedBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.Project{}).Where("project_code = ?", code).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateProjectCode
		}

		if err := tx.Create(project).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		balance := &models.ProjectBalance{ProjectID: project.ID, UpdatedAt: time.Now()}
		if err := tx.Create(balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject returns a project with its members.
func (s *projectService) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Members.User").Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// ListProjects returns a page of projects ordered by code. A UserID filter
// limits the list to that user's assignments.
func (s *projectService) ListProjects(page pagination.PageRequest, filter ProjectFilter) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		base = base.Where("LOWER(project_code) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	if filter.UserID != "" {
		base = base.Where("id IN (?)",
			s.db.Model(&models.ProjectUser{}).Select("project_id").Where("user_id = ?", filter.UserID))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Order("project_code ASC").Scopes(pagination.Paginate(page)).Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UpdateProject applies the supplied fields.
func (s *projectService) UpdateProject(id string, in UpdateProjectInput) (*models.Project, error) {
	project, err := findProject(s.db, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid project status")
		}
		updates["status"] = *in.Status
	}
	if in.StartDate != nil {
		updates["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		updates["end_date"] = *in.EndDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	// Serialized columns go through Select+Updates so an empty list is written.
	if in.ExpenseTypes != nil {
		project.ExpenseTypes = normalizeExpenseTypes(*in.ExpenseTypes)
		if err := s.db.Model(project).Select("expense_types").Updates(project).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetProject(id)
}

// DeleteProject soft-deletes a project. Its ledger rows stay in place.
func (s *projectService) DeleteProject(id string) error {
	project, err := findProject(s.db, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(project).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AssignUser makes userID a member of projectID.
func (s *projectService) AssignUser(projectID, userID, assignedBy string) (*models.ProjectUser, error) {
	project, err := findProject(s.db, projectID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	assigned, err := isAssigned(s.db, projectID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if assigned {
		return nil, apperrors.ErrAlreadyAssigned
	}

	member := &models.ProjectUser{
		ProjectID:  projectID,
		UserID:     userID,
		AssignedBy: assignedBy,
		AssignedAt: time.Now(),
	}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.User = &user

	if s.notifier != nil {
		bestEffort("assignment notification", func() error {
			_, err := s.notifier.Create(userID, models.NotificationProjectAssigned,
				"Assigned to project",
				fmt.Sprintf("You have been assigned to %s (%s).", project.Name, project.ProjectCode),
				"project", projectID)
			return err
		}, "project_id", projectID, "user_id", userID)
	}
	return member, nil
}

// UnassignUser removes userID from projectID.
func (s *projectService) UnassignUser(projectID, userID string) error {
	if _, err := findProject(s.db, projectID); err != nil {
		return err
	}
	result := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectUser{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotAssigned
	}
	return nil
}

// ListMembers returns the project's assignments with their users.
func (s *projectService) ListMembers(projectID string) ([]models.ProjectUser, error) {
	if _, err := findProject(s.db, projectID); err != nil {
		return nil, err
	}
	var members []models.ProjectUser
	if err := s.db.Preload("User").Where("project_id = ?", projectID).Order("assigned_at ASC").Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// IsAssigned reports whether userID is a member of projectID.
func (s *projectService) IsAssigned(projectID, userID string) (bool, error) {
	assigned, err := isAssigned(s.db, projectID, userID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assigned, nil
}
