package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// searchService runs LIKE searches across projects and ledger records.
type searchService struct {
	db *gorm.DB
}

// NewSearchService creates a new SearchServicer.
func NewSearchService(db *gorm.DB) SearchServicer {
	return &searchService{db: db}
}

// Search matches query against project codes and names and the descriptions
// of finances, allocations and expenses. Regular users see only the projects
// they are assigned to, the allocations of those projects and their own
// expenses; finances are admin-only.
func (s *searchService) Search(query string, user *models.User, limit int) (*SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	pattern := likePattern(query)
	results := &SearchResults{
		Query:       query,
		Projects:    []models.Project{},
		Finances:    []models.Finance{},
		Allocations: []models.Allocation{},
		Expenses:    []models.Expense{},
	}

	admin := user != nil && user.IsAdmin()
	userID := ""
	if user != nil {
		userID = user.ID
	}
	memberOf := func() *gorm.DB {
		return s.db.Model(&models.ProjectUser{}).Select("project_id").Where("user_id = ?", userID)
	}

	projects := s.db.Where("LOWER(project_code) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", pattern, pattern)
	if !admin {
		projects = projects.Where("id IN (?)", memberOf())
	}
	if err := projects.Order("project_code ASC").Limit(limit).Find(&results.Projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	allocations := s.db.Preload("Project").Where("LOWER(description) LIKE ? ESCAPE '!'", pattern)
	if !admin {
		allocations = allocations.Where("project_id IN (?)", memberOf())
	}
	if err := allocations.Order("allocated_at DESC").Limit(limit).Find(&results.Allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expenses := s.db.Preload("Project").Where("LOWER(description) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!'", pattern, pattern)
	if !admin {
		expenses = expenses.Where("user_id = ?", userID)
	}
	if err := expenses.Order("spent_at DESC").Limit(limit).Find(&results.Expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if admin {
		err := s.db.Where("LOWER(description) LIKE ? ESCAPE '!'", pattern).
			Order("deposited_at DESC").Limit(limit).
			Find(&results.Finances).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return results, nil
}
