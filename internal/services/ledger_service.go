package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
)

// ledgerService computes balances from the finance, allocation and expense
// tables. Nothing here is cached.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// sumAmount totals the amount column of model rows matching the condition.
func sumAmount(db *gorm.DB, model interface{}, query string, args ...interface{}) (money.Amount, error) {
	var total int64
	err := db.Model(model).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Where(query, args...).
		Scan(&total).Error
	return money.Amount(total), err
}

// systemTotals returns approved deposits and approved allocations.
func systemTotals(db *gorm.DB) (deposits, allocated money.Amount, err error) {
	deposits, err = sumAmount(db, &models.Finance{}, "status = ?", models.StatusApproved)
	if err != nil {
		return 0, 0, err
	}
	allocated, err = sumAmount(db, &models.Allocation{}, "status = ?", models.StatusApproved)
	if err != nil {
		return 0, 0, err
	}
	return deposits, allocated, nil
}

// committedAvailable is what new allocations may still draw on: approved
// deposits minus every allocation that has not been rejected. Pending
// allocations are already promised, so they count here even though the
// reported system balance ignores them.
func committedAvailable(db *gorm.DB) (money.Amount, error) {
	deposits, err := sumAmount(db, &models.Finance{}, "status = ?", models.StatusApproved)
	if err != nil {
		return 0, err
	}
	committed, err := sumAmount(db, &models.Allocation{}, "status <> ?", models.StatusRejected)
	if err != nil {
		return 0, err
	}
	return deposits - committed, nil
}

// projectTotals returns a project's approved allocations and approved expenses.
func projectTotals(db *gorm.DB, projectID string) (allocated, spent money.Amount, err error) {
	allocated, err = sumAmount(db, &models.Allocation{}, "project_id = ? AND status = ?", projectID, models.StatusApproved)
	if err != nil {
		return 0, 0, err
	}
	spent, err = sumAmount(db, &models.Expense{}, "project_id = ? AND status = ?", projectID, models.StatusApproved)
	if err != nil {
		return 0, 0, err
	}
	return allocated, spent, nil
}

// userAllocationBalance computes what userID may still spend in projectID:
// every approved allocation of the project minus the user's approved expenses.
func userAllocationBalance(db *gorm.DB, userID, projectID string) (*UserAllocationBalance, error) {
	allocated, err := sumAmount(db, &models.Allocation{}, "project_id = ? AND status = ?", projectID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	spent, err := sumAmount(db, &models.Expense{}, "project_id = ? AND user_id = ? AND status = ?", projectID, userID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	return &UserAllocationBalance{
		UserID:           userID,
		ProjectID:        projectID,
		Allocated:        allocated,
		Spent:            spent,
		RemainingBalance: allocated - spent,
	}, nil
}

// spendableBalance is the most userID may spend in projectID right now. With
// several assignees drawing on one pool the project's own balance can be
// lower than the user's share.
func spendableBalance(db *gorm.DB, userID, projectID string) (money.Amount, error) {
	ub, err := userAllocationBalance(db, userID, projectID)
	if err != nil {
		return 0, err
	}
	allocated, spent, err := projectTotals(db, projectID)
	if err != nil {
		return 0, err
	}
	if projectBalance := allocated - spent; projectBalance < ub.RemainingBalance {
		return projectBalance, nil
	}
	return ub.RemainingBalance, nil
}

// lockSystemLedger serializes writers that check the system-wide balance.
func lockSystemLedger(tx *gorm.DB) error {
	var lock models.LedgerLock
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		FirstOrCreate(&lock, models.LedgerLock{Name: models.SystemLedgerLock}).Error
}

// lockProject loads a live project row with a row lock held until the
// transaction ends.
func lockProject(tx *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// lockProjectRow takes the project's row lock, soft-deleted projects
// included, so allocation removals serialize with expense approvals.
func lockProjectRow(tx *gorm.DB, projectID string) error {
	var project models.Project
	err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func projectBalanceView(db *gorm.DB, project *models.Project) (*ProjectBalanceView, error) {
	deposits, systemAllocated, err := systemTotals(db)
	if err != nil {
		return nil, err
	}
	allocated, spent, err := projectTotals(db, project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectBalanceView{
		ProjectID:          project.ID,
		ProjectCode:        project.ProjectCode,
		ProjectName:        project.Name,
		Status:             project.Status,
		TotalDeposits:      deposits,
		TotalAllocated:     allocated,
		TotalSpent:         spent,
		AllocatedBalance:   allocated - spent,
		UnallocatedBalance: deposits - systemAllocated,
	}, nil
}

// SystemBalance returns deposits, allocations and the available balance.
func (s *ledgerService) SystemBalance() (*SystemBalance, error) {
	deposits, allocated, err := systemTotals(s.db)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &SystemBalance{
		TotalDeposits:    deposits,
		TotalAllocated:   allocated,
		AvailableBalance: deposits - allocated,
	}, nil
}

// ProjectBalance returns the derived balance of one project.
func (s *ledgerService) ProjectBalance(projectID string) (*ProjectBalanceView, error) {
	project, err := findProject(s.db, projectID)
	if err != nil {
		return nil, err
	}

	view, err := projectBalanceView(s.db, project)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return view, nil
}

// ProjectBalances returns a page of project balances ordered by project code.
func (s *ledgerService) ProjectBalances(page pagination.PageRequest) (*pagination.PageResponse[ProjectBalanceView], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Order("project_code ASC").Scopes(pagination.Paginate(page)).Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]ProjectBalanceView, 0, len(projects))
	for i := range projects {
		view, err := projectBalanceView(s.db, &projects[i])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		views = append(views, *view)
	}

	result := pagination.NewPageResponse(views, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UserAllocationBalance returns what a user may still spend in a project.
func (s *ledgerService) UserAllocationBalance(userID, projectID string) (*UserAllocationBalance, error) {
	if err := ensureProjectExists(s.db, projectID); err != nil {
		return nil, err
	}

	balance, err := userAllocationBalance(s.db, userID, projectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}
