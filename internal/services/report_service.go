package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// maxExportRows bounds a single export.
const maxExportRows = 10000

// reportService gathers data for the dashboard and the export endpoints.
type reportService struct {
	db     *gorm.DB
	ledger LedgerServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db, ledger: NewLedgerService(db)}
}

func (s *reportService) countWhere(model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	err := s.db.Model(model).Where(query, args...).Count(&n).Error
	return n, err
}

// Dashboard summarizes balances and the approval queues.
func (s *reportService) Dashboard() (*DashboardSummary, error) {
	system, err := s.ledger.SystemBalance()
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{System: *system}

	if err := s.db.Model(&models.Project{}).Count(&summary.ProjectCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&summary.ActiveProjectCount, &models.Project{}, "status = ?", []interface{}{models.ProjectStatusActive}},
		{&summary.PendingExpenses, &models.Expense{}, "status = ?", []interface{}{models.StatusPending}},
		{&summary.PendingAllocations, &models.Allocation{}, "status = ?", []interface{}{models.StatusPending}},
		{&summary.PendingFinances, &models.Finance{}, "status = ?", []interface{}{models.StatusPending}},
	}
	for _, c := range counts {
		n, err := s.countWhere(c.model, c.query, c.args...)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		*c.dst = n
	}

	if summary.PendingExpenseSum, err = sumAmount(s.db, &models.Expense{}, "status = ?", models.StatusPending); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if summary.TotalSpent, err = sumAmount(s.db, &models.Expense{}, "status = ?", models.StatusApproved); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return summary, nil
}

// ExpensesForExport returns up to maxExportRows expenses matching filter.
func (s *reportService) ExpensesForExport(filter ExpenseFilter) ([]models.Expense, error) {
	var expenses []models.Expense
	err := filterExpenses(s.db, filter).
		Preload("Project").Preload("User").
		Order("spent_at ASC").
		Limit(maxExportRows).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// ProjectStatement collects a project's balance and its allocation and
// expense history.
func (s *reportService) ProjectStatement(projectID string) (*ProjectStatement, error) {
	project, err := findProject(s.db, projectID)
	if err != nil {
		return nil, err
	}

	balance, err := projectBalanceView(s.db, project)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	statement := &ProjectStatement{
		Project:     *project,
		Balance:     *balance,
		GeneratedAt: time.Now(),
	}

	if err := s.db.Where("project_id = ?", projectID).Order("allocated_at ASC").Find(&statement.Allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Preload("User").Where("project_id = ?", projectID).Order("spent_at ASC").Find(&statement.Expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return statement, nil
}
