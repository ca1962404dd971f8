package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
)

// projectBalanceService maintains the project_balances cache.
//
// unallocated_balance holds allocations still awaiting approval,
// allocated_balance approved allocations minus approved expenses, and
// total_spent approved expenses. The mutators do no floor checks; callers
// validate against the ledger before writing.
type projectBalanceService struct {
	db *gorm.DB
}

// NewProjectBalanceService creates a new ProjectBalanceServicer.
func NewProjectBalanceService(db *gorm.DB) ProjectBalanceServicer {
	return &projectBalanceService{db: db}
}

func (s *projectBalanceService) shift(tx *gorm.DB, projectID string, deltas map[string]money.Amount) error {
	row := &models.ProjectBalance{ProjectID: projectID, UpdatedAt: time.Now()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	for column, delta := range deltas {
		updates[column] = gorm.Expr(column+" + ?", int64(delta))
	}
	if err := tx.Model(&models.ProjectBalance{}).Where("project_id = ?", projectID).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpdatePending adds amount to the project's allocations awaiting approval.
func (s *projectBalanceService) UpdatePending(tx *gorm.DB, projectID string, amount money.Amount) error {
	return s.shift(tx, projectID, map[string]money.Amount{
		"unallocated_balance": amount,
	})
}

// UpdateAllocation moves amount from unallocated to allocated.
func (s *projectBalanceService) UpdateAllocation(tx *gorm.DB, projectID string, amount money.Amount) error {
	return s.shift(tx, projectID, map[string]money.Amount{
		"unallocated_balance": -amount,
		"allocated_balance":   amount,
	})
}

// UpdateExpense moves amount from allocated to spent.
func (s *projectBalanceService) UpdateExpense(tx *gorm.DB, projectID string, amount money.Amount) error {
	return s.shift(tx, projectID, map[string]money.Amount{
		"allocated_balance": -amount,
		"total_spent":       amount,
	})
}

// ApplyAllocation records an allocation of amount in the given status. A
// negative amount reverses an earlier call. Rejected allocations do not touch
// the cache.
func (s *projectBalanceService) ApplyAllocation(tx *gorm.DB, projectID string, status models.Status, amount money.Amount) error {
	switch status {
	case models.StatusPending:
		return s.UpdatePending(tx, projectID, amount)
	case models.StatusApproved:
		if err := s.UpdatePending(tx, projectID, amount); err != nil {
			return err
		}
		return s.UpdateAllocation(tx, projectID, amount)
	}
	return nil
}

// Get returns the cached balance row of a project, zero-valued if no ledger
// write has touched the project yet.
func (s *projectBalanceService) Get(projectID string) (*models.ProjectBalance, error) {
	if err := ensureProjectExists(s.db, projectID); err != nil {
		return nil, err
	}

	var row models.ProjectBalance
	if err := s.db.Where("project_id = ?", projectID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.ProjectBalance{ProjectID: projectID}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &row, nil
}

// Refresh rebuilds the cached row from the ledger tables.
func (s *projectBalanceService) Refresh(projectID string) (*models.ProjectBalance, error) {
	if err := ensureProjectExists(s.db, projectID); err != nil {
		return nil, err
	}

	row := &models.ProjectBalance{ProjectID: projectID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}

		pending, err := sumAmount(tx, &models.Allocation{}, "project_id = ? AND status = ?", projectID, models.StatusPending)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		allocated, spent, err := projectTotals(tx, projectID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		row.UnallocatedBalance = pending
		row.AllocatedBalance = allocated - spent
		row.TotalSpent = spent
		row.UpdatedAt = time.Now()

		if err := tx.Save(row).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func ensureProjectExists(db *gorm.DB, projectID string) error {
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}
