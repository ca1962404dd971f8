package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
)

// financeService handles deposit records.
type financeService struct {
	db       *gorm.DB
	currency string
}

// NewFinanceService creates a new FinanceServicer. currency labels amounts
// in error messages.
func NewFinanceService(db *gorm.DB, currency string) FinanceServicer {
	return &financeService{db: db, currency: currency}
}

func (s *financeService) newFinance(in CreateFinanceInput) (*models.Finance, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	status := in.Status
	if status == "" {
		status = models.StatusApproved
	}
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	now := time.Now()
	finance := &models.Finance{
		Amount:      in.Amount,
		Description: in.Description,
		DepositedBy: in.DepositedBy,
		Status:      status,
		DepositedAt: now,
	}
	if in.DepositedAt != nil {
		finance.DepositedAt = *in.DepositedAt
	}
	if status == models.StatusApproved {
		finance.ApprovedBy = in.DepositedBy
		finance.ApprovedAt = &now
	}
	return finance, nil
}

// CreateFinance records a deposit. Deposits are approved unless the caller
// asks otherwise.
func (s *financeService) CreateFinance(in CreateFinanceInput) (*models.Finance, error) {
	finance, err := s.newFinance(in)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(finance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return finance, nil
}

// ImportFinances records every row or none of them.
func (s *financeService) ImportFinances(rows []CreateFinanceInput) ([]models.Finance, error) {
	if len(rows) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No rows to import")
	}

	finances := make([]models.Finance, 0, len(rows))
	for i, row := range rows {
		finance, err := s.newFinance(row)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, apperrors.WithMessage(appErr, fmt.Sprintf("Row %d: %s", i+1, appErr.Message))
			}
			return nil, err
		}
		finances = append(finances, *finance)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&finances, 100).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return finances, nil
}

// GetFinance returns a deposit by ID.
func (s *financeService) GetFinance(id string) (*models.Finance, error) {
	var finance models.Finance
	if err := s.db.Where("id = ?", id).First(&finance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFinanceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &finance, nil
}

// ListFinances returns a page of deposits, newest first.
func (s *financeService) ListFinances(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Finance], error) {
	page.Defaults()

	base := s.db.Model(&models.Finance{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		base = base.Where("deposited_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("deposited_at <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		base = base.Where("LOWER(description) LIKE ? ESCAPE '!'", likePattern(filter.Search))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var finances []models.Finance
	if err := base.Order("deposited_at DESC").Scopes(pagination.Paginate(page)).Find(&finances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(finances, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UpdateFinance applies the supplied fields. Lowering an approved deposit
// must leave every committed allocation covered.
func (s *financeService) UpdateFinance(id string, in UpdateFinanceInput) (*models.Finance, error) {
	updates := make(map[string]interface{})
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *in.Amount
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.DepositedBy != nil {
		updates["deposited_by"] = *in.DepositedBy
	}
	if in.DepositedAt != nil {
		updates["deposited_at"] = *in.DepositedAt
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		finance, err := lockFinance(tx, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if in.Amount != nil && finance.Status == models.StatusApproved {
			if err := s.checkStillCovers(tx, finance.Amount-*in.Amount); err != nil {
				return err
			}
		}
		if err := tx.Model(finance).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetFinance(id)
}

// DeleteFinance hard-deletes a deposit. An approved deposit can only go
// while the remaining deposits cover every committed allocation.
func (s *financeService) DeleteFinance(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		finance, err := lockFinance(tx, id)
		if err != nil {
			return err
		}
		if finance.Status == models.StatusApproved {
			if err := s.checkStillCovers(tx, finance.Amount); err != nil {
				return err
			}
		}
		if err := tx.Delete(finance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// lockFinance takes the system ledger lock and loads the deposit.
func lockFinance(tx *gorm.DB, id string) (*models.Finance, error) {
	if err := lockSystemLedger(tx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var finance models.Finance
	if err := tx.Where("id = ?", id).First(&finance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFinanceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &finance, nil
}

// checkStillCovers refuses to withdraw removed from the approved deposits
// when allocations already draw on it.
func (s *financeService) checkStillCovers(tx *gorm.DB, removed money.Amount) error {
	if removed <= 0 {
		return nil
	}
	available, err := committedAvailable(tx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if available-removed < 0 {
		if available < 0 {
			available = 0
		}
		return apperrors.WithMessage(apperrors.ErrFinanceAllocated,
			fmt.Sprintf("Deposit is already allocated. Unallocated: %s", available.Currency(s.currency)))
	}
	return nil
}

// ApproveFinance moves a pending deposit to approved.
func (s *financeService) ApproveFinance(id, approvedBy string) (*models.Finance, error) {
	return s.transition(id, approvedBy, models.StatusApproved)
}

// RejectFinance moves a pending deposit to rejected.
func (s *financeService) RejectFinance(id, approvedBy string) (*models.Finance, error) {
	return s.transition(id, approvedBy, models.StatusRejected)
}

func (s *financeService) transition(id, approvedBy string, to models.Status) (*models.Finance, error) {
	var finance models.Finance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&finance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrFinanceNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if finance.Status != models.StatusPending {
			return apperrors.ErrInvalidStatusTransition
		}

		now := time.Now()
		finance.Status = to
		finance.ApprovedBy = &approvedBy
		finance.ApprovedAt = &now
		updates := map[string]interface{}{
			"status":      to,
			"approved_by": approvedBy,
			"approved_at": now,
		}
		if err := tx.Model(&finance).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &finance, nil
}
