package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/filestore"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
)

// allocationService moves system funds into projects.
type allocationService struct {
	db       *gorm.DB
	ledger   LedgerServicer
	balances ProjectBalanceServicer
	files    filestore.Store
	notifier NotificationServicer
	currency string
}

// NewAllocationService creates a new AllocationServicer. files and notifier
// may be nil; uploads then fail and notifications are skipped.
func NewAllocationService(
	db *gorm.DB,
	balances ProjectBalanceServicer,
	files filestore.Store,
	notifier NotificationServicer,
	currency string,
) AllocationServicer {
	return &allocationService{
		db:       db,
		ledger:   NewLedgerService(db),
		balances: balances,
		files:    files,
		notifier: notifier,
		currency: currency,
	}
}

func insufficientSystemBalance(available money.Amount, currency string) error {
	return apperrors.WithMessage(apperrors.ErrInsufficientSystemBalance,
		fmt.Sprintf("Insufficient system balance. Available: %s", available.Currency(currency)))
}

// checkAvailable fails unless need fits in the committed available balance.
// The caller must hold the system ledger lock.
func (s *allocationService) checkAvailable(tx *gorm.DB, need money.Amount) error {
	available, err := committedAvailable(tx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if available < need {
		if available < 0 {
			available = 0
		}
		return insufficientSystemBalance(available, s.currency)
	}
	return nil
}

// checkStillCovered refuses to take removed out of a project's approved
// allocations when what is left would no longer cover its approved expenses.
func (s *allocationService) checkStillCovered(tx *gorm.DB, projectID string, removed money.Amount) error {
	if removed <= 0 {
		return nil
	}
	if err := lockProjectRow(tx, projectID); err != nil {
		return err
	}
	allocated, spent, err := projectTotals(tx, projectID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if allocated-removed < spent {
		unspent := allocated - spent
		if unspent < 0 {
			unspent = 0
		}
		return apperrors.WithMessage(apperrors.ErrAllocationSpent,
			fmt.Sprintf("Allocation is already spent. Unspent in project: %s", unspent.Currency(s.currency)))
	}
	return nil
}

func lockAllocation(tx *gorm.DB, id string) (*models.Allocation, error) {
	if err := lockSystemLedger(tx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var allocation models.Allocation
	if err := tx.Where("id = ?", id).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &allocation, nil
}

// CreateAllocation earmarks funds for a project. The checks run in order:
// project exists, project open, amount positive, funds available, proof
// stored.
func (s *allocationService) CreateAllocation(in CreateAllocationInput) (*models.Allocation, error) {
	status := in.Status
	if status == "" {
		status = models.StatusApproved
	}
	if status != models.StatusPending && status != models.StatusApproved {
		return nil, apperrors.ErrInvalidStatus
	}

	var allocation *models.Allocation
	var storedPath string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockSystemLedger(tx); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		project, err := findProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if !project.AcceptsAllocations() {
			return apperrors.ErrProjectClosed
		}
		if !in.Amount.IsPositive() {
			return apperrors.ErrInvalidAmount
		}
		if err := s.checkAvailable(tx, in.Amount); err != nil {
			return err
		}

		if in.Proof != nil {
			path, err := storeUpload(s.files, in.Proof, filestore.ProofFolder)
			if err != nil {
				return err
			}
			storedPath = path
		}

		now := time.Now()
		allocation = &models.Allocation{
			ProjectID:   project.ID,
			Amount:      in.Amount,
			Description: in.Description,
			ProofImage:  storedPath,
			AllocatedBy: in.AllocatedBy,
			Status:      status,
			AllocatedAt: now,
		}
		if in.AllocatedAt != nil {
			allocation.AllocatedAt = *in.AllocatedAt
		}
		if status == models.StatusApproved {
			allocation.ApprovedBy = &in.AllocatedBy
			allocation.ApprovedAt = &now
		}

		if err := tx.Create(allocation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.balances.ApplyAllocation(tx, project.ID, status, allocation.Amount)
	})
	if err != nil {
		removeStoredFile(s.files, storedPath)
		return nil, err
	}

	if status == models.StatusApproved {
		s.notifyAllocation(allocation)
	}
	return allocation, nil
}

// GetAllocation returns an allocation with its project.
func (s *allocationService) GetAllocation(id string) (*models.Allocation, error) {
	var allocation models.Allocation
	if err := s.db.Preload("Project").Where("id = ?", id).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &allocation, nil
}

// ListAllocations returns a page of allocations, newest first.
func (s *allocationService) ListAllocations(page pagination.PageRequest, filter AllocationFilter) (*pagination.PageResponse[models.Allocation], error) {
	page.Defaults()

	base := s.db.Model(&models.Allocation{})
	if filter.ProjectID != "" {
		base = base.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		base = base.Where("allocated_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("allocated_at <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allocations []models.Allocation
	if err := base.Preload("Project").Order("allocated_at DESC").Scopes(pagination.Paginate(page)).Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(allocations, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UpdateAllocation applies the supplied fields. Growing the amount checks
// only the increase against the available balance. Shrinking or moving an
// approved allocation must leave its project's approved expenses covered.
// Status cannot change here.
func (s *allocationService) UpdateAllocation(id string, in UpdateAllocationInput) (*models.Allocation, error) {
	var storedPath, oldProof string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		allocation, err := lockAllocation(tx, id)
		if err != nil {
			return err
		}

		if in.Status != nil {
			if !in.Status.Valid() {
				return apperrors.ErrInvalidStatus
			}
			if *in.Status != allocation.Status {
				return apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
					"Use the approve or reject endpoints to change an allocation's status")
			}
		}

		updates := make(map[string]interface{})

		projectID := allocation.ProjectID
		if in.ProjectID != nil && *in.ProjectID != allocation.ProjectID {
			project, err := findProject(tx, *in.ProjectID)
			if err != nil {
				return err
			}
			if !project.AcceptsAllocations() {
				return apperrors.ErrProjectClosed
			}
			projectID = project.ID
			updates["project_id"] = projectID
		}

		amount := allocation.Amount
		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return apperrors.ErrInvalidAmount
			}
			delta := *in.Amount - allocation.Amount
			if delta > 0 && allocation.Status != models.StatusRejected {
				if err := s.checkAvailable(tx, delta); err != nil {
					return err
				}
			}
			if delta != 0 {
				amount = *in.Amount
				updates["amount"] = amount
			}
		}

		if allocation.Status == models.StatusApproved {
			removed := allocation.Amount - amount
			if projectID != allocation.ProjectID {
				removed = allocation.Amount
			}
			if err := s.checkStillCovered(tx, allocation.ProjectID, removed); err != nil {
				return err
			}
		}

		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.AllocatedAt != nil {
			updates["allocated_at"] = *in.AllocatedAt
		}

		if in.Proof != nil {
			path, err := storeUpload(s.files, in.Proof, filestore.ProofFolder)
			if err != nil {
				return err
			}
			storedPath = path
			updates["proof_image"] = path
		}

		if len(updates) == 0 {
			return nil
		}

		before := *allocation
		if err := tx.Model(allocation).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if projectID != before.ProjectID || amount != before.Amount {
			if err := s.balances.ApplyAllocation(tx, before.ProjectID, before.Status, -before.Amount); err != nil {
				return err
			}
			if err := s.balances.ApplyAllocation(tx, projectID, before.Status, amount); err != nil {
				return err
			}
		}

		if storedPath != "" {
			oldProof = before.ProofImage
		}
		return nil
	})
	if err != nil {
		removeStoredFile(s.files, storedPath)
		return nil, err
	}

	removeStoredFile(s.files, oldProof)
	return s.GetAllocation(id)
}

// DeleteAllocation hard-deletes an allocation and its proof file. An approved
// allocation can only go while the rest of the project still covers what
// was spent.
func (s *allocationService) DeleteAllocation(id string) error {
	var proof string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		allocation, err := lockAllocation(tx, id)
		if err != nil {
			return err
		}
		if allocation.Status == models.StatusApproved {
			if err := s.checkStillCovered(tx, allocation.ProjectID, allocation.Amount); err != nil {
				return err
			}
		}
		if err := tx.Delete(allocation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		proof = allocation.ProofImage
		return s.balances.ApplyAllocation(tx, allocation.ProjectID, allocation.Status, -allocation.Amount)
	})
	if err != nil {
		return err
	}

	removeStoredFile(s.files, proof)
	return nil
}

// ApproveAllocation moves a pending allocation to approved. The project must
// still accept allocations and the deposits must still cover every
// committed allocation.
func (s *allocationService) ApproveAllocation(id, approvedBy string) (*models.Allocation, error) {
	var allocation *models.Allocation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		allocation, err = lockAllocation(tx, id)
		if err != nil {
			return err
		}
		if allocation.Status != models.StatusPending {
			return apperrors.ErrInvalidStatusTransition
		}

		project, err := findProject(tx, allocation.ProjectID)
		if err != nil {
			return err
		}
		if !project.AcceptsAllocations() {
			return apperrors.ErrProjectClosed
		}

		// committedAvailable already counts this pending allocation.
		if err := s.checkAvailable(tx, 0); err != nil {
			return err
		}

		if err := s.setStatus(tx, allocation, models.StatusApproved, approvedBy); err != nil {
			return err
		}
		return s.balances.UpdateAllocation(tx, allocation.ProjectID, allocation.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.notifyAllocation(allocation)
	return allocation, nil
}

// RejectAllocation moves a pending allocation to rejected, releasing its funds.
func (s *allocationService) RejectAllocation(id, approvedBy string) (*models.Allocation, error) {
	var allocation *models.Allocation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		allocation, err = lockAllocation(tx, id)
		if err != nil {
			return err
		}
		if allocation.Status != models.StatusPending {
			return apperrors.ErrInvalidStatusTransition
		}

		if err := s.setStatus(tx, allocation, models.StatusRejected, approvedBy); err != nil {
			return err
		}
		return s.balances.UpdatePending(tx, allocation.ProjectID, -allocation.Amount)
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

func (s *allocationService) setStatus(tx *gorm.DB, allocation *models.Allocation, status models.Status, approvedBy string) error {
	now := time.Now()
	allocation.Status = status
	allocation.ApprovedBy = &approvedBy
	allocation.ApprovedAt = &now

	updates := map[string]interface{}{
		"status":      status,
		"approved_by": approvedBy,
		"approved_at": now,
	}
	if err := tx.Model(allocation).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *allocationService) notifyAllocation(allocation *models.Allocation) {
	if s.notifier == nil {
		return
	}
	bestEffort("allocation notification", func() error {
		return s.notifier.NotifyProjectMembers(allocation.ProjectID,
			models.NotificationAllocationMade,
			"Funds allocated",
			fmt.Sprintf("%s has been allocated to your project.", allocation.Amount.Currency(s.currency)),
			"allocation", allocation.ID)
	}, "allocation_id", allocation.ID)
}

// GetSystemBalance returns the system-wide balance.
func (s *allocationService) GetSystemBalance() (*SystemBalance, error) {
	return s.ledger.SystemBalance()
}

// GetProjectAllocation returns the derived balance of a project.
func (s *allocationService) GetProjectAllocation(projectID string) (*ProjectBalanceView, error) {
	return s.ledger.ProjectBalance(projectID)
}
