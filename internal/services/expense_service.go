package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/filestore"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
)

// expenseService handles expense submission and approval.
type expenseService struct {
	db       *gorm.DB
	balances ProjectBalanceServicer
	files    filestore.Store
	notifier NotificationServicer
	currency string
}

// NewExpenseService creates a new ExpenseServicer. files and notifier may be
// nil; uploads then fail and notifications are skipped.
func NewExpenseService(
	db *gorm.DB,
	balances ProjectBalanceServicer,
	files filestore.Store,
	notifier NotificationServicer,
	currency string,
) ExpenseServicer {
	return &expenseService{
		db:       db,
		balances: balances,
		files:    files,
		notifier: notifier,
		currency: currency,
	}
}

func insufficientBalance(available money.Amount, currency string) error {
	if available < 0 {
		available = 0
	}
	return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
		fmt.Sprintf("Insufficient allocation balance. Available: %s", available.Currency(currency)))
}

// checkSpendable fails unless userID can still spend amount in projectID.
// The caller must hold the project row lock.
func (s *expenseService) checkSpendable(tx *gorm.DB, userID, projectID string, amount money.Amount) error {
	spendable, err := spendableBalance(tx, userID, projectID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if spendable < amount {
		return insufficientBalance(spendable, s.currency)
	}
	return nil
}

func isAssigned(db *gorm.DB, projectID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.ProjectUser{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func lockExpense(tx *gorm.DB, id string) (*models.Expense, error) {
	var expense models.Expense
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// CreateExpense submits a pending expense. The checks run in order: project
// exists, project open, user assigned, amount positive, category allowed,
// balance sufficient, receipt stored.
func (s *expenseService) CreateExpense(in CreateExpenseInput) (*models.Expense, error) {
	var expense *models.Expense
	var storedPath string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if !project.AcceptsExpenses() {
			return apperrors.ErrProjectClosed
		}

		assigned, err := isAssigned(tx, project.ID, in.UserID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !assigned {
			return apperrors.ErrUserNotAssigned
		}

		if !in.Amount.IsPositive() {
			return apperrors.ErrInvalidAmount
		}
		if !project.HasExpenseType(in.Category) {
			return apperrors.ErrInvalidCategory
		}
		if err := s.checkSpendable(tx, in.UserID, project.ID, in.Amount); err != nil {
			return err
		}

		if in.Receipt != nil {
			path, err := storeUpload(s.files, in.Receipt, filestore.ReceiptFolder)
			if err != nil {
				return err
			}
			storedPath = path
		}

		expense = &models.Expense{
			ProjectID:    project.ID,
			UserID:       in.UserID,
			Amount:       in.Amount,
			Description:  in.Description,
			Category:     in.Category,
			ReceiptImage: storedPath,
			Status:       models.StatusPending,
			SpentAt:      time.Now(),
		}
		if in.SpentAt != nil {
			expense.SpentAt = *in.SpentAt
		}

		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		removeStoredFile(s.files, storedPath)
		return nil, err
	}

	if s.notifier != nil {
		bestEffort("expense submission notification", func() error {
			return s.notifier.NotifyAdmins(models.NotificationExpenseSubmitted,
				"Expense awaiting approval",
				fmt.Sprintf("An expense of %s was submitted: %s", expense.Amount.Currency(s.currency), expense.Description),
				"expense", expense.ID)
		}, "expense_id", expense.ID)
	}
	return expense, nil
}

// GetExpense returns an expense with its project and submitter.
func (s *expenseService) GetExpense(id string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Project").Preload("User").Where("id = ?", id).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

func filterExpenses(db *gorm.DB, filter ExpenseFilter) *gorm.DB {
	base := db.Model(&models.Expense{})
	if filter.ProjectID != "" {
		base = base.Where("project_id = ?", filter.ProjectID)
	}
	if filter.UserID != "" {
		base = base.Where("user_id = ?", filter.UserID)
	}
	if filter.Category != "" {
		base = base.Where("category = ?", filter.Category)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		base = base.Where("spent_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("spent_at <= ?", *filter.ToDate)
	}
	return base
}

// ListExpenses returns a page of expenses, newest first.
func (s *expenseService) ListExpenses(page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := filterExpenses(s.db, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	err := base.Preload("Project").Preload("User").
		Order("spent_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// UpdateExpense applies the supplied fields to an unapproved expense.
func (s *expenseService) UpdateExpense(id string, in UpdateExpenseInput) (*models.Expense, error) {
	var storedPath, oldReceipt string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		expense, err := lockExpense(tx, id)
		if err != nil {
			return err
		}
		if expense.Status == models.StatusApproved {
			return apperrors.ErrAlreadyApproved
		}

		updates := make(map[string]interface{})
		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return apperrors.ErrInvalidAmount
			}
			updates["amount"] = *in.Amount
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Category != nil {
			project, err := findProject(tx, expense.ProjectID)
			if err != nil {
				return err
			}
			if !project.HasExpenseType(*in.Category) {
				return apperrors.ErrInvalidCategory
			}
			updates["category"] = *in.Category
		}
		if in.SpentAt != nil {
			updates["spent_at"] = *in.SpentAt
		}
		if in.Receipt != nil {
			path, err := storeUpload(s.files, in.Receipt, filestore.ReceiptFolder)
			if err != nil {
				return err
			}
			storedPath = path
			oldReceipt = expense.ReceiptImage
			updates["receipt_image"] = path
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(expense).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		removeStoredFile(s.files, storedPath)
		return nil, err
	}

	removeStoredFile(s.files, oldReceipt)
	return s.GetExpense(id)
}

// DeleteExpense hard-deletes an unapproved expense and its receipt.
func (s *expenseService) DeleteExpense(id string) error {
	var receipt string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		expense, err := lockExpense(tx, id)
		if err != nil {
			return err
		}
		if expense.Status == models.StatusApproved {
			return apperrors.ErrAlreadyApproved
		}
		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		receipt = expense.ReceiptImage
		return nil
	})
	if err != nil {
		return err
	}

	removeStoredFile(s.files, receipt)
	return nil
}

// ApproveExpense approves a pending or rejected expense after re-checking the
// balance, and completes a planning or active project once its allocation is
// used up. Closed and cancelled projects keep their status.
func (s *expenseService) ApproveExpense(id, approvedBy string) (*models.Expense, error) {
	var expense *models.Expense
	var completed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		expense, err = lockExpense(tx, id)
		if err != nil {
			return err
		}
		if expense.Status == models.StatusApproved {
			return apperrors.ErrAlreadyApproved
		}

		project, err := lockProject(tx, expense.ProjectID)
		if err != nil {
			return err
		}

		// Other approvals may have drained the balance since submission.
		if err := s.checkSpendable(tx, expense.UserID, project.ID, expense.Amount); err != nil {
			return err
		}

		if err := s.setStatus(tx, expense, models.StatusApproved, approvedBy); err != nil {
			return err
		}
		if err := s.balances.UpdateExpense(tx, project.ID, expense.Amount); err != nil {
			return err
		}

		allocated, spent, err := projectTotals(tx, project.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if allocated-spent <= 0 && spent > 0 && project.AcceptsExpenses() {
			err := tx.Model(project).Update("status", models.ProjectStatusCompleted).Error
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			completed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(expense, models.NotificationExpenseApproved, "Expense approved",
		fmt.Sprintf("Your expense of %s has been approved.", expense.Amount.Currency(s.currency)))
	if completed && s.notifier != nil {
		bestEffort("project completion notification", func() error {
			return s.notifier.NotifyProjectMembers(expense.ProjectID,
				models.NotificationProjectCompleted,
				"Project completed",
				"The project's allocated funds have been fully spent.",
				"project", expense.ProjectID)
		}, "project_id", expense.ProjectID)
	}
	return expense, nil
}

// RejectExpense rejects an unapproved expense.
func (s *expenseService) RejectExpense(id, approvedBy string) (*models.Expense, error) {
	var expense *models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		expense, err = lockExpense(tx, id)
		if err != nil {
			return err
		}
		if expense.Status == models.StatusApproved {
			return apperrors.ErrAlreadyApproved
		}
		return s.setStatus(tx, expense, models.StatusRejected, approvedBy)
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(expense, models.NotificationExpenseRejected, "Expense rejected",
		fmt.Sprintf("Your expense of %s has been rejected.", expense.Amount.Currency(s.currency)))
	return expense, nil
}

func (s *expenseService) setStatus(tx *gorm.DB, expense *models.Expense, status models.Status, approvedBy string) error {
	now := time.Now()
	expense.Status = status
	expense.ApprovedBy = &approvedBy
	expense.ApprovedAt = &now

	updates := map[string]interface{}{
		"status":      status,
		"approved_by": approvedBy,
		"approved_at": now,
	}
	if err := tx.Model(expense).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *expenseService) notifyOwner(expense *models.Expense, notificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	bestEffort("expense notification", func() error {
		_, err := s.notifier.Create(expense.UserID, notificationType, title, message, "expense", expense.ID)
		return err
	}, "expense_id", expense.ID)
}
