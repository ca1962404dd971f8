package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// ExpenseHandler handles expense submission and approval requests
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// CreateExpenseRequest represents an expense submitted as JSON or as
// multipart form data with an optional receipt_image file.
type CreateExpenseRequest struct {
	ProjectID   string       `json:"project_id" form:"project_id" binding:"required,uuid"`
	Amount      money.Amount `json:"amount" form:"amount" swaggertype:"string" example:"250000.00"`
	Description string       `json:"description" form:"description" binding:"required,max=1000"`
	Category    string       `json:"category" form:"category" binding:"max=50"`
	SpentAt     string       `json:"spent_at" form:"spent_at" example:"2026-03-05"`
}

// UpdateExpenseRequest represents the supplied fields of an expense update.
type UpdateExpenseRequest struct {
	Amount      *money.Amount `json:"amount" form:"amount" swaggertype:"string" example:"250000.00"`
	Description *string       `json:"description" form:"description" binding:"omitempty,max=1000"`
	Category    *string       `json:"category" form:"category" binding:"omitempty,max=50"`
	SpentAt     *string       `json:"spent_at" form:"spent_at"`
}

// CreateExpense handles submitting an expense
// @Summary     Submit expense
// @Description Submit an expense against the caller's allocation balance in a project. Expenses start pending.
// @Tags        expenses
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       project_id formData string true "Project ID"
// @Param       amount formData string true "Amount"
// @Param       description formData string true "Description"
// @Param       category formData string false "Expense type"
// @Param       spent_at formData string false "Date spent (YYYY-MM-DD)"
// @Param       receipt_image formData file false "Receipt"
// @Success     201 {object} models.Expense "Submitted expense"
// @Failure     400 {object} ErrorResponse "Invalid amount, closed project, insufficient balance or upload failure"
// @Failure     403 {object} ErrorResponse "Not assigned to project"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	spentAt, err := optionalTime(req.SpentAt, "spent_at")
	if err != nil {
		respondWithError(c, err)
		return
	}

	receipt, closeReceipt, err := formUpload(c, "receipt_image")
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeReceipt()

	expense, err := h.expenseService.CreateExpense(services.CreateExpenseInput{
		ProjectID:   req.ProjectID,
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		SpentAt:     spentAt,
		Receipt:     receipt,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"project_id": expense.ProjectID, "amount": expense.Amount.String()})

	respondOK(c, http.StatusCreated, expense)
}

// ListExpenses handles listing expenses
// @Summary     List expenses
// @Description Admins see every expense; other users see their own.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       project_id query string false "Filter by project"
// @Param       user_id query string false "Filter by submitter (admins only)"
// @Param       category query string false "Filter by expense type"
// @Param       status query string false "Filter by status"
// @Param       from_date query string false "Spent on or after (YYYY-MM-DD)"
// @Param       to_date query string false "Spent on or before (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if !isAdmin(c) {
		filter.UserID = userID
	}

	result, err := h.expenseService.ListExpenses(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	filter := services.ExpenseFilter{
		ProjectID: c.Query("project_id"),
		UserID:    c.Query("user_id"),
		Category:  c.Query("category"),
	}

	status, err := parseStatusQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Status = status

	filter.FromDate, filter.ToDate, err = parseDateRange(c)
	return filter, err
}

// loadOwned fetches an expense the caller may act on. Non-admins only reach
// their own expenses.
func (h *ExpenseHandler) loadOwned(c *gin.Context) (*models.Expense, string, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, "", err
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		return nil, "", err
	}

	expense, err := h.expenseService.GetExpense(id)
	if err != nil {
		return nil, "", err
	}
	if !isAdmin(c) && expense.UserID != userID {
		return nil, "", apperrors.WithMessage(apperrors.ErrForbidden, "You can only access your own expenses")
	}
	return expense, userID, nil
}

// GetExpense handles retrieving one expense
// @Summary     Get expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     403 {object} ErrorResponse "Not your expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, _, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, expense)
}

// UpdateExpense handles updating a pending or rejected expense
// @Summary     Update expense
// @Tags        expenses
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Param       amount formData string false "Amount"
// @Param       description formData string false "Description"
// @Param       category formData string false "Expense type"
// @Param       spent_at formData string false "Date spent (YYYY-MM-DD)"
// @Param       receipt_image formData file false "Replacement receipt"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input or amount"
// @Failure     403 {object} ErrorResponse "Not your expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense already approved"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	expense, userID, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.UpdateExpenseInput{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.SpentAt != nil {
		if in.SpentAt, err = optionalTime(*req.SpentAt, "spent_at"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	receipt, closeReceipt, err := formUpload(c, "receipt_image")
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeReceipt()
	in.Receipt = receipt

	updated, err := h.expenseService.UpdateExpense(expense.ID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": updated.Amount.String(), "receipt": receipt != nil})

	respondOK(c, http.StatusOK, updated)
}

// DeleteExpense handles deleting an expense that has not been approved
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} SuccessResponse "Expense deleted"
// @Failure     403 {object} ErrorResponse "Not your expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense already approved"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	expense, userID, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(expense.ID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expense.ID, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// ApproveExpense handles approving an expense
// @Summary     Approve expense
// @Description Approve a pending or rejected expense. The balance is checked again; a project whose allocated balance is used up is marked completed.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Approved expense"
// @Failure     400 {object} ErrorResponse "Insufficient balance"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense already approved"
// @Router      /expenses/{id}/approve [post]
func (h *ExpenseHandler) ApproveExpense(c *gin.Context) {
	h.transition(c, "APPROVE_EXPENSE", h.expenseService.ApproveExpense)
}

// RejectExpense handles rejecting an expense
// @Summary     Reject expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Rejected expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense already approved"
// @Router      /expenses/{id}/reject [post]
func (h *ExpenseHandler) RejectExpense(c *gin.Context) {
	h.transition(c, "REJECT_EXPENSE", h.expenseService.RejectExpense)
}

func (h *ExpenseHandler) transition(c *gin.Context, action string, apply func(id, approvedBy string) (*models.Expense, error)) {
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

	expense, err := apply(id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "expense", id, c.ClientIP(),
		map[string]interface{}{"status": expense.Status, "amount": expense.Amount.String()})

	respondOK(c, http.StatusOK, expense)
}
