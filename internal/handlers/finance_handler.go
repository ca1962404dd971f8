package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
	"fundledger/internal/reports"
	"fundledger/internal/services"
)

// FinanceHandler handles deposit record requests
type FinanceHandler struct {
	financeService services.FinanceServicer
	auditService   services.AuditServicer
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(financeService services.FinanceServicer, auditService services.AuditServicer) *FinanceHandler {
	return &FinanceHandler{financeService: financeService, auditService: auditService}
}

// CreateFinanceRequest represents the request body for recording a deposit
type CreateFinanceRequest struct {
	Amount      money.Amount  `json:"amount" binding:"positive_amount" swaggertype:"string" example:"1500000.00"`
	Description string        `json:"description" binding:"max=1000"`
	DepositedBy *string       `json:"deposited_by" binding:"omitempty,uuid"`
	Status      models.Status `json:"status" binding:"omitempty,record_status"`
	DepositedAt string        `json:"deposited_at" example:"2026-03-01"`
}

// UpdateFinanceRequest represents the request body for updating a deposit.
// Status changes go through the approve and reject endpoints.
type UpdateFinanceRequest struct {
	Amount      *money.Amount `json:"amount" swaggertype:"string" example:"1500000.00"`
	Description *string       `json:"description" binding:"omitempty,max=1000"`
	DepositedBy *string       `json:"deposited_by" binding:"omitempty,uuid"`
	DepositedAt *string       `json:"deposited_at"`
}

// ImportResponse reports a bulk import.
type ImportResponse struct {
	Imported int              `json:"imported"`
	Finances []models.Finance `json:"finances"`
}

// CreateFinance handles recording a deposit
// @Summary     Record deposit
// @Description Record a deposit into the system fund pool. Status defaults to approved.
// @Tags        finances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFinanceRequest true "Deposit data"
// @Success     201 {object} models.Finance "Created deposit"
// @Failure     400 {object} ErrorResponse "Invalid input or amount"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finances [post]
func (h *FinanceHandler) CreateFinance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFinanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	depositedAt, err := optionalTime(req.DepositedAt, "deposited_at")
	if err != nil {
		respondWithError(c, err)
		return
	}
	depositedBy := req.DepositedBy
	if depositedBy == nil {
		depositedBy = &userID
	}

	finance, err := h.financeService.CreateFinance(services.CreateFinanceInput{
		Amount:      req.Amount,
		Description: req.Description,
		DepositedBy: depositedBy,
		Status:      req.Status,
		DepositedAt: depositedAt,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_FINANCE", "finance", finance.ID, c.ClientIP(),
		map[string]interface{}{"amount": finance.Amount.String(), "status": finance.Status})

	respondOK(c, http.StatusCreated, finance)
}

// ListFinances handles listing deposits
// @Summary     List deposits
// @Tags        finances
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       status query string false "Filter by status (pending, approved, rejected)"
// @Param       from_date query string false "Deposited on or after (YYYY-MM-DD)"
// @Param       to_date query string false "Deposited on or before (YYYY-MM-DD)"
// @Param       search query string false "Match description"
// @Success     200 {object} pagination.PageResponse[models.Finance] "Paginated deposits"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finances [get]
func (h *FinanceHandler) ListFinances(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	status, err := parseStatusQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.financeService.ListFinances(page, services.FinanceFilter{
		Status:   status,
		FromDate: from,
		ToDate:   to,
		Search:   c.Query("search"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFinance handles retrieving one deposit
// @Summary     Get deposit
// @Tags        finances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Finance ID"
// @Success     200 {object} models.Finance "Deposit"
// @Failure     400 {object} ErrorResponse "Invalid finance ID"
// @Failure     404 {object} ErrorResponse "Finance not found"
// @Router      /finances/{id} [get]
func (h *FinanceHandler) GetFinance(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	finance, err := h.financeService.GetFinance(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, finance)
}

// UpdateFinance handles updating a deposit
// @Summary     Update deposit
// @Tags        finances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Finance ID"
// @Param       request body UpdateFinanceRequest true "Fields to change"
// @Success     200 {object} models.Finance "Updated deposit"
// @Failure     400 {object} ErrorResponse "Invalid input or amount"
// @Failure     404 {object} ErrorResponse "Finance not found"
// @Failure     409 {object} ErrorResponse "Deposit already allocated"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finances/{id} [put]
func (h *FinanceHandler) UpdateFinance(c *gin.Context) {
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

	var req UpdateFinanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.UpdateFinanceInput{
		Amount:      req.Amount,
		Description: req.Description,
		DepositedBy: req.DepositedBy,
	}
	if req.DepositedAt != nil {
		if in.DepositedAt, err = optionalTime(*req.DepositedAt, "deposited_at"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	finance, err := h.financeService.UpdateFinance(id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_FINANCE", "finance", id, c.ClientIP(),
		map[string]interface{}{"amount": finance.Amount.String()})

	respondOK(c, http.StatusOK, finance)
}

// DeleteFinance handles deleting a deposit
// @Summary     Delete deposit
// @Tags        finances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Finance ID"
// @Success     200 {object} SuccessResponse "Deposit deleted"
// @Failure     400 {object} ErrorResponse "Invalid finance ID"
// @Failure     404 {object} ErrorResponse "Finance not found"
// @Failure     409 {object} ErrorResponse "Deposit already allocated"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finances/{id} [delete]
func (h *FinanceHandler) DeleteFinance(c *gin.Context) {
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

	if err := h.financeService.DeleteFinance(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_FINANCE", "finance", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, gin.H{"message": "Finance record deleted successfully"})
}

// ApproveFinance handles approving a pending deposit
// @Summary     Approve deposit
// @Tags        finances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Finance ID"
// @Success     200 {object} models.Finance "Approved deposit"
// @Failure     404 {object} ErrorResponse "Finance not found"
// @Failure     409 {object} ErrorResponse "Deposit is not pending"
// @Router      /finances/{id}/approve [post]
func (h *FinanceHandler) ApproveFinance(c *gin.Context) {
	h.transition(c, "APPROVE_FINANCE", h.financeService.ApproveFinance)
}

// RejectFinance handles rejecting a pending deposit
// @Summary     Reject deposit
// @Tags        finances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Finance ID"
// @Success     200 {object} models.Finance "Rejected deposit"
// @Failure     404 {object} ErrorResponse "Finance not found"
// @Failure     409 {object} ErrorResponse "Deposit is not pending"
// @Router      /finances/{id}/reject [post]
func (h *FinanceHandler) RejectFinance(c *gin.Context) {
	h.transition(c, "REJECT_FINANCE", h.financeService.RejectFinance)
}

func (h *FinanceHandler) transition(c *gin.Context, action string, apply func(id, approvedBy string) (*models.Finance, error)) {
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

	finance, err := apply(id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "finance", id, c.ClientIP(),
		map[string]interface{}{"status": finance.Status})

	respondOK(c, http.StatusOK, finance)
}

// ImportFinances handles a bulk deposit upload
// @Summary     Import deposits
// @Description Import deposits from a CSV or XLSX file with the columns amount, description, deposited_at and status. Either every row is recorded or none.
// @Tags        finances
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV or XLSX file"
// @Success     201 {object} ImportResponse "Imported deposits"
// @Failure     400 {object} ErrorResponse "Invalid file or row"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /finances/import [post]
func (h *FinanceHandler) ImportFinances(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUploadFailed, err))
		return
	}
	defer f.Close()

	rows, err := reports.ParseFinanceImport(fh.Filename, f, userID)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	finances, err := h.financeService.ImportFinances(rows)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_FINANCES", "finance", "", c.ClientIP(),
		map[string]interface{}{"file": fh.Filename, "rows": len(finances)})

	respondOK(c, http.StatusCreated, ImportResponse{Imported: len(finances), Finances: finances})
}
