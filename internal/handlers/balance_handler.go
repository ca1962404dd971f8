package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// BalanceHandler serves the ledger balance views
type BalanceHandler struct {
	allocationService services.AllocationServicer
	ledgerService     services.LedgerServicer
	balanceService    services.ProjectBalanceServicer
	projectService    services.ProjectServicer
	auditService      services.AuditServicer
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(
	allocationService services.AllocationServicer,
	ledgerService services.LedgerServicer,
	balanceService services.ProjectBalanceServicer,
	projectService services.ProjectServicer,
	auditService services.AuditServicer,
) *BalanceHandler {
	return &BalanceHandler{
		allocationService: allocationService,
		ledgerService:     ledgerService,
		balanceService:    balanceService,
		projectService:    projectService,
		auditService:      auditService,
	}
}

// GetSystemBalance handles the system-wide balance
// @Summary     System balance
// @Description Approved deposits, approved allocations and the difference
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SystemBalance "System balance"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/system [get]
func (h *BalanceHandler) GetSystemBalance(c *gin.Context) {
	balance, err := h.allocationService.GetSystemBalance()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, balance)
}

// ListProjectBalances handles the per-project balance listing
// @Summary     Project balances
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Success     200 {object} pagination.PageResponse[services.ProjectBalanceView] "Paginated project balances"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/projects [get]
func (h *BalanceHandler) ListProjectBalances(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	result, err := h.ledgerService.ProjectBalances(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// authorizeProject lets admins through and requires other callers to be
// assigned to the project.
func (h *BalanceHandler) authorizeProject(c *gin.Context, projectID string) error {
	if isAdmin(c) {
		return nil
	}
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	assigned, err := h.projectService.IsAssigned(projectID, userID)
	if err != nil {
		return err
	}
	if !assigned {
		return apperrors.ErrUserNotAssigned
	}
	return nil
}

// GetProjectBalance handles one project's derived balance
// @Summary     Project balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} services.ProjectBalanceView "Project balance"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     403 {object} ErrorResponse "Not assigned"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /balances/projects/{id} [get]
func (h *BalanceHandler) GetProjectBalance(c *gin.Context) {
	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.authorizeProject(c, projectID); err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.allocationService.GetProjectAllocation(projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, balance)
}

// GetMyAllocationBalance handles the caller's remaining balance in a project
// @Summary     My allocation balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} services.UserAllocationBalance "Allocation balance"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     403 {object} ErrorResponse "Not assigned"
// @Router      /balances/projects/{id}/me [get]
func (h *BalanceHandler) GetMyAllocationBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.userBalance(c, userID)
}

// GetUserAllocationBalance handles a member's remaining balance in a project
// @Summary     User allocation balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       userId path string true "User ID"
// @Success     200 {object} services.UserAllocationBalance "Allocation balance"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /balances/projects/{id}/users/{userId} [get]
func (h *BalanceHandler) GetUserAllocationBalance(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.userBalance(c, userID)
}

func (h *BalanceHandler) userBalance(c *gin.Context, userID string) {
	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.authorizeProject(c, projectID); err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.ledgerService.UserAllocationBalance(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, balance)
}

// GetCachedBalance handles reading the project_balances cache row
// @Summary     Cached project balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.ProjectBalance "Cached balance"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /balances/projects/{id}/cache [get]
func (h *BalanceHandler) GetCachedBalance(c *gin.Context) {
	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.Get(projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, balance)
}

// RefreshCachedBalance handles rebuilding the cache row from the ledger
// @Summary     Rebuild cached project balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.ProjectBalance "Rebuilt balance"
// @Failure     400 {object} ErrorResponse "Invalid project ID"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /balances/projects/{id}/refresh [post]
func (h *BalanceHandler) RefreshCachedBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.Refresh(projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REFRESH_PROJECT_BALANCE", "project", projectID, c.ClientIP(),
		map[string]interface{}{
			"allocated_balance": balance.AllocatedBalance.String(),
			"total_spent":       balance.TotalSpent.String(),
		})

	respondOK(c, http.StatusOK, balance)
}
