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

// AllocationHandler handles requests that move system funds to projects
type AllocationHandler struct {
	allocationService services.AllocationServicer
	auditService      services.AuditServicer
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocationService services.AllocationServicer, auditService services.AuditServicer) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService, auditService: auditService}
}

// CreateAllocationRequest represents an allocation submitted as JSON or as
// multipart form data with an optional proof_image file.
type CreateAllocationRequest struct {
	ProjectID   string        `json:"project_id" form:"project_id" binding:"required,uuid"`
	Amount      money.Amount  `json:"amount" form:"amount" swaggertype:"string" example:"600000.00"`
	Description string        `json:"description" form:"description" binding:"max=1000"`
	Status      models.Status `json:"status" form:"status" binding:"omitempty,record_status"`
	AllocatedAt string        `json:"allocated_at" form:"allocated_at" example:"2026-03-01"`
}

// UpdateAllocationRequest represents the supplied fields of an allocation
// update. A new proof_image file replaces the stored one.
type UpdateAllocationRequest struct {
	ProjectID   *string        `json:"project_id" form:"project_id" binding:"omitempty,uuid"`
	Amount      *money.Amount  `json:"amount" form:"amount" swaggertype:"string" example:"600000.00"`
	Description *string        `json:"description" form:"description" binding:"omitempty,max=1000"`
	Status      *models.Status `json:"status" form:"status"`
	AllocatedAt *string        `json:"allocated_at" form:"allocated_at"`
}

// CreateAllocation handles allocating funds to a project
// @Summary     Allocate funds
// @Description Allocate part of the available system balance to a project. The project must exist and not be closed or cancelled, and the amount must not exceed the committed available balance.
// @Tags        allocations
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       project_id formData string true "Project ID"
// @Param       amount formData string true "Amount"
// @Param       description formData string false "Description"
// @Param       status formData string false "pending or approved (default approved)"
// @Param       allocated_at formData string false "Allocation date (YYYY-MM-DD)"
// @Param       proof_image formData file false "Proof of transfer"
// @Success     201 {object} models.Allocation "Created allocation"
// @Failure     400 {object} ErrorResponse "Invalid amount, closed project, insufficient system balance or upload failure"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations [post]
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAllocationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	allocatedAt, err := optionalTime(req.AllocatedAt, "allocated_at")
	if err != nil {
		respondWithError(c, err)
		return
	}

	proof, closeProof, err := formUpload(c, "proof_image")
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeProof()

	allocation, err := h.allocationService.CreateAllocation(services.CreateAllocationInput{
		ProjectID:   req.ProjectID,
		Amount:      req.Amount,
		Description: req.Description,
		AllocatedBy: userID,
		Status:      req.Status,
		AllocatedAt: allocatedAt,
		Proof:       proof,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ALLOCATION", "allocation", allocation.ID, c.ClientIP(),
		map[string]interface{}{
			"project_id": allocation.ProjectID,
			"amount":     allocation.Amount.String(),
			"status":     allocation.Status,
		})

	respondOK(c, http.StatusCreated, allocation)
}

// ListAllocations handles listing allocations
// @Summary     List allocations
// @Tags        allocations
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       per_page query int false "Items per page" default(20)
// @Param       project_id query string false "Filter by project"
// @Param       status query string false "Filter by status"
// @Param       from_date query string false "Allocated on or after (YYYY-MM-DD)"
// @Param       to_date query string false "Allocated on or before (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Allocation] "Paginated allocations"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations [get]
func (h *AllocationHandler) ListAllocations(c *gin.Context) {
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

	result, err := h.allocationService.ListAllocations(page, services.AllocationFilter{
		ProjectID: c.Query("project_id"),
		Status:    status,
		FromDate:  from,
		ToDate:    to,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAllocation handles retrieving one allocation
// @Summary     Get allocation
// @Tags        allocations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Allocation ID"
// @Success     200 {object} models.Allocation "Allocation"
// @Failure     400 {object} ErrorResponse "Invalid allocation ID"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Router      /allocations/{id} [get]
func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocation, err := h.allocationService.GetAllocation(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, allocation)
}

// UpdateAllocation handles updating an allocation
// @Summary     Update allocation
// @Description Update an allocation. A larger amount is checked against the available balance for the increase only. Status changes go through the approve and reject endpoints.
// @Tags        allocations
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Allocation ID"
// @Param       project_id formData string false "Move to project"
// @Param       amount formData string false "Amount"
// @Param       description formData string false "Description"
// @Param       allocated_at formData string false "Allocation date (YYYY-MM-DD)"
// @Param       proof_image formData file false "Replacement proof"
// @Success     200 {object} models.Allocation "Updated allocation"
// @Failure     400 {object} ErrorResponse "Invalid input, amount or status"
// @Failure     404 {object} ErrorResponse "Allocation or project not found"
// @Failure     409 {object} ErrorResponse "Allocation already spent"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations/{id} [put]
func (h *AllocationHandler) UpdateAllocation(c *gin.Context) {
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

	var req UpdateAllocationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.UpdateAllocationInput{
		ProjectID:   req.ProjectID,
		Amount:      req.Amount,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.AllocatedAt != nil {
		if in.AllocatedAt, err = optionalTime(*req.AllocatedAt, "allocated_at"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	proof, closeProof, err := formUpload(c, "proof_image")
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeProof()
	in.Proof = proof

	allocation, err := h.allocationService.UpdateAllocation(id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ALLOCATION", "allocation", id, c.ClientIP(),
		map[string]interface{}{
			"project_id": allocation.ProjectID,
			"amount":     allocation.Amount.String(),
			"proof":      proof != nil,
		})

	respondOK(c, http.StatusOK, allocation)
}

// DeleteAllocation handles deleting an allocation
// @Summary     Delete allocation
// @Tags        allocations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Allocation ID"
// @Success     200 {object} SuccessResponse "Allocation deleted"
// @Failure     400 {object} ErrorResponse "Invalid allocation ID"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     409 {object} ErrorResponse "Allocation already spent"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations/{id} [delete]
func (h *AllocationHandler) DeleteAllocation(c *gin.Context) {
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

	if err := h.allocationService.DeleteAllocation(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ALLOCATION", "allocation", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, gin.H{"message": "Allocation deleted successfully"})
}

// ApproveAllocation handles approving a pending allocation
// @Summary     Approve allocation
// @Tags        allocations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Allocation ID"
// @Success     200 {object} models.Allocation "Approved allocation"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     409 {object} ErrorResponse "Allocation is not pending"
// @Router      /allocations/{id}/approve [post]
func (h *AllocationHandler) ApproveAllocation(c *gin.Context) {
	h.transition(c, "APPROVE_ALLOCATION", h.allocationService.ApproveAllocation)
}

// RejectAllocation handles rejecting a pending allocation
// @Summary     Reject allocation
// @Tags        allocations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Allocation ID"
// @Success     200 {object} models.Allocation "Rejected allocation"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     409 {object} ErrorResponse "Allocation is not pending"
// @Router      /allocations/{id}/reject [post]
func (h *AllocationHandler) RejectAllocation(c *gin.Context) {
	h.transition(c, "REJECT_ALLOCATION", h.allocationService.RejectAllocation)
}

func (h *AllocationHandler) transition(c *gin.Context, action string, apply func(id, approvedBy string) (*models.Allocation, error)) {
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

	allocation, err := apply(id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "allocation", id, c.ClientIP(),
		map[string]interface{}{"status": allocation.Status, "project_id": allocation.ProjectID})

	respondOK(c, http.StatusOK, allocation)
}
