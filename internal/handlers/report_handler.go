package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/reports"
	"fundledger/internal/services"
)

// ReportHandler serves the dashboard and file exports
type ReportHandler struct {
	reportService  services.ReportServicer
	projectService services.ProjectServicer
	currency       string
}

// NewReportHandler creates a new ReportHandler. currency is the default code
// printed on statements.
func NewReportHandler(reportService services.ReportServicer, projectService services.ProjectServicer, currency string) *ReportHandler {
	return &ReportHandler{reportService: reportService, projectService: projectService, currency: currency}
}

// ExportQuery selects the export format
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

// StatementQuery selects the statement currency
type StatementQuery struct {
	Currency string `form:"currency" binding:"omitempty,iso4217"`
}

// Dashboard handles the overview figures
// @Summary     Dashboard
// @Description System balance, project counts and pending approvals
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardSummary "Dashboard"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reportService.Dashboard()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// ExportExpenses handles downloading expenses as XLSX or CSV
// @Summary     Export expenses
// @Description Download expenses matching the list filters. Non-admins export their own expenses only.
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/csv
// @Security    BearerAuth
// @Param       format query string false "xlsx or csv" default(xlsx)
// @Param       project_id query string false "Filter by project"
// @Param       category query string false "Filter by expense type"
// @Param       status query string false "Filter by status"
// @Param       from_date query string false "Spent on or after (YYYY-MM-DD)"
// @Param       to_date query string false "Spent on or before (YYYY-MM-DD)"
// @Success     200 {file} file "Export"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/expenses/export [get]
func (h *ReportHandler) ExportExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if q.Format == "" {
		q.Format = "xlsx"
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if !isAdmin(c) {
		filter.UserID = userID
	}

	expenses, err := h.reportService.ExpensesForExport(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	contentType := reports.XLSXMIMEType
	if q.Format == "csv" {
		contentType = reports.CSVMIMEType
		err = reports.WriteExpensesCSV(&buf, expenses)
	} else {
		err = reports.WriteExpensesXLSX(&buf, expenses)
	}
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	sendFile(c, reports.ExportFilename("expenses", q.Format), contentType, buf.Bytes())
}

// ProjectStatement handles downloading a project statement PDF
// @Summary     Project statement
// @Description Balances, allocations and approved expenses of one project as a PDF
// @Tags        reports
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       currency query string false "ISO 4217 currency code"
// @Success     200 {file} file "Statement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not assigned"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /reports/projects/{id}/statement [get]
func (h *ReportHandler) ProjectStatement(c *gin.Context) {
	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q StatementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if q.Currency == "" {
		q.Currency = h.currency
	}

	if !isAdmin(c) {
		userID, err := getUserID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}
		assigned, err := h.projectService.IsAssigned(projectID, userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		if !assigned {
			respondWithError(c, apperrors.ErrUserNotAssigned)
			return
		}
	}

	statement, err := h.reportService.ProjectStatement(projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteProjectStatementPDF(&buf, statement, q.Currency); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	prefix := "statement_" + statement.Project.ProjectCode
	sendFile(c, reports.ExportFilename(prefix, "pdf"), reports.PDFMIMEType, buf.Bytes())
}

func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
