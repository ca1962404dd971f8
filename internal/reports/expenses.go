// Package reports renders ledger data as spreadsheets and PDFs and parses
// spreadsheet uploads back into ledger input.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fundledger/internal/models"
	"fundledger/internal/money"
)

// Content types of generated downloads.
const (
	XLSXMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVMIMEType  = "text/csv; charset=utf-8"
	PDFMIMEType  = "application/pdf"
)

const (
	dateLayout     = "2006-01-02"
	expenseSheet   = "Expenses"
	utf8BOM        = "\xEF\xBB\xBF"
	unknownProject = "-"
)

var expenseHeaders = []string{
	"Date", "Project Code", "Project", "Submitted By", "Category",
	"Description", "Amount", "Status", "Approved At",
}

func expenseRow(e *models.Expense) []string {
	code, name := unknownProject, unknownProject
	if e.Project != nil {
		code, name = e.Project.ProjectCode, e.Project.Name
	}
	submitter := e.UserID
	if e.User != nil {
		submitter = e.User.FullName()
	}
	approvedAt := ""
	if e.ApprovedAt != nil {
		approvedAt = e.ApprovedAt.Format(dateLayout)
	}
	return []string{
		e.SpentAt.Format(dateLayout),
		code,
		name,
		submitter,
		e.Category,
		e.Description,
		e.Amount.String(),
		string(e.Status),
		approvedAt,
	}
}

// ExportFilename names a download generated now, e.g. expenses_20240131.xlsx.
func ExportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102"), ext)
}

// WriteExpensesCSV writes expenses as CSV with a UTF-8 BOM so spreadsheet
// applications detect the encoding.
func WriteExpensesCSV(w io.Writer, expenses []models.Expense) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(expenseHeaders); err != nil {
		return err
	}
	for i := range expenses {
		if err := cw.Write(expenseRow(&expenses[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpensesXLSX writes expenses as a single-sheet workbook with a totals
// row. Amounts are numeric cells.
func WriteExpensesXLSX(w io.Writer, expenses []models.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), expenseSheet); err != nil {
		return err
	}

	for i, h := range expenseHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(expenseSheet, cell, h); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(expenseSheet, 1, 1, bold); err != nil {
		return err
	}

	var total money.Amount
	for i := range expenses {
		e := &expenses[i]
		row := expenseRow(e)
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			var v interface{} = value
			if col == 6 {
				v = e.Amount.Decimal().InexactFloat64()
			}
			if err := f.SetCellValue(expenseSheet, cell, v); err != nil {
				return err
			}
		}
		total += e.Amount
	}

	totalsRow := len(expenses) + 2
	if err := f.SetCellValue(expenseSheet, fmt.Sprintf("F%d", totalsRow), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(expenseSheet, fmt.Sprintf("G%d", totalsRow), total.Decimal().InexactFloat64()); err != nil {
		return err
	}
	if err := f.SetRowStyle(expenseSheet, totalsRow, totalsRow, bold); err != nil {
		return err
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 24, "D": 20, "E": 14, "F": 36, "G": 14, "H": 10, "I": 12}
	for col, width := range widths {
		if err := f.SetColWidth(expenseSheet, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
