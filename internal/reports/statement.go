package reports

import (
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"

	"fundledger/internal/money"
	"fundledger/internal/services"
)

const (
	maxStatementRows = 500
	pageBreakY       = 270.0
)

// statementLine is one allocation or expense in the history table.
type statementLine struct {
	date        string
	kind        string
	description string
	status      string
	amount      string
}

func statementLines(st *services.ProjectStatement) []statementLine {
	lines := make([]statementLine, 0, len(st.Allocations)+len(st.Expenses))
	for _, a := range st.Allocations {
		lines = append(lines, statementLine{
			date:        a.AllocatedAt.Format(dateLayout),
			kind:        "Allocation",
			description: a.Description,
			status:      string(a.Status),
			amount:      a.Amount.String(),
		})
	}
	for _, e := range st.Expenses {
		desc := e.Description
		if e.User != nil {
			desc = e.User.FullName() + ": " + desc
		}
		lines = append(lines, statementLine{
			date:        e.SpentAt.Format(dateLayout),
			kind:        "Expense",
			description: desc,
			status:      string(e.Status),
			amount:      (-e.Amount).String(),
		})
	}
	return lines
}

// WriteProjectStatementPDF renders a project's balances and history as an A4
// PDF. Amounts are shown in currency.
func WriteProjectStatementPDF(w io.Writer, st *services.ProjectStatement, currency string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetTitle("Project statement "+st.Project.ProjectCode, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(st.Project.ProjectCode+" - "+st.Project.Name))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Status: "+string(st.Project.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Generated: "+st.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	summary := []struct {
		label  string
		amount money.Amount
	}{
		{"Allocated", st.Balance.TotalAllocated},
		{"Spent", st.Balance.TotalSpent},
		{"Remaining", st.Balance.AllocatedBalance},
	}
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)
	for i, s := range summary {
		ln := 0
		if i == len(summary)-1 {
			ln = 1
		}
		pdf.CellFormat(60, 10, s.label+" ("+currency+")", "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	for i, s := range summary {
		ln := 0
		if i == len(summary)-1 {
			ln = 1
		}
		pdf.CellFormat(60, 10, s.amount.Currency(""), "1", ln, "C", false, 0, "")
	}
	pdf.Ln(6)

	colW := []float64{24, 26, 78, 22, 32}
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		for i, title := range []string{"DATE", "TYPE", "DESCRIPTION", "STATUS", "AMOUNT"} {
			ln, align := 0, "L"
			if i == len(colW)-1 {
				ln, align = 1, "R"
			}
			pdf.CellFormat(colW[i], 8, title, "1", ln, align, true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for i, line := range statementLines(st) {
		if i >= maxStatementRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, "Truncated: too many rows", "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > pageBreakY {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(colW[0], 8, line.date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 8, line.kind, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 8, tr(trimTo(line.description, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, line.status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[4], 8, line.amount, "1", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
