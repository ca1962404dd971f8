package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/services"
)

// MaxImportRows bounds a single finance import.
const MaxImportRows = 5000

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: use .csv or .xlsx")
	ErrMissingAmount     = errors.New("header row must contain an amount column")
	ErrNoRows            = errors.New("file contains no data rows")
	ErrTooManyRows       = fmt.Errorf("file contains more than %d rows", MaxImportRows)
)

// RowError reports a problem with one data row. Row numbers count the header
// as row 1, matching what a spreadsheet shows.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("Row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ParseFinanceImport reads deposits from a CSV or XLSX file chosen by
// filename extension. The first row is a header naming the columns: amount
// (required), description, deposited_at (YYYY-MM-DD) and status. Blank rows
// are skipped. depositedBy is recorded on every row.
func ParseFinanceImport(filename string, r io.Reader, depositedBy string) ([]services.CreateFinanceInput, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return financeRows(rows, depositedBy)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	return f.GetRows(sheets[0])
}

func financeRows(rows [][]string, depositedBy string) ([]services.CreateFinanceInput, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
		columns[strings.ReplaceAll(name, " ", "_")] = i
	}
	amountCol, ok := columns["amount"]
	if !ok {
		return nil, ErrMissingAmount
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var by *string
	if depositedBy != "" {
		by = &depositedBy
	}

	out := make([]services.CreateFinanceInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(out) == MaxImportRows {
			return nil, ErrTooManyRows
		}
		line := i + 2

		raw := ""
		if amountCol < len(row) {
			raw = strings.TrimSpace(row[amountCol])
		}
		amount, err := money.Parse(raw)
		if err != nil {
			return nil, &RowError{Row: line, Err: fmt.Errorf("invalid amount %q", raw)}
		}

		in := services.CreateFinanceInput{
			Amount:      amount,
			Description: cell(row, "description"),
			DepositedBy: by,
			Status:      models.Status(strings.ToLower(cell(row, "status"))),
		}
		if d := cell(row, "deposited_at"); d != "" {
			t, err := time.Parse(dateLayout, d)
			if err != nil {
				return nil, &RowError{Row: line, Err: fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)}
			}
			in.DepositedAt = &t
		}
		out = append(out, in)
	}

	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
