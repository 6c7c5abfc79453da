package purchase

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"medstock/m/domain"
)

var requiredColumns = []string{"medicine_name", "quantity", "price"}

// ParseWorkbook reads purchase lines from the first sheet of an XLSX
// delivery note. The first row names the columns using the JSON field names
// of Line; blank rows are skipped.
func ParseWorkbook(r io.Reader) ([]Line, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"file": "not an xlsx workbook"}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.ValidationError{Fields: map[string]string{"file": "workbook has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &domain.ValidationError{Fields: map[string]string{"file": "sheet is empty"}}
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	problems := map[string]string{}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			problems[name] = "column missing"
		}
	}
	if len(problems) > 0 {
		return nil, &domain.ValidationError{Fields: problems}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(row []string, name string, rowNum int) float64 {
		raw := cell(row, name)
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			problems[fmt.Sprintf("row %d %s", rowNum, name)] = fmt.Sprintf("%q is not a number", raw)
		}
		return v
	}

	var lines []Line
	for i, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		rowNum := i + 2
		lines = append(lines, Line{
			MedicineName:  cell(row, "medicine_name"),
			Quantity:      number(row, "quantity", rowNum),
			Price:         number(row, "price", rowNum),
			ExpiryDate:    cell(row, "expiry_date"),
			BatchNumber:   cell(row, "batch_number"),
			SupplierCode:  cell(row, "supplier_code"),
			PurchaseOrder: cell(row, "purchase_order"),
		})
	}
	if len(problems) > 0 {
		return nil, &domain.ValidationError{Fields: problems}
	}
	return lines, nil
}
