package purchase

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"medstock/m/domain"
)

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseWorkbook(t *testing.T) {
	buf := workbook(t,
		[]any{"medicine_name", "quantity", "price", "expiry_date", "batch_number", "supplier_code"},
		[]any{"Aspirin", 10, 1.5, "2027-01-01", "A1", "S1"},
		[]any{},
		[]any{"Ibuprofen", "4", "2,25", "2026-12-31", "I9", "S2"},
	)

	lines, err := ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, Line{
		MedicineName: "Aspirin", Quantity: 10, Price: 1.5,
		ExpiryDate: "2027-01-01", BatchNumber: "A1", SupplierCode: "S1",
	}, lines[0])
	assert.Equal(t, 2.25, lines[1].Price)
	assert.Equal(t, 4.0, lines[1].Quantity)
}

func TestParseWorkbook_MissingColumns(t *testing.T) {
	buf := workbook(t, []any{"medicine_name", "expiry_date"}, []any{"Aspirin", "2027-01-01"})

	_, err := ParseWorkbook(buf)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")
	assert.Contains(t, verr.Fields, "price")
}

func TestParseWorkbook_BadNumber(t *testing.T) {
	buf := workbook(t,
		[]any{"medicine_name", "quantity", "price"},
		[]any{"Aspirin", "ten", 1},
	)

	_, err := ParseWorkbook(buf)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "row 2 quantity")
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ParseWorkbook(bytes.NewBufferString("medicine_name,quantity"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "file")
}
