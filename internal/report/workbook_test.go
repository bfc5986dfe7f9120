package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readRows(t *testing.T, wb *Workbook, sheet string) [][]string {
	t.Helper()
	raw, err := wb.Bytes()
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWorkbookSheetOrder(t *testing.T) {
	wb := NewWorkbook()
	_, err := wb.AddSheet("First")
	require.NoError(t, err)
	_, err = wb.AddSheet("Second")
	require.NoError(t, err)

	raw, err := wb.Bytes()
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"First", "Second"}, f.GetSheetList())
}

func TestSheetHeaderAndRows(t *testing.T) {
	wb := NewWorkbook()
	sheet, err := wb.AddSheet("Data")
	require.NoError(t, err)
	require.NoError(t, sheet.SetHeader([]string{"Name", "Count"}))
	require.NoError(t, sheet.AddRow(map[string]any{"Name": "alpha", "Count": 3}))
	require.NoError(t, sheet.AddRow(map[string]any{"Name": "beta"}))

	rows := readRows(t, wb, "Data")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Count"}, rows[0])
	assert.Equal(t, []string{"alpha", "3"}, rows[1])
	assert.Equal(t, []string{"beta"}, rows[2])
}

func TestSheetAddRowUnknownColumn(t *testing.T) {
	wb := NewWorkbook()
	sheet, err := wb.AddSheet("Data")
	require.NoError(t, err)
	require.NoError(t, sheet.SetHeader([]string{"Name"}))

	err = sheet.AddRow(map[string]any{"Missing": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestSheetDataStartsAtRowTwo(t *testing.T) {
	wb := NewWorkbook()
	sheet, err := wb.AddSheet("Data")
	require.NoError(t, err)
	require.NoError(t, sheet.Append("only row"))

	rows := readRows(t, wb, "Data")
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0])
	assert.Equal(t, []string{"only row"}, rows[1])
}
