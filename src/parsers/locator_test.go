// backend/src/parsers/locator_test.go
package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/escrowaudit/backend/src/parsers"
	"github.com/username/escrowaudit/backend/src/workbook"
)

func textRow(values ...string) []workbook.Cell {
	row := make([]workbook.Cell, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = workbook.NullCell()
		} else {
			row[i] = workbook.TextCell(v)
		}
	}
	return row
}

func TestLocateRegistrySheetExactName(t *testing.T) {
	wb := workbook.NewWorkbook(
		workbook.NewSheet("Summary", nil),
		workbook.NewSheet("Annex - Sales Master", nil),
	)
	name, err := parsers.LocateRegistrySheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "Annex - Sales Master", name)
}

func TestLocateRegistrySheetBySubstring(t *testing.T) {
	wb := workbook.NewWorkbook(
		workbook.NewSheet("Summary", nil),
		workbook.NewSheet("annex sales register FY24", nil),
	)
	name, err := parsers.LocateRegistrySheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "annex sales register FY24", name)
}

func TestLocateRegistrySheetByContentSniff(t *testing.T) {
	registry := workbook.NewSheet("Sheet3", [][]workbook.Cell{
		textRow("Sr No", "Name of Customer", "Unit Number"),
	})
	wb := workbook.NewWorkbook(workbook.NewSheet("Cover", nil), registry)

	name, err := parsers.LocateRegistrySheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "Sheet3", name)
}

func TestLocateLedgerSheetFallbacks(t *testing.T) {
	wb := workbook.NewWorkbook(
		workbook.NewSheet("Main Collection AC P1_P2_P3", nil),
	)
	name, err := parsers.LocateLedgerSheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "Main Collection AC P1_P2_P3", name)

	wb = workbook.NewWorkbook(workbook.NewSheet("MAIN COLLECTION 2024", nil))
	name, err = parsers.LocateLedgerSheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "MAIN COLLECTION 2024", name)

	ledger := workbook.NewSheet("Data", [][]workbook.Cell{
		textRow("Main Collection Escrow A/c Phase-1"),
		textRow("Txn Date", "Description", "Amount"),
	})
	wb = workbook.NewWorkbook(ledger)
	name, err = parsers.LocateLedgerSheet(wb)
	require.NoError(t, err)
	assert.Equal(t, "Data", name)
}

func TestLocateSheetNotFound(t *testing.T) {
	wb := workbook.NewWorkbook(
		workbook.NewSheet("Totally Unrelated", [][]workbook.Cell{textRow("nothing", "here")}),
	)

	_, err := parsers.LocateLedgerSheet(wb)
	require.Error(t, err)

	var sheetErr *parsers.SheetNotFoundError
	require.ErrorAs(t, err, &sheetErr)
	assert.Equal(t, parsers.SheetTypeLedger, sheetErr.SheetType)
	// The error must carry enough context to fix the workbook by hand.
	assert.Contains(t, sheetErr.Tried, "Totally Unrelated")
	assert.NotEmpty(t, sheetErr.Keywords)
	assert.Contains(t, err.Error(), "collection ledger")
}
