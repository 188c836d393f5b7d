// backend/src/parsers/ledger_test.go
package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/escrowaudit/backend/src/models"
	"github.com/username/escrowaudit/backend/src/parsers"
	"github.com/username/escrowaudit/backend/src/workbook"
)

// ledgerFixture lays out two phases with differently ordered columns and a
// third phase without its own header row.
func ledgerFixture() *workbook.Sheet {
	return workbook.NewSheet("Main Collection AC P1_P2_P3", [][]workbook.Cell{
		/* 0 */ {workbook.TextCell("Main Collection Escrow A/c Phase-1"), workbook.TextCell("123456789012")},
		/* 1 */ textRow("Txn Date", "Description", "Amount", "Dr/Cr", "Sales Tag"),
		/* 2 */ {workbook.TextCell("05-01-2024"), workbook.TextCell("NEFT IN"), workbook.NumberCell(500000), workbook.TextCell("CR"), workbook.TextCell("CA 04-402")},
		/* 3 */ {workbook.TextCell("07-01-2024"), workbook.TextCell("CHQ RETURN"), workbook.NumberCell(500000), workbook.TextCell("DR"), workbook.TextCell("CA 04-402")},
		/* 4 */ {workbook.TextCell("pending"), workbook.TextCell("row without usable date"), workbook.NumberCell(1000), workbook.TextCell("CR")},
		/* 5 */ {workbook.NullCell()},
		/* 6 */ {workbook.TextCell("Main Collection Escrow A/c Phase-2")},
		/* 7 */ {workbook.NullCell(), workbook.NumberCell(987654321098765)},
		/* 8 */ textRow("Description", "Txn Date", "Sales Tag", "Amount", "Dr/Cr"),
		/* 9 */ {workbook.TextCell("IMPS IN"), workbook.TextCell("10-01-2024"), workbook.TextCell("CA1-101"), workbook.NumberCell(315000), workbook.TextCell("Cr")},
		/* 10 */ {workbook.TextCell("zero amount"), workbook.TextCell("11-01-2024"), workbook.NullCell(), workbook.NumberCell(0), workbook.TextCell("Cr")},
		/* 11 */ {workbook.TextCell("Main Collection Escrow A/c Phase-3")},
		/* 12 */ {workbook.TextCell("no header row down here"), workbook.TextCell("12-01-2024"), workbook.TextCell("CA 04-402"), workbook.NumberCell(25000), workbook.TextCell("Cr")},
	})
}

func TestSegmentPhases(t *testing.T) {
	parser := parsers.NewLedgerParser(5000)
	sheet := ledgerFixture()
	phases, diags := parser.SegmentPhases(sheet)
	require.Len(t, phases, 3)

	assert.Equal(t, "Main Collection Escrow A/c Phase-1", phases[0].Label)
	assert.Equal(t, "123456789012", phases[0].AccountNumber)
	assert.Equal(t, 1, phases[0].HeaderRow)
	assert.Equal(t, 0, phases[0].StartRow)
	assert.Equal(t, 5, phases[0].EndRow)

	assert.Equal(t, "987654321098765", phases[1].AccountNumber)
	assert.Equal(t, 8, phases[1].HeaderRow)
	assert.Equal(t, 6, phases[1].StartRow)
	assert.Equal(t, 10, phases[1].EndRow)
	// Phase 2's columns are laid out differently and must be mapped locally.
	assert.Equal(t, 1, phases[1].FieldOffsets[parsers.FieldTxnDate])
	assert.Equal(t, 3, phases[1].FieldOffsets[parsers.FieldAmount])

	// Phase 3 has no account number and no local header row.
	assert.Empty(t, phases[2].AccountNumber)
	assert.Equal(t, -1, phases[2].HeaderRow)
	assert.Equal(t, phases[1].FieldOffsets, phases[2].FieldOffsets)
	assert.Equal(t, 11, phases[2].StartRow)
	assert.Equal(t, sheet.LastRow(), phases[2].EndRow)

	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, models.DiagUnresolvedAccountNumber)
	assert.Contains(t, codes, models.DiagHeaderRowInherited)
}

// Segmented ranges are pairwise non-overlapping and tile the sheet from the
// first phase start to the last populated row.
func TestSegmentPhasesNonOverlapAndCoverage(t *testing.T) {
	parser := parsers.NewLedgerParser(5000)
	sheet := ledgerFixture()
	phases, _ := parser.SegmentPhases(sheet)
	require.NotEmpty(t, phases)

	for i, p := range phases {
		assert.LessOrEqual(t, p.StartRow, p.EndRow, "phase %d", i)
		if i > 0 {
			assert.Equal(t, phases[i-1].EndRow+1, p.StartRow, "phases must be contiguous")
		}
	}
	assert.Equal(t, sheet.LastRow(), phases[len(phases)-1].EndRow)
}

func TestSegmentPhasesRowCap(t *testing.T) {
	sheet := ledgerFixture()
	// A cap below the later phase labels hides them from the scan.
	parser := parsers.NewLedgerParser(6)
	phases, _ := parser.SegmentPhases(sheet)
	require.Len(t, phases, 1)
	// The sole phase still runs to the end of the sheet.
	assert.Equal(t, sheet.LastRow(), phases[0].EndRow)
}

func TestExtractTransactions(t *testing.T) {
	parser := parsers.NewLedgerParser(5000)
	sheet := ledgerFixture()
	phases, _ := parser.SegmentPhases(sheet)
	require.Len(t, phases, 3)

	txs, skipped := parser.ExtractTransactions(sheet, phases[0])
	require.Len(t, txs, 2)
	assert.Equal(t, 1, skipped) // the unparseable-date row

	credit := txs[0]
	assert.Equal(t, models.DirectionCredit, credit.Direction)
	assert.Equal(t, "500000", credit.Amount.String())
	assert.Equal(t, "CA 04-402", credit.CounterpartyTag)
	assert.Equal(t, "123456789012", credit.AccountNumber)
	assert.Equal(t, "NEFT IN", credit.Description)
	assert.Equal(t, 5, credit.Date.Day())

	debit := txs[1]
	assert.Equal(t, models.DirectionDebit, debit.Direction)
	assert.Equal(t, "500000", debit.Amount.String())

	// Phase 2: remapped columns, zero-amount row skipped.
	txs, skipped = parser.ExtractTransactions(sheet, phases[1])
	require.Len(t, txs, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "CA1-101", txs[0].CounterpartyTag)
	assert.Equal(t, "315000", txs[0].Amount.String())

	// Phase 3 extracts with the inherited layout.
	txs, skipped = parser.ExtractTransactions(sheet, phases[2])
	require.Len(t, txs, 1)
	assert.Zero(t, skipped)
	assert.Equal(t, "25000", txs[0].Amount.String())
	assert.Empty(t, txs[0].AccountNumber)
}

func TestExtractTransactionsNoOffsets(t *testing.T) {
	parser := parsers.NewLedgerParser(5000)
	sheet := ledgerFixture()
	phase := models.LedgerPhase{Label: "x", StartRow: 0, EndRow: sheet.LastRow(), HeaderRow: -1}
	txs, skipped := parser.ExtractTransactions(sheet, phase)
	assert.Empty(t, txs)
	assert.Zero(t, skipped)
}

// A header row with two amount columns must resolve to the rightmost one
// on every segmentation; repeated runs guard against iteration-order
// flapping.
func TestPhaseHeaderDuplicateAmountColumns(t *testing.T) {
	sheet := workbook.NewSheet("l", [][]workbook.Cell{
		{workbook.TextCell("Main Collection Escrow A/c Phase-1"), workbook.TextCell("111122223333")},
		textRow("Txn Date", "Description", "Amount", "Amount", "Dr/Cr"),
		{workbook.TextCell("05-01-2024"), workbook.TextCell("dup amount row"), workbook.NumberCell(111), workbook.NumberCell(222), workbook.TextCell("CR")},
	})

	parser := parsers.NewLedgerParser(5000)
	for i := 0; i < 100; i++ {
		phases, _ := parser.SegmentPhases(sheet)
		require.Len(t, phases, 1)
		assert.Equal(t, 3, phases[0].FieldOffsets[parsers.FieldAmount])

		txs, skipped := parser.ExtractTransactions(sheet, phases[0])
		require.Len(t, txs, 1)
		assert.Zero(t, skipped)
		assert.Equal(t, "222", txs[0].Amount.String())
	}
}

// A phase whose label is immediately followed by the next phase's label has
// no rows of its own; it must inherit the previous layout rather than adopt
// the next phase's header row.
func TestPhaseHeaderProbeStopsAtNextLabel(t *testing.T) {
	sheet := workbook.NewSheet("l", [][]workbook.Cell{
		{workbook.TextCell("Main Collection Escrow A/c Phase-1"), workbook.TextCell("111122223333")},
		textRow("Txn Date", "Description", "Amount", "Dr/Cr", "Sales Tag"),
		{workbook.TextCell("05-01-2024"), workbook.TextCell("phase one row"), workbook.NumberCell(100), workbook.TextCell("CR"), workbook.TextCell("CA1-101")},
		{workbook.TextCell("Main Collection Escrow A/c Phase-2"), workbook.TextCell("222233334444")},
		{workbook.TextCell("Main Collection Escrow A/c Phase-3"), workbook.TextCell("333344445555")},
		textRow("Txn Date", "Description", "Amount", "Dr/Cr", "Sales Tag"),
		{workbook.TextCell("06-01-2024"), workbook.TextCell("phase three row"), workbook.NumberCell(200), workbook.TextCell("CR"), workbook.TextCell("CA1-101")},
	})

	parser := parsers.NewLedgerParser(5000)
	phases, diags := parser.SegmentPhases(sheet)
	require.Len(t, phases, 3)

	assert.Equal(t, -1, phases[1].HeaderRow)
	assert.Equal(t, phases[0].FieldOffsets, phases[1].FieldOffsets)
	assert.LessOrEqual(t, phases[1].HeaderRow, phases[1].EndRow)

	// Phase 3 still finds its own header row past its label.
	assert.Equal(t, 5, phases[2].HeaderRow)

	txs, _ := parser.ExtractTransactions(sheet, phases[1])
	assert.Empty(t, txs)
	txs, _ = parser.ExtractTransactions(sheet, phases[2])
	require.Len(t, txs, 1)
	assert.Equal(t, "200", txs[0].Amount.String())

	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, models.DiagHeaderRowInherited)
}

func TestCoerceDirectionVariants(t *testing.T) {
	sheet := workbook.NewSheet("l", [][]workbook.Cell{
		{workbook.TextCell("Main Collection Escrow A/c Phase-1"), workbook.TextCell("111122223333")},
		textRow("Txn Date", "Description", "Amount", "Dr/Cr", "Sales Tag"),
		{workbook.TextCell("05-01-2024"), workbook.TextCell("credit variant"), workbook.NumberCell(100), workbook.TextCell("c"), workbook.TextCell("CA1-101")},
		{workbook.TextCell("06-01-2024"), workbook.TextCell("debit variant"), workbook.NumberCell(200), workbook.TextCell("Debit"), workbook.TextCell("CA1-101")},
		{workbook.TextCell("07-01-2024"), workbook.TextCell("negative, no token"), workbook.NumberCell(-300), workbook.NullCell(), workbook.TextCell("CA1-101")},
		{workbook.TextCell("08-01-2024"), workbook.TextCell("positive, no token"), workbook.NumberCell(400), workbook.NullCell(), workbook.TextCell("CA1-101")},
	})

	parser := parsers.NewLedgerParser(5000)
	phases, _ := parser.SegmentPhases(sheet)
	require.Len(t, phases, 1)

	txs, _ := parser.ExtractTransactions(sheet, phases[0])
	require.Len(t, txs, 4)
	assert.Equal(t, models.DirectionCredit, txs[0].Direction)
	assert.Equal(t, models.DirectionDebit, txs[1].Direction)
	assert.Equal(t, models.DirectionDebit, txs[2].Direction)
	assert.Equal(t, "300", txs[2].Amount.String()) // magnitude only
	assert.Equal(t, models.DirectionCredit, txs[3].Direction)
}
