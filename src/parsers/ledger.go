// backend/src/parsers/ledger.go
package parsers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/models"
	"github.com/username/escrowaudit/backend/src/workbook"
)

// phaseLabelPrefix is the section marker template; an incrementing integer
// suffix follows it ("...Phase-1", "...Phase-2").
const phaseLabelPrefix = "Main Collection Escrow A/c Phase-"

const (
	// phaseLabelCols bounds the columns scanned for a phase label.
	phaseLabelCols = 5
	// accountProbeCols / accountProbeRows bound the account number search
	// around a phase label.
	accountProbeCols = 8
	accountProbeRows = 4
	// phaseHeaderProbeRows bounds the forward search for a phase's local
	// transaction header row.
	phaseHeaderProbeRows = 10
	// minAccountDigits is the minimum length of a bank account identifier.
	minAccountDigits = 10
)

// LedgerParser segments the collection sheet into per-account phase
// sections and extracts the transactions inside each one.
type LedgerParser struct {
	// ScanRowCap bounds the segmentation scan so a pathological sheet
	// cannot stall a run.
	ScanRowCap int
}

func NewLedgerParser(scanRowCap int) *LedgerParser {
	return &LedgerParser{ScanRowCap: scanRowCap}
}

// SegmentPhases scans for phase labels and partitions the sheet into
// ordered, non-overlapping row ranges. Every label yields a phase even when
// its account number or local header row cannot be discovered; those
// conditions are absorbed as diagnostics.
func (p *LedgerParser) SegmentPhases(sheet *workbook.Sheet) ([]models.LedgerPhase, []models.Diagnostic) {
	var phases []models.LedgerPhase
	var diags []models.Diagnostic

	lastRow := sheet.LastRow()
	scanLimit := lastRow
	if p.ScanRowCap > 0 && scanLimit > p.ScanRowCap-1 {
		scanLimit = p.ScanRowCap - 1
	}

	for r := 0; r <= scanLimit; r++ {
		label := findPhaseLabel(sheet, r)
		if label == "" {
			continue
		}

		if len(phases) > 0 {
			phases[len(phases)-1].EndRow = r - 1
		}

		// The phase owns its label row so that the segmented ranges tile
		// the sheet without gaps; structural rows inside the range carry no
		// amount/date pair and fall out during extraction.
		phase := models.LedgerPhase{
			Label:     label,
			StartRow:  r,
			EndRow:    lastRow,
			HeaderRow: -1,
		}

		phase.AccountNumber = findAccountNumber(sheet, r)
		if phase.AccountNumber == "" {
			diags = append(diags, models.Diagnostic{
				Stage:    "phase-segmenter",
				Code:     models.DiagUnresolvedAccountNumber,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("no account number found near %q (row %d)", label, r),
			})
		}

		headerRow, offsets := findPhaseHeaderRow(sheet, r)
		if headerRow >= 0 {
			phase.HeaderRow = headerRow
			phase.FieldOffsets = offsets
		} else if len(phases) > 0 && phases[len(phases)-1].FieldOffsets != nil {
			// Later sections of hand-edited ledgers often repeat the first
			// section's layout without repeating the header row.
			phase.FieldOffsets = phases[len(phases)-1].FieldOffsets
			diags = append(diags, models.Diagnostic{
				Stage:    "phase-segmenter",
				Code:     models.DiagHeaderRowInherited,
				Severity: models.SeverityInfo,
				Message:  fmt.Sprintf("%q has no local header row; inheriting the previous phase's column layout", label),
			})
		}

		phases = append(phases, phase)
		logger.L.Debug("Ledger phase opened", "label", label, "row", r, "account", phase.AccountNumber)
	}

	return phases, diags
}

// findPhaseLabel returns the phase label on a row, or "".
func findPhaseLabel(sheet *workbook.Sheet, row int) string {
	for c := 0; c < phaseLabelCols; c++ {
		text := sheet.Cell(row, c).String()
		if strings.Contains(text, phaseLabelPrefix) {
			return text
		}
	}
	return ""
}

// findAccountNumber searches the label row and the few rows below it for a
// standalone numeric token of at least minAccountDigits digits.
func findAccountNumber(sheet *workbook.Sheet, labelRow int) string {
	for r := labelRow; r < labelRow+accountProbeRows; r++ {
		for c := 0; c < accountProbeCols; c++ {
			cell := sheet.Cell(r, c)
			switch cell.Kind {
			case workbook.CellNumber:
				token := strconv.FormatFloat(cell.Number, 'f', 0, 64)
				if len(token) >= minAccountDigits {
					return token
				}
			case workbook.CellText:
				token := strings.TrimSpace(cell.Text)
				if len(token) >= minAccountDigits && isAllDigits(token) {
					return token
				}
			}
		}
	}
	return ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// findPhaseHeaderRow searches forward from a phase label for the nearest
// row carrying the transaction header token set, and maps that row's
// columns. Returns (-1, nil) when no such row exists within the probe
// window or before the next phase label.
func findPhaseHeaderRow(sheet *workbook.Sheet, labelRow int) (int, map[string]int) {
	for r := labelRow; r < labelRow+phaseHeaderProbeRows; r++ {
		// The probe must not cross into the next phase's rows.
		if r > labelRow && findPhaseLabel(sheet, r) != "" {
			return -1, nil
		}
		width := sheet.RowWidth(r)
		if width == 0 {
			continue
		}
		texts := headerTexts(sheet, r, width)
		if !looksLikeTxnHeader(texts) {
			continue
		}

		mapped := MapLedgerHeaders(texts)
		cols := make([]int, 0, len(mapped))
		for col := range mapped {
			cols = append(cols, col)
		}
		sort.Ints(cols)

		// Left to right so a duplicated header resolves to the rightmost
		// column on every run.
		offsets := make(map[string]int)
		for _, col := range cols {
			switch field := mapped[col]; field {
			case FieldTxnDate, FieldDescription, FieldAmount, FieldDirection, FieldSalesTag, FieldRunningTotal:
				offsets[field] = col
			}
		}
		return r, offsets
	}
	return -1, nil
}

// looksLikeTxnHeader requires at least three of the four transaction header
// token groups (date, description, amount, dr/cr) on one row.
func looksLikeTxnHeader(texts []string) bool {
	joined := strings.ToLower(strings.Join(texts, " "))
	count := 0
	if strings.Contains(joined, "date") {
		count++
	}
	if strings.Contains(joined, "description") {
		count++
	}
	if strings.Contains(joined, "amount") {
		count++
	}
	if strings.Contains(joined, "dr") && strings.Contains(joined, "cr") {
		count++
	}
	return count >= 3
}

// ExtractTransactions reads the transaction rows of one phase using that
// phase's column offsets. Rows missing a parseable amount or date, or with
// a zero amount, are skipped and counted; malformed rows are expected noise
// in manually maintained ledgers. The returned count is the number of
// populated rows that yielded no transaction.
func (p *LedgerParser) ExtractTransactions(sheet *workbook.Sheet, phase models.LedgerPhase) ([]models.LedgerTransaction, int) {
	offsets := phase.FieldOffsets
	amountCol, hasAmount := offsets[FieldAmount]
	dateCol, hasDate := offsets[FieldTxnDate]
	if !hasAmount || !hasDate {
		return nil, 0
	}

	var txs []models.LedgerTransaction
	skipped := 0
	for r := phase.StartRow; r <= phase.EndRow; r++ {
		// The local header row (and anything above it) is not data.
		if phase.HeaderRow >= 0 && r <= phase.HeaderRow {
			continue
		}

		amountCell := sheet.Cell(r, amountCol)
		dateCell := sheet.Cell(r, dateCol)
		if amountCell.IsNull() && dateCell.IsNull() {
			// Blank or structural row; not malformed data.
			continue
		}

		amount, ok := workbook.ParseAmount(amountCell)
		if !ok || amount.IsZero() {
			skipped++
			continue
		}
		date := workbook.ParseDate(dateCell)
		if date == nil {
			skipped++
			continue
		}

		tx := models.LedgerTransaction{
			PhaseLabel:    phase.Label,
			AccountNumber: phase.AccountNumber,
			Row:           r,
			Date:          *date,
			Amount:        amount.Abs(),
		}
		tx.Direction = coerceDirection(sheet, r, offsets, amount.IsNegative())
		if col, ok := offsets[FieldDescription]; ok {
			tx.Description = cellToString(sheet.Cell(r, col))
		}
		if col, ok := offsets[FieldSalesTag]; ok {
			tx.CounterpartyTag = cellToString(sheet.Cell(r, col))
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}

// coerceDirection reads the Dr/Cr-style token, tolerating variant
// spellings. Without a usable token the amount's sign decides, defaulting
// to credit; collection accounts are overwhelmingly inflows.
func coerceDirection(sheet *workbook.Sheet, row int, offsets map[string]int, negative bool) models.Direction {
	if col, ok := offsets[FieldDirection]; ok {
		token := strings.ToUpper(sheet.Cell(row, col).String())
		switch {
		case strings.Contains(token, "C"):
			return models.DirectionCredit
		case strings.Contains(token, "D"):
			return models.DirectionDebit
		}
	}
	if negative {
		return models.DirectionDebit
	}
	return models.DirectionCredit
}
