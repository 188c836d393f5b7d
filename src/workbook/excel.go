// backend/src/workbook/excel.go
package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/escrowaudit/backend/src/logger"
)

// builtinDateNumFmts are the builtin xlsx number formats that render a
// numeric value as a date or time.
var builtinDateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
	21: true, 22: true, 27: true, 28: true, 29: true, 30: true, 31: true,
	32: true, 33: true, 34: true, 35: true, 36: true, 45: true, 46: true,
	47: true, 50: true, 51: true, 52: true, 53: true, 54: true, 55: true,
	56: true, 57: true, 58: true,
}

// Load reads an .xlsx stream into an immutable Workbook, converting every
// cell into the tagged union exactly once.
func Load(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("workbook: failed to open xlsx stream: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.L.Warn("Failed to close xlsx reader", "error", cerr)
		}
	}()

	var sheets []*Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("workbook: failed to read sheet %q: %w", name, err)
		}

		grid := make([][]Cell, len(rows))
		for ri, row := range rows {
			cells := make([]Cell, len(row))
			for ci, raw := range row {
				cells[ci] = convertCell(f, name, ri, ci, raw)
			}
			grid[ri] = cells
		}
		sheets = append(sheets, NewSheet(name, grid))
	}

	return NewWorkbook(sheets...), nil
}

// convertCell classifies one raw cell value into the tagged union. Numeric
// cells carrying a date number format become date serials.
func convertCell(f *excelize.File, sheet string, row, col int, raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return NullCell()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return TextCell(raw)
	}
	if isDateFormatted(f, sheet, row, col) {
		return DateSerialCell(v)
	}
	return NumberCell(v)
}

func isDateFormatted(f *excelize.File, sheet string, row, col int) bool {
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return false
	}
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateNumFmts[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return looksLikeDateFormat(*style.CustomNumFmt)
	}
	return false
}

// looksLikeDateFormat heuristically recognizes custom date formats such as
// "dd-mm-yyyy" or "d/m/yy h:mm". General and numeric formats carry no
// day/year tokens.
func looksLikeDateFormat(numFmt string) bool {
	lower := strings.ToLower(numFmt)
	return strings.ContainsAny(lower, "dy") || strings.Contains(lower, "mm")
}
