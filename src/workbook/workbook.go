// backend/src/workbook/workbook.go
package workbook

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CellKind discriminates the closed set of cell value types. Cell content is
// converted into this union once, at ingestion; the pipeline stages never
// re-inspect raw spreadsheet types.
type CellKind int

const (
	CellNull CellKind = iota
	CellNumber
	CellText
	CellDateSerial
)

// Cell is one workbook cell. Number is set for CellNumber and
// CellDateSerial; Text is set for CellText.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

func NullCell() Cell                { return Cell{Kind: CellNull} }
func NumberCell(v float64) Cell     { return Cell{Kind: CellNumber, Number: v} }
func TextCell(v string) Cell        { return Cell{Kind: CellText, Text: v} }
func DateSerialCell(v float64) Cell { return Cell{Kind: CellDateSerial, Number: v} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool {
	return c.Kind == CellNull || (c.Kind == CellText && strings.TrimSpace(c.Text) == "")
}

// String returns the trimmed textual content of a text cell, and "" for
// every other kind.
func (c Cell) String() string {
	if c.Kind != CellText {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

// spreadsheetEpoch is the standard serial epoch: serial 1 == 1899-12-31,
// i.e. 1899-12-30 plus one day.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// SerialToTime converts a spreadsheet date serial to a UTC time, truncating
// fractional days.
func SerialToTime(serial float64) time.Time {
	return spreadsheetEpoch.AddDate(0, 0, int(serial))
}

var textDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2-1-2006",
	"02 Jan 2006",
}

// ParseDate interprets a cell as a date. Date serials and plain numbers use
// the spreadsheet epoch; text cells are tried against a small set of
// layouts. Returns nil when the cell cannot be read as a date.
func ParseDate(c Cell) *time.Time {
	switch c.Kind {
	case CellDateSerial:
		t := SerialToTime(c.Number)
		return &t
	case CellNumber:
		// Manually maintained ledgers frequently leave date columns
		// formatted as plain numbers.
		if c.Number <= 0 {
			return nil
		}
		t := SerialToTime(c.Number)
		return &t
	case CellText:
		raw := strings.TrimSpace(c.Text)
		if raw == "" {
			return nil
		}
		for _, layout := range textDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				t = t.UTC()
				return &t
			}
		}
		return nil
	default:
		return nil
	}
}

// ParseAmount interprets a cell as a currency amount. Text cells tolerate
// thousands separators and surrounding whitespace.
func ParseAmount(c Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case CellNumber, CellDateSerial:
		return decimal.NewFromFloat(c.Number), true
	case CellText:
		raw := strings.TrimSpace(c.Text)
		raw = strings.ReplaceAll(raw, ",", "")
		if raw == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Sheet is an immutable in-memory grid of cells.
type Sheet struct {
	Name string
	rows [][]Cell
}

// NewSheet builds a sheet from a cell grid. Used by the loader and by tests.
func NewSheet(name string, rows [][]Cell) *Sheet {
	return &Sheet{Name: name, rows: rows}
}

// Cell returns the cell at zero-based (row, col), or a null cell when the
// coordinates fall outside the populated grid.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.rows) {
		return NullCell()
	}
	r := s.rows[row]
	if col < 0 || col >= len(r) {
		return NullCell()
	}
	return r[col]
}

// LastRow returns the zero-based index of the last populated row, or -1 for
// an empty sheet.
func (s *Sheet) LastRow() int {
	for r := len(s.rows) - 1; r >= 0; r-- {
		for _, c := range s.rows[r] {
			if !c.IsNull() {
				return r
			}
		}
	}
	return -1
}

// RowWidth returns the number of cells present in a row.
func (s *Sheet) RowWidth(row int) int {
	if row < 0 || row >= len(s.rows) {
		return 0
	}
	return len(s.rows[row])
}

// RowIsEmpty reports whether every cell in the row is null or blank.
func (s *Sheet) RowIsEmpty(row int) bool {
	if row < 0 || row >= len(s.rows) {
		return true
	}
	for _, c := range s.rows[row] {
		if !c.IsNull() {
			return false
		}
	}
	return true
}

// Workbook is an ordered collection of named sheets.
type Workbook struct {
	names  []string
	sheets map[string]*Sheet
}

// NewWorkbook builds a workbook preserving sheet order. Used by the loader
// and by tests.
func NewWorkbook(sheets ...*Sheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Sheet, len(sheets))}
	for _, s := range sheets {
		wb.names = append(wb.names, s.Name)
		wb.sheets[s.Name] = s
	}
	return wb
}

// SheetNames returns sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	return wb.names
}

// Sheet returns the named sheet.
func (wb *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := wb.sheets[name]
	return s, ok
}
