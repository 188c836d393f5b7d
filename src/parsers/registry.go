// backend/src/parsers/registry.go
package parsers

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/models"
	"github.com/username/escrowaudit/backend/src/workbook"
)

// ErrHeaderRowNotFound means the registry sheet has no recognizable header
// row in its first rows. Fatal for registry parsing.
var ErrHeaderRowNotFound = errors.New("registry header row not found")

// headerProbeRows bounds the header-row search from the top of the sheet.
const headerProbeRows = 10

// headerProbeTokens are the tell-tale registry column fragments; a row
// containing at least three of them is taken as the header row.
var headerProbeTokens = []string{"sr no", "customer", "unit", "tower", "booking"}

// RegistryParser extracts the canonical sale-unit registry from the sales
// master sheet.
type RegistryParser struct{}

func NewRegistryParser() *RegistryParser { return &RegistryParser{} }

// Parse locates the header row, maps its columns and converts every data
// row into a SaleUnit. Rows without a usable identifier are dropped and
// counted. Returned units are in sheet order.
func (p *RegistryParser) Parse(sheet *workbook.Sheet) ([]models.SaleUnit, int, error) {
	headerRow, err := findRegistryHeaderRow(sheet)
	if err != nil {
		return nil, 0, err
	}

	width := sheet.RowWidth(headerRow)
	mapping := MapRegistryHeaders(headerTexts(sheet, headerRow, width))

	var units []models.SaleUnit
	skipped := 0
	last := sheet.LastRow()
	for r := headerRow + 1; r <= last; r++ {
		if sheet.RowIsEmpty(r) {
			continue
		}
		unit, ok := buildSaleUnit(sheet, r, mapping)
		if !ok {
			skipped++
			logger.L.Debug("Registry row skipped: no unit number or customer name", "row", r)
			continue
		}
		units = append(units, unit)
	}

	return units, skipped, nil
}

func findRegistryHeaderRow(sheet *workbook.Sheet) (int, error) {
	last := sheet.LastRow()
	if last > headerProbeRows-1 {
		last = headerProbeRows - 1
	}
	for r := 0; r <= last; r++ {
		matches := 0
		width := sheet.RowWidth(r)
		for c := 0; c < width; c++ {
			text := strings.ToLower(sheet.Cell(r, c).String())
			if text == "" {
				continue
			}
			for _, token := range headerProbeTokens {
				if strings.Contains(text, token) {
					matches++
					break
				}
			}
		}
		if matches >= 3 {
			return r, nil
		}
	}
	return 0, ErrHeaderRowNotFound
}

func buildSaleUnit(sheet *workbook.Sheet, row int, mapping map[int]string) (models.SaleUnit, bool) {
	unit := models.SaleUnit{BrokerName: models.DirectBrokerSentinel}

	// Two raw headers may map to the same canonical field. Walking the
	// columns left to right makes the rightmost populated one win on every
	// run instead of leaving the choice to map iteration order.
	cols := make([]int, 0, len(mapping))
	for col := range mapping {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	for _, col := range cols {
		field := mapping[col]
		cell := sheet.Cell(row, col)
		if cell.IsNull() {
			continue
		}
		switch field {
		case FieldUnitID:
			unit.UnitID = cellToString(cell)
		case FieldCustomerName:
			unit.CustomerName = cellToString(cell)
		case FieldTowerID:
			unit.TowerID = cellToString(cell)
		case FieldBookingDate:
			unit.BookingDate = workbook.ParseDate(cell)
		case FieldPaymentPlan:
			unit.PaymentPlan = cellToString(cell)
		case FieldSuperArea:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.SuperAreaSqFt = v
			}
		case FieldCarpetArea:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.CarpetAreaSqFt = v
			}
		case FieldBSPRate:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.BSPPerSqFt = v
			}
		case FieldBasicPrice:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.BasicPriceExclTax = v
			}
		case FieldReceivedExcl:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.ExpectedReceivedExclTax = v
			}
		case FieldTaxReceived:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.ExpectedTaxReceived = v
			}
		case FieldReceivedIncl:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.ExpectedReceivedInclTax = v
			}
		case FieldBalance:
			if v, ok := workbook.ParseAmount(cell); ok {
				unit.BalanceReceivable = v
			}
		case FieldBrokerName:
			if name := cellToString(cell); name != "" {
				unit.BrokerName = name
			}
		case FieldSerial, FieldBookingStatus:
			// Recognized but not carried on the unit record.
		default:
			// Pass-through column: keep it under its verbatim header.
			if unit.Extra == nil {
				unit.Extra = make(map[string]string)
			}
			unit.Extra[field] = cellToString(cell)
		}
	}

	if unit.UnitID == "" && unit.CustomerName == "" {
		return models.SaleUnit{}, false
	}
	return unit, true
}

// cellToString renders any cell kind as display text; numeric unit and
// tower identifiers are common in manually edited registries.
func cellToString(c workbook.Cell) string {
	switch c.Kind {
	case workbook.CellText:
		return c.String()
	case workbook.CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case workbook.CellDateSerial:
		return workbook.SerialToTime(c.Number).Format("02-01-2006")
	default:
		return ""
	}
}
