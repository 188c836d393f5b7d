// backend/src/processors/costsheet.go
package processors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/escrowaudit/backend/src/models"
)

// CostRates are the fixed per-unit rate constants applied when deriving the
// cost summary. They are configuration, not values discovered from the
// workbook.
type CostRates struct {
	IFMSPerSqFt      decimal.Decimal // interest-free maintenance security
	AMCPerSqFtMonth  decimal.Decimal // annual maintenance, charged for 12 months
	GSTPercent       decimal.Decimal // on the basic price
	AMCGSTPercent    decimal.Decimal // on the AMC amount
	BrokeragePerSqFt decimal.Decimal
}

// DefaultCostRates returns the standard rate card.
func DefaultCostRates() CostRates {
	return CostRates{
		IFMSPerSqFt:      decimal.NewFromInt(25),
		AMCPerSqFtMonth:  decimal.NewFromInt(3),
		GSTPercent:       decimal.NewFromInt(5),
		AMCGSTPercent:    decimal.NewFromInt(18),
		BrokeragePerSqFt: decimal.NewFromInt(100),
	}
}

const amcMonths = 12

var hundred = decimal.NewFromInt(100)

// CostSheetProcessor derives the cost summary figures for a verified unit.
type CostSheetProcessor struct {
	rates CostRates
}

func NewCostSheetProcessor(rates CostRates) *CostSheetProcessor {
	return &CostSheetProcessor{rates: rates}
}

// Build computes the cost summary for one unit from its registry record and
// verification result. Pure data; no rendering.
func (p *CostSheetProcessor) Build(unit models.SaleUnit, result models.VerificationResult) models.CostSummary {
	ifmsAmount := p.rates.IFMSPerSqFt.Mul(unit.SuperAreaSqFt)
	amcAmount := p.rates.AMCPerSqFtMonth.Mul(unit.SuperAreaSqFt).Mul(decimal.NewFromInt(amcMonths))
	gstAmount := unit.BasicPriceExclTax.Mul(p.rates.GSTPercent).Div(hundred)
	amcGSTAmount := amcAmount.Mul(p.rates.AMCGSTPercent).Div(hundred)
	brokerAmount := p.rates.BrokeragePerSqFt.Mul(unit.SuperAreaSqFt)

	totalConsideration := unit.BasicPriceExclTax.Add(ifmsAmount).Add(amcAmount)

	summary := models.CostSummary{
		FormattedUnit: formatUnit(unit),
		FloorNumber:   floorNumber(unit.NormalizedUnitID),

		BSPRate:   unit.BSPPerSqFt,
		BSPAmount: unit.BasicPriceExclTax,

		IFMSRate:   p.rates.IFMSPerSqFt,
		IFMSAmount: ifmsAmount,

		AMCRate:   p.rates.AMCPerSqFtMonth,
		AMCAmount: amcAmount,

		GSTRate:   p.rates.GSTPercent,
		GSTAmount: gstAmount,

		AMCGSTRate:   p.rates.AMCGSTPercent,
		AMCGSTAmount: amcGSTAmount,

		BrokerName:   unit.BrokerName,
		BrokerRate:   p.rates.BrokeragePerSqFt,
		BrokerAmount: brokerAmount,

		AmountReceived:     result.ExpectedBaseAmount,
		GSTReceived:        result.ExpectedTaxAmount,
		TotalReceived:      result.ExpectedAmount,
		TotalConsideration: totalConsideration,
		BalanceReceivable:  totalConsideration.Sub(result.ExpectedBaseAmount),

		HomeLoan:    extraOrNA(unit, "Self-funded or loan availed"),
		CoApplicant: extraOrNA(unit, "CO-APPLICANT NAME"),
	}
	return summary
}

// formatUnit renders the "CA-04-402" display form from the tower and the
// numeric unit suffix.
func formatUnit(unit models.SaleUnit) string {
	id := strings.ToUpper(strings.TrimSpace(unit.UnitID))
	suffix := id
	if idx := strings.LastIndex(id, "-"); idx >= 0 {
		suffix = id[idx+1:]
	}
	formatted := unit.TowerID + "-" + suffix
	return strings.ToUpper(strings.ReplaceAll(formatted, " ", "-"))
}

// floorNumber derives the floor from the unit suffix: units are numbered
// floor*100 + door, floor 0 is the ground floor.
func floorNumber(normalizedID string) string {
	suffix := normalizedID
	if idx := strings.LastIndex(normalizedID, "-"); idx >= 0 {
		suffix = normalizedID[idx+1:]
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "Ground"
	}
	floor := n / 100
	if floor == 0 {
		return "Ground"
	}
	return fmt.Sprintf("%dth", floor)
}

func extraOrNA(unit models.SaleUnit, key string) string {
	if v, ok := unit.Extra[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return "N/A"
}
