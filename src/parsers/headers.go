// backend/src/parsers/headers.go
package parsers

import (
	"strings"

	"github.com/username/escrowaudit/backend/src/workbook"
)

// Canonical registry field names produced by the header mapper.
const (
	FieldSerial        = "srNo"
	FieldCustomerName  = "customerName"
	FieldUnitID        = "unitId"
	FieldTowerID       = "towerId"
	FieldBookingDate   = "bookingDate"
	FieldBookingStatus = "bookingStatus"
	FieldPaymentPlan   = "paymentPlan"
	FieldSuperArea     = "superAreaSqFt"
	FieldCarpetArea    = "carpetAreaSqFt"
	FieldBSPRate       = "bspPerSqFt"
	FieldBasicPrice    = "basicPriceExclTax"
	FieldReceivedIncl  = "receivedInclTax"
	FieldReceivedExcl  = "receivedExclTax"
	FieldTaxReceived   = "taxReceived"
	FieldBalance       = "balanceReceivable"
	FieldBrokerName    = "brokerName"
)

// Canonical ledger field names.
const (
	FieldTxnDate      = "txnDate"
	FieldDescription  = "description"
	FieldAmount       = "amount"
	FieldDirection    = "drCr"
	FieldSalesTag     = "salesTag"
	FieldRunningTotal = "runningTotal"
)

// headerRule maps a lower-cased header to a canonical field when every
// keyword in all is present and no keyword in none is.
type headerRule struct {
	field string
	all   []string
	none  []string
}

func (r headerRule) matches(header string) bool {
	for _, kw := range r.all {
		if !strings.Contains(header, kw) {
			return false
		}
	}
	for _, kw := range r.none {
		if strings.Contains(header, kw) {
			return false
		}
	}
	return true
}

// registryHeaderRules is evaluated top to bottom; the first matching rule
// wins. The order is a contract: specific rules (amount received including
// tax) must run before the general ones they overlap with (amount received,
// tax received), and broker columns must be claimed before the loose
// customer-name rule can swallow them. Tests pin this ordering.
var registryHeaderRules = []headerRule{
	{field: FieldUnitID, all: []string{"unit", "number"}},
	{field: FieldUnitID, all: []string{"unit", "no"}},
	{field: FieldTowerID, all: []string{"tower"}},
	{field: FieldBookingDate, all: []string{"booking", "date"}},
	{field: FieldBookingStatus, all: []string{"status"}},
	{field: FieldPaymentPlan, all: []string{"payment", "plan"}},
	{field: FieldCarpetArea, all: []string{"carpet"}},
	{field: FieldSuperArea, all: []string{"area"}, none: []string{"carpet"}},
	{field: FieldBSPRate, all: []string{"bsp", "sqft"}},
	{field: FieldBasicPrice, all: []string{"basic", "price"}},
	{field: FieldReceivedIncl, all: []string{"received", "inc", "tax"}},
	{field: FieldReceivedIncl, all: []string{"received", "with", "tax"}},
	{field: FieldReceivedExcl, all: []string{"received", "exl"}},
	{field: FieldReceivedExcl, all: []string{"received", "excl"}},
	{field: FieldReceivedExcl, all: []string{"received", "amount"}, none: []string{"tax"}},
	{field: FieldReceivedExcl, all: []string{"received", "amt"}, none: []string{"tax"}},
	{field: FieldTaxReceived, all: []string{"tax", "received"}},
	{field: FieldBalance, all: []string{"balance"}},
	{field: FieldBrokerName, all: []string{"broker"}},
	{field: FieldSerial, all: []string{"sr no"}},
	{field: FieldSerial, all: []string{"serial"}},
	{field: FieldCustomerName, all: []string{"customer"}},
	{field: FieldCustomerName, all: []string{"name"}, none: []string{"broker", "tower", "applicant"}},
}

// ledgerHeaderRules maps the transaction table headers found inside each
// phase section. Same ordering contract as the registry table.
var ledgerHeaderRules = []headerRule{
	{field: FieldTxnDate, all: []string{"txn", "date"}},
	{field: FieldTxnDate, all: []string{"date"}, none: []string{"value"}},
	{field: FieldDescription, all: []string{"description"}},
	{field: FieldRunningTotal, all: []string{"running", "total"}},
	{field: FieldAmount, all: []string{"amount"}, none: []string{"running"}},
	{field: FieldDirection, all: []string{"dr", "cr"}},
	{field: FieldSalesTag, all: []string{"sales", "tag"}},
}

// mapHeaders maps each raw header in one row to a canonical field name.
// Headers matching no rule pass through verbatim; blank headers are
// dropped. The result maps column index to field name.
func mapHeaders(rules []headerRule, headers []string) map[int]string {
	mapping := make(map[int]string, len(headers))
	for idx, raw := range headers {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		matched := false
		for _, rule := range rules {
			if rule.matches(lower) {
				mapping[idx] = rule.field
				matched = true
				break
			}
		}
		if !matched {
			mapping[idx] = trimmed
		}
	}
	return mapping
}

// MapRegistryHeaders applies the registry rule table to one header row.
func MapRegistryHeaders(headers []string) map[int]string {
	return mapHeaders(registryHeaderRules, headers)
}

// MapLedgerHeaders applies the ledger rule table to one header row.
func MapLedgerHeaders(headers []string) map[int]string {
	return mapHeaders(ledgerHeaderRules, headers)
}

// headerTexts extracts the textual content of one sheet row for header
// mapping. Numeric cells are not headers and yield blanks.
func headerTexts(sheet *workbook.Sheet, row, width int) []string {
	out := make([]string, width)
	for c := 0; c < width; c++ {
		out[c] = sheet.Cell(row, c).String()
	}
	return out
}
