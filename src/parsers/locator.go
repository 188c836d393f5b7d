// backend/src/parsers/locator.go
package parsers

import (
	"fmt"
	"strings"

	"github.com/username/escrowaudit/backend/src/workbook"
)

// Well-known sheet labels as produced by the upstream export. Uploads often
// rename them, so lookup degrades to substring and content sniffing.
const (
	registrySheetName = "Annex - Sales Master"
	ledgerSheetName   = "Main Collection AC P1_P2_P3"

	// SheetTypeRegistry and SheetTypeLedger identify which lookup failed.
	SheetTypeRegistry = "sales registry"
	SheetTypeLedger   = "collection ledger"
)

// sniffRows bounds the content sniff to the top of each sheet.
const sniffRows = 10

// SheetNotFoundError is fatal for the whole run: without both sheets there
// is nothing to reconcile. It carries enough context for the uploader to
// fix the workbook.
type SheetNotFoundError struct {
	SheetType string
	Tried     []string
	Keywords  []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("no %s sheet found (sheets tried: %s; keywords: %s)",
		e.SheetType, strings.Join(e.Tried, ", "), strings.Join(e.Keywords, ", "))
}

// LocateRegistrySheet finds the sales-registry sheet: exact name, then a
// name containing both "annex" and "sales", then a content sniff for a unit
// column next to a customer column.
func LocateRegistrySheet(wb *workbook.Workbook) (string, error) {
	names := wb.SheetNames()
	for _, name := range names {
		if name == registrySheetName {
			return name, nil
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "annex") && strings.Contains(lower, "sales") {
			return name, nil
		}
	}
	for _, name := range names {
		sheet, ok := wb.Sheet(name)
		if !ok {
			continue
		}
		if sniffAny(sheet, "unit") && (sniffAny(sheet, "customer") || sniffAny(sheet, "name of")) {
			return name, nil
		}
	}
	return "", &SheetNotFoundError{
		SheetType: SheetTypeRegistry,
		Tried:     names,
		Keywords:  []string{registrySheetName, "annex+sales", "unit+customer"},
	}
}

// LocateLedgerSheet finds the collection-ledger sheet: exact name, then a
// name containing "main collection", then a content sniff for a transaction
// date column next to a phase label.
func LocateLedgerSheet(wb *workbook.Workbook) (string, error) {
	names := wb.SheetNames()
	for _, name := range names {
		if name == ledgerSheetName {
			return name, nil
		}
	}
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), "main collection") {
			return name, nil
		}
	}
	for _, name := range names {
		sheet, ok := wb.Sheet(name)
		if !ok {
			continue
		}
		if sniffAny(sheet, "txn date") && sniffAny(sheet, "phase") {
			return name, nil
		}
	}
	return "", &SheetNotFoundError{
		SheetType: SheetTypeLedger,
		Tried:     names,
		Keywords:  []string{ledgerSheetName, "main collection", "txn date+phase"},
	}
}

// sniffAny scans the first few rows of a sheet for a lower-cased token.
func sniffAny(sheet *workbook.Sheet, token string) bool {
	last := sheet.LastRow()
	if last > sniffRows-1 {
		last = sniffRows - 1
	}
	for r := 0; r <= last; r++ {
		width := sheet.RowWidth(r)
		for c := 0; c < width; c++ {
			if strings.Contains(strings.ToLower(sheet.Cell(r, c).String()), token) {
				return true
			}
		}
	}
	return false
}
