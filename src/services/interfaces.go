// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/escrowaudit/backend/src/models"
)

// Define common service errors
var (
	// ErrWorkbookUnreadable means the upload could not be opened as an
	// xlsx workbook at all.
	ErrWorkbookUnreadable = errors.New("workbook could not be read")
	// ErrReportNotFound means no cached run report exists for the
	// requested workbook hash.
	ErrReportNotFound = errors.New("no report found for workbook hash")
)

// ReconciliationService runs the full reconciliation pipeline over one
// uploaded workbook. Runs are independent: no state is shared between
// uploads beyond the read-only report cache.
type ReconciliationService interface {
	// ProcessWorkbook ingests one xlsx stream, runs sheet location,
	// registry extraction, phase segmentation, transaction extraction,
	// matching and verification, and returns the immutable run report.
	ProcessWorkbook(fileReader io.Reader, filename string) (*models.RunReport, error)

	// LatestReport returns the cached report for a previously processed
	// workbook, identified by its content hash.
	LatestReport(workbookHash string) (*models.RunReport, error)
}
