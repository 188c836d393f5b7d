// backend/src/models/report.go
package models

import "time"

// DiagnosticSeverity grades a run diagnostic.
type DiagnosticSeverity string

const (
	SeverityInfo    DiagnosticSeverity = "info"
	SeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic codes for recoverable conditions absorbed during a run.
const (
	DiagUnresolvedAccountNumber = "UnresolvedAccountNumber"
	DiagNormalizationAmbiguous  = "NormalizationAmbiguous"
	DiagHeaderRowInherited      = "HeaderRowInherited"
)

// Diagnostic is one recoverable condition observed during a run. Diagnostics
// are threaded explicitly through the pipeline as part of the report rather
// than accumulated in ambient state.
type Diagnostic struct {
	Stage    string             `json:"stage"`
	Code     string             `json:"code"`
	Severity DiagnosticSeverity `json:"severity"`
	Message  string             `json:"message"`
}

// RunReport is the read-only snapshot produced by one full reconciliation
// run over one uploaded workbook. Consumers never mutate it.
type RunReport struct {
	RunID        string    `json:"run_id"`
	WorkbookHash string    `json:"workbook_hash"`
	Filename     string    `json:"filename"`
	GeneratedAt  time.Time `json:"generated_at"`

	RegistrySheet string `json:"registry_sheet"`
	LedgerSheet   string `json:"ledger_sheet"`

	// Phases are ordered by appearance in the ledger sheet.
	Phases []LedgerPhase `json:"phases"`

	// Results is keyed by the trimmed, upper-cased unit identifier.
	Results map[string]VerificationResult `json:"results"`

	UnitCount           int `json:"unit_count"`
	TransactionCount    int `json:"transaction_count"`
	SkippedRegistryRows int `json:"skipped_registry_rows"`
	SkippedLedgerRows   int `json:"skipped_ledger_rows"`

	Diagnostics []Diagnostic `json:"diagnostics"`
}
