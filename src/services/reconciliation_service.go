// backend/src/services/reconciliation_service.go
package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/models"
	"github.com/username/escrowaudit/backend/src/parsers"
	"github.com/username/escrowaudit/backend/src/processors"
	"github.com/username/escrowaudit/backend/src/workbook"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reconciliationServiceImpl struct {
	registryParser     *parsers.RegistryParser
	ledgerParser       *parsers.LedgerParser
	matcher            *processors.Matcher
	verifier           *processors.Verifier
	costSheetProcessor *processors.CostSheetProcessor
	reportCache        *cache.Cache
}

// NewReconciliationService wires the pipeline stages together. The stages
// run strictly in order within one call; the service itself is safe for
// concurrent uploads because each run only touches its own data.
func NewReconciliationService(
	registryParser *parsers.RegistryParser,
	ledgerParser *parsers.LedgerParser,
	matcher *processors.Matcher,
	verifier *processors.Verifier,
	costSheetProcessor *processors.CostSheetProcessor,
	reportCache *cache.Cache,
) ReconciliationService {
	return &reconciliationServiceImpl{
		registryParser:     registryParser,
		ledgerParser:       ledgerParser,
		matcher:            matcher,
		verifier:           verifier,
		costSheetProcessor: costSheetProcessor,
		reportCache:        reportCache,
	}
}

func (s *reconciliationServiceImpl) ProcessWorkbook(fileReader io.Reader, filename string) (*models.RunReport, error) {
	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	sum := sha256.Sum256(data)
	workbookHash := hex.EncodeToString(sum[:])

	wb, err := workbook.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}

	// Stage 1: sheet location. Structural failures abort the run.
	registryName, err := parsers.LocateRegistrySheet(wb)
	if err != nil {
		return nil, err
	}
	ledgerName, err := parsers.LocateLedgerSheet(wb)
	if err != nil {
		return nil, err
	}
	registrySheet, _ := wb.Sheet(registryName)
	ledgerSheet, _ := wb.Sheet(ledgerName)
	logger.L.Info("Sheets located", "registry", registryName, "ledger", ledgerName, "filename", filename)

	// Stages 2-3: registry extraction.
	units, skippedRegistry, err := s.registryParser.Parse(registrySheet)
	if err != nil {
		return nil, err
	}

	var diags []models.Diagnostic
	seenAmbiguous := make(map[string]bool)
	recordAmbiguous := func(stage, raw string) {
		if raw == "" || seenAmbiguous[raw] {
			return
		}
		seenAmbiguous[raw] = true
		diags = append(diags, models.Diagnostic{
			Stage:    stage,
			Code:     models.DiagNormalizationAmbiguous,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("identifier %q fits no known digit pattern; left unreconstructed", raw),
		})
	}

	// Stage 6 for registry identifiers (normalization happens before
	// matching needs it).
	for i := range units {
		normalized, ambiguous := processors.NormalizeUnitID(units[i].UnitID)
		units[i].NormalizedUnitID = normalized
		if ambiguous {
			recordAmbiguous("normalizer", units[i].UnitID)
		}
	}

	// Stages 4-5: phase segmentation and transaction extraction.
	phases, segDiags := s.ledgerParser.SegmentPhases(ledgerSheet)
	diags = append(diags, segDiags...)

	var txs []models.LedgerTransaction
	skippedLedger := 0
	for _, phase := range phases {
		phaseTxs, skipped := s.ledgerParser.ExtractTransactions(ledgerSheet, phase)
		skippedLedger += skipped
		txs = append(txs, phaseTxs...)
	}

	// Stage 6 for ledger tags.
	for i := range txs {
		normalized, ambiguous := processors.NormalizeUnitID(txs[i].CounterpartyTag)
		txs[i].NormalizedTag = normalized
		if ambiguous {
			recordAmbiguous("normalizer", txs[i].CounterpartyTag)
		}
	}

	// Stage 7: matching.
	matches := s.matcher.Match(units, txs)

	// Stage 8: verification, plus the derived cost summary.
	results := make(map[string]models.VerificationResult, len(units))
	for _, unit := range units {
		key := unit.Key()
		if key == "" {
			continue
		}
		result := s.verifier.Verify(unit, matches[key])
		summary := s.costSheetProcessor.Build(unit, result)
		result.CostSummary = &summary
		results[key] = result
	}

	report := &models.RunReport{
		RunID:               uuid.New().String(),
		WorkbookHash:        workbookHash,
		Filename:            filename,
		GeneratedAt:         time.Now().UTC(),
		RegistrySheet:       registryName,
		LedgerSheet:         ledgerName,
		Phases:              phases,
		Results:             results,
		UnitCount:           len(units),
		TransactionCount:    len(txs),
		SkippedRegistryRows: skippedRegistry,
		SkippedLedgerRows:   skippedLedger,
		Diagnostics:         diags,
	}

	s.reportCache.Set(workbookHash, report, cache.DefaultExpiration)
	logger.L.Info("Reconciliation run complete",
		"runID", report.RunID,
		"units", report.UnitCount,
		"transactions", report.TransactionCount,
		"phases", len(phases),
		"skippedRegistryRows", skippedRegistry,
		"skippedLedgerRows", skippedLedger,
	)
	return report, nil
}

func (s *reconciliationServiceImpl) LatestReport(workbookHash string) (*models.RunReport, error) {
	if cached, found := s.reportCache.Get(workbookHash); found {
		return cached.(*models.RunReport), nil
	}
	return nil, ErrReportNotFound
}
