// backend/src/processors/verifier.go
package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/escrowaudit/backend/src/models"
)

// Verifier aggregates a unit's matched transactions into a per-unit
// verification verdict: net receipts, bounce detection and a status.
type Verifier struct {
	// AmountTolerance is the fixed absolute margin below which the actual
	// and expected amounts are treated as equal. Not a percentage.
	AmountTolerance decimal.Decimal
	// BounceWindow is how long after a credit a same-amount debit still
	// counts as its reversal.
	BounceWindow time.Duration
	// BounceAmountTolerance absorbs rounding noise when pairing a credit
	// with its reversing debit.
	BounceAmountTolerance decimal.Decimal
	// StrictNoTxn escalates a unit with a non-zero expectation and zero
	// matched transactions from warning to error. Both precedences have
	// shipped; the default follows the current revision (warning).
	StrictNoTxn bool
}

// NewVerifier returns a Verifier with the documented default tolerances:
// one currency unit on the amount match, a seven-day bounce window and 0.01
// on the bounce amount pairing.
func NewVerifier() *Verifier {
	return &Verifier{
		AmountTolerance:       decimal.NewFromInt(1),
		BounceWindow:          7 * 24 * time.Hour,
		BounceAmountTolerance: decimal.RequireFromString("0.01"),
	}
}

// Verify computes the VerificationResult for one unit and its matched
// transactions. The inputs are read-only; matched transactions are copied
// before sorting.
func (v *Verifier) Verify(unit models.SaleUnit, matched []models.LedgerTransaction) models.VerificationResult {
	txs := make([]models.LedgerTransaction, len(matched))
	copy(txs, matched)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	var credits, debits []models.LedgerTransaction
	totalCredits := decimal.Zero
	totalDebits := decimal.Zero
	for _, tx := range txs {
		if tx.Direction == models.DirectionDebit {
			debits = append(debits, tx)
			totalDebits = totalDebits.Add(tx.Amount)
		} else {
			credits = append(credits, tx)
			totalCredits = totalCredits.Add(tx.Amount)
		}
	}
	actual := totalCredits.Sub(totalDebits)

	bounced := v.detectBounces(credits, debits)

	expected := unit.ExpectedReceivedInclTax
	amountMatches := actual.Sub(expected).Abs().LessThanOrEqual(v.AmountTolerance)

	result := models.VerificationResult{
		UnitID:              unit.Key(),
		CustomerName:        unit.CustomerName,
		ExpectedAmount:      expected,
		ExpectedBaseAmount:  unit.ExpectedReceivedExclTax,
		ExpectedTaxAmount:   unit.ExpectedTaxReceived,
		TotalCredits:        totalCredits,
		TotalDebits:         totalDebits,
		ActualAmount:        actual,
		AmountMatches:       amountMatches,
		TransactionCount:    len(txs),
		MatchedTransactions: txs,
		BouncedPairs:        bounced,
		HasBounced:          len(bounced) > 0,
	}
	result.Status = v.status(len(txs), amountMatches, len(bounced), expected)
	return result
}

// detectBounces pairs every credit with the debits of the same amount whose
// date falls within the bounce window on or after the credit's date. One
// credit may correlate with several debits; all pairs are recorded.
func (v *Verifier) detectBounces(credits, debits []models.LedgerTransaction) []models.BouncedPair {
	var pairs []models.BouncedPair
	for _, cr := range credits {
		windowEnd := cr.Date.Add(v.BounceWindow)
		for _, db := range debits {
			if db.Date.Before(cr.Date) || db.Date.After(windowEnd) {
				continue
			}
			if db.Amount.Sub(cr.Amount).Abs().GreaterThan(v.BounceAmountTolerance) {
				continue
			}
			pairs = append(pairs, models.BouncedPair{
				CreditDate:   cr.Date,
				CreditAmount: cr.Amount,
				DebitDate:    db.Date,
				DebitAmount:  db.Amount,
				Description:  db.Description,
			})
		}
	}
	return pairs
}

// status applies the precedence rules: a mismatch with transactions present
// is an error; bounces, or a non-zero expectation with nothing found, are
// warnings; everything else is verified.
func (v *Verifier) status(txCount int, amountMatches bool, bounceCount int, expected decimal.Decimal) models.VerificationStatus {
	switch {
	case txCount > 0 && !amountMatches:
		return models.StatusError
	case bounceCount > 0:
		return models.StatusWarning
	case txCount == 0 && !expected.IsZero():
		if v.StrictNoTxn {
			return models.StatusError
		}
		return models.StatusWarning
	default:
		return models.StatusVerified
	}
}
