// backend/src/processors/matcher.go
package processors

import (
	"strings"

	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/models"
)

// Matcher links registry units to ledger transactions through their
// normalized identifiers. Three tiers run unconditionally for every unit
// and their results are unioned: sales tags are too inconsistent for any
// single tier to be trusted alone.
type Matcher struct{}

func NewMatcher() *Matcher { return &Matcher{} }

// Match returns, for every unit key, the transactions attributed to that
// unit. Units with no matches are present with an empty list; the absence
// of transactions is itself a verification signal.
func (m *Matcher) Match(units []models.SaleUnit, txs []models.LedgerTransaction) map[string][]models.LedgerTransaction {
	matches := make(map[string][]models.LedgerTransaction, len(units))
	for _, unit := range units {
		key := unit.Key()
		if key == "" {
			// A registry row may carry only a customer name; without a unit
			// identifier there is nothing to match against.
			continue
		}
		matches[key] = m.matchUnit(unit, txs)
	}
	return matches
}

func (m *Matcher) matchUnit(unit models.SaleUnit, txs []models.LedgerTransaction) []models.LedgerTransaction {
	matched := []models.LedgerTransaction{}
	seen := make(map[int]bool) // index into txs; tiers overlap heavily

	take := func(i int) {
		if !seen[i] {
			seen[i] = true
			matched = append(matched, txs[i])
		}
	}

	id := unit.NormalizedUnitID
	if id == "" {
		return matched
	}

	// Tier 1: exact normalized equality.
	for i, tx := range txs {
		if tx.NormalizedTag != "" && tx.NormalizedTag == id {
			take(i)
		}
	}

	// Tier 2: strip the project prefix and look for the remaining digit
	// run inside the tag. Requiring the full-length contiguous digit run
	// guards against incidental substring hits.
	if strings.HasPrefix(id, UnitPrefix) {
		run := digitRun(strings.TrimPrefix(id, UnitPrefix))
		if run != "" {
			for i, tx := range txs {
				if containsDigitRun(tx.NormalizedTag, run) {
					take(i)
				}
			}
		}
	}

	// Tier 3: the numeric suffix after the last hyphen.
	if idx := strings.LastIndex(id, "-"); idx >= 0 {
		suffix := id[idx+1:]
		if isDigitRun(suffix) {
			for i, tx := range txs {
				if tx.NormalizedTag != "" && strings.Contains(tx.NormalizedTag, suffix) {
					take(i)
				}
			}
		}
	}

	if len(matched) == 0 {
		logger.L.Debug("No ledger transactions matched for unit", "unitId", unit.UnitID, "normalized", id)
	}
	return matched
}

// containsDigitRun reports whether tag contains run as a maximal contiguous
// digit sequence: the occurrence may not be flanked by further digits, so
// "04402" does not match inside "104402".
func containsDigitRun(tag, run string) bool {
	if tag == "" || run == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(tag[start:], run)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx - 1
		after := idx + len(run)
		beforeOK := before < 0 || !isDigit(tag[before])
		afterOK := after >= len(tag) || !isDigit(tag[after])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
		if start >= len(tag) {
			return false
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
