// backend/src/processors/matcher_test.go
package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/escrowaudit/backend/src/models"
)

func tx(tag string) models.LedgerTransaction {
	normalized, _ := NormalizeUnitID(tag)
	return models.LedgerTransaction{
		Date:            time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromInt(100000),
		Direction:       models.DirectionCredit,
		CounterpartyTag: tag,
		NormalizedTag:   normalized,
	}
}

func unitWith(id string) models.SaleUnit {
	normalized, _ := NormalizeUnitID(id)
	return models.SaleUnit{UnitID: id, NormalizedUnitID: normalized}
}

func TestMatchExactNormalizedTag(t *testing.T) {
	m := NewMatcher()
	unit := unitWith("CA-04-402")
	txs := []models.LedgerTransaction{
		tx("ca - 04 - 402"), // normalizes to the same identifier
		tx("CA-05-101"),
	}

	matches := m.Match([]models.SaleUnit{unit}, txs)
	require.Contains(t, matches, "CA-04-402")
	require.Len(t, matches["CA-04-402"], 1)
	assert.Equal(t, "ca - 04 - 402", matches["CA-04-402"][0].CounterpartyTag)
}

func TestMatchDigitRunTier(t *testing.T) {
	m := NewMatcher()
	unit := unitWith("CA-04-402")
	txs := []models.LedgerTransaction{
		tx("TOWER 04402 RECEIPT"), // digit run matches after prefix strip
		tx("REF 104405"),
		tx("CA-05-101"),
	}

	matches := m.Match([]models.SaleUnit{unit}, txs)
	require.Len(t, matches["CA-04-402"], 1)
	assert.Equal(t, "TOWER 04402 RECEIPT", matches["CA-04-402"][0].CounterpartyTag)
}

func TestMatchNumericSuffixTier(t *testing.T) {
	m := NewMatcher()
	unit := unitWith("CA-04-402")
	txs := []models.LedgerTransaction{
		tx("FLAT 402 BOOKING AMT"),
		tx("FLAT 301 BOOKING AMT"),
	}

	matches := m.Match([]models.SaleUnit{unit}, txs)
	require.Len(t, matches["CA-04-402"], 1)
	assert.Equal(t, "FLAT 402 BOOKING AMT", matches["CA-04-402"][0].CounterpartyTag)
}

// A tag that satisfies several tiers must still appear exactly once.
func TestMatchDeduplicatesAcrossTiers(t *testing.T) {
	m := NewMatcher()
	unit := unitWith("CA-04-402")
	// Exact match, digit-run match and suffix match all hit this tag.
	txs := []models.LedgerTransaction{tx("CA-04-402")}

	matches := m.Match([]models.SaleUnit{unit}, txs)
	assert.Len(t, matches["CA-04-402"], 1)
}

func TestMatchNoHitsYieldsEmptyList(t *testing.T) {
	m := NewMatcher()
	unit := unitWith("CA-09-901")
	txs := []models.LedgerTransaction{tx("CA-04-402"), tx("FLAT 402")}

	matches := m.Match([]models.SaleUnit{unit}, txs)
	require.Contains(t, matches, "CA-09-901")
	assert.NotNil(t, matches["CA-09-901"])
	assert.Empty(t, matches["CA-09-901"])
}

func TestMatchSkipsUnitsWithoutIdentifier(t *testing.T) {
	m := NewMatcher()
	units := []models.SaleUnit{
		{CustomerName: "Name Only Row"},
		unitWith("CA-04-402"),
	}

	matches := m.Match(units, []models.LedgerTransaction{tx("CA-04-402")})
	assert.Len(t, matches, 1)
	assert.Contains(t, matches, "CA-04-402")
}

func TestContainsDigitRun(t *testing.T) {
	tests := []struct {
		tag  string
		run  string
		want bool
	}{
		{"TOWER04402", "04402", true},
		{"104402", "04402", false},
		{"044021", "04402", false},
		{"X04402Y", "04402", true},
		{"04402", "04402", true},
		{"0440", "04402", false},
		{"", "04402", false},
		{"04402", "", false},
		// First occurrence is flanked, a later one is maximal.
		{"904402 04402", "04402", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, containsDigitRun(tc.tag, tc.run), "tag=%q run=%q", tc.tag, tc.run)
	}
}
