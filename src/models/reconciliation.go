// backend/src/models/reconciliation.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DirectBrokerSentinel is recorded when the registry has no broker for a unit.
const DirectBrokerSentinel = "DIRECT"

// SaleUnit is one row of the sales registry: the canonical per-unit booking
// record with identity, area, pricing and expected-payment fields. Parsers
// populate it once; it is never mutated afterwards.
type SaleUnit struct {
	UnitID           string     `json:"unit_id"`
	NormalizedUnitID string     `json:"normalized_unit_id"`
	TowerID          string     `json:"tower_id"`
	CustomerName     string     `json:"customer_name"`
	BookingDate      *time.Time `json:"booking_date,omitempty"`
	PaymentPlan      string     `json:"payment_plan"`

	SuperAreaSqFt  decimal.Decimal `json:"super_area_sqft"`
	CarpetAreaSqFt decimal.Decimal `json:"carpet_area_sqft"`
	BSPPerSqFt     decimal.Decimal `json:"bsp_per_sqft"`

	BasicPriceExclTax       decimal.Decimal `json:"basic_price_excl_tax"`
	ExpectedReceivedExclTax decimal.Decimal `json:"expected_received_excl_tax"`
	ExpectedTaxReceived     decimal.Decimal `json:"expected_tax_received"`
	ExpectedReceivedInclTax decimal.Decimal `json:"expected_received_incl_tax"`
	BalanceReceivable       decimal.Decimal `json:"balance_receivable"`

	BrokerName string `json:"broker_name"`

	// Extra carries registry columns that matched no header rule, keyed by
	// the verbatim header text. Downstream consumers read free-form fields
	// (home loan, co-applicant) from here.
	Extra map[string]string `json:"extra,omitempty"`
}

// Key returns the identifier the verification map is keyed by.
func (u SaleUnit) Key() string {
	return normalizeKey(u.UnitID)
}

func normalizeKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		if 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// LedgerPhase is one contiguous escrow-account section of the collection
// sheet. FieldOffsets maps canonical field names to column positions and is
// scoped to this phase only; each phase may lay its columns out differently.
type LedgerPhase struct {
	Label string `json:"label"`
	// AccountNumber is a long numeric string (>= 10 digits), or empty when
	// no account identifier could be discovered near the phase label.
	AccountNumber string         `json:"account_number"`
	StartRow      int            `json:"start_row"`
	EndRow        int            `json:"end_row"`
	HeaderRow     int            `json:"header_row"` // -1 when no local header row was found
	FieldOffsets  map[string]int `json:"field_offsets"`
}

// Direction of a ledger transaction relative to the escrow account.
type Direction string

const (
	DirectionCredit Direction = "credit" // inflow
	DirectionDebit  Direction = "debit"  // outflow / reversal
)

// LedgerTransaction is one parsed ledger row. Amount is always a
// non-negative magnitude; Direction carries the sign semantics. A
// transaction is only retained when both amount and date parsed and the
// amount is non-zero.
type LedgerTransaction struct {
	PhaseLabel    string          `json:"phase_label"`
	AccountNumber string          `json:"account_number"`
	Row           int             `json:"row"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     Direction       `json:"direction"`
	// CounterpartyTag is the free-text sales tag as written in the ledger;
	// empty when the cell was blank.
	CounterpartyTag string `json:"counterparty_tag"`
	NormalizedTag   string `json:"normalized_tag"`
}

// BouncedPair records a credit that was reversed by a matching debit within
// the bounce window. One credit may correlate with several debits; every
// correlation is recorded.
type BouncedPair struct {
	CreditDate   time.Time       `json:"credit_date"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	DebitDate    time.Time       `json:"debit_date"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	Description  string          `json:"description"`
}

// VerificationStatus is the per-unit outcome of a reconciliation run.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified"
	StatusWarning  VerificationStatus = "warning"
	StatusError    VerificationStatus = "error"
)

// VerificationResult is the per-unit reconciliation verdict.
type VerificationResult struct {
	UnitID       string `json:"unit_number"`
	CustomerName string `json:"customer_name"`

	ExpectedAmount     decimal.Decimal `json:"expected_amount"`
	ExpectedBaseAmount decimal.Decimal `json:"expected_base_amount"`
	ExpectedTaxAmount  decimal.Decimal `json:"expected_tax_amount"`

	TotalCredits decimal.Decimal `json:"total_credits"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	ActualAmount decimal.Decimal `json:"actual_amount"`

	AmountMatches    bool `json:"amount_match"`
	TransactionCount int  `json:"transaction_count"`

	// MatchedTransactions are ordered by date ascending.
	MatchedTransactions []LedgerTransaction `json:"transactions"`
	BouncedPairs        []BouncedPair       `json:"bounced_transactions"`
	HasBounced          bool                `json:"has_bounced"`

	Status VerificationStatus `json:"status"`

	CostSummary *CostSummary `json:"cost_summary,omitempty"`
}

// CostSummary carries the derived cost-sheet figures for one unit, computed
// from fixed rate constants. It is data only; rendering belongs elsewhere.
type CostSummary struct {
	FormattedUnit string `json:"formatted_unit"`
	FloorNumber   string `json:"floor_number"`

	BSPRate   decimal.Decimal `json:"bsp_rate"`
	BSPAmount decimal.Decimal `json:"bsp_amount"`

	IFMSRate   decimal.Decimal `json:"ifms_rate"`
	IFMSAmount decimal.Decimal `json:"ifms_amount"`

	AMCRate   decimal.Decimal `json:"amc_rate"`
	AMCAmount decimal.Decimal `json:"amc_amount"`

	GSTRate   decimal.Decimal `json:"gst_rate"`
	GSTAmount decimal.Decimal `json:"gst_amount"`

	AMCGSTRate   decimal.Decimal `json:"amc_gst_rate"`
	AMCGSTAmount decimal.Decimal `json:"amc_gst_amount"`

	BrokerName   string          `json:"broker_name"`
	BrokerRate   decimal.Decimal `json:"broker_rate"`
	BrokerAmount decimal.Decimal `json:"broker_amount"`

	AmountReceived     decimal.Decimal `json:"amount_received"`
	GSTReceived        decimal.Decimal `json:"gst_received"`
	TotalReceived      decimal.Decimal `json:"total_received"`
	TotalConsideration decimal.Decimal `json:"total_consideration"`
	BalanceReceivable  decimal.Decimal `json:"balance_receivable"`

	HomeLoan    string `json:"home_loan"`
	CoApplicant string `json:"co_applicant"`
}
