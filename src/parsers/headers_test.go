// backend/src/parsers/headers_test.go
package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/username/escrowaudit/backend/src/parsers"
)

func TestMapRegistryHeaders(t *testing.T) {
	headers := []string{
		"Sr No",
		"Name of Customer",
		"Unit Number",
		"Tower No",
		"Booking date",
		"Booking Status",
		"Payment Plan",
		"Area(sqft)",
		"Carpet Area(sqft)",
		"BSP/SqFt",
		"Basic Price ( Exl Taxes)",
		"Amount received ( Exl Taxes)",
		"Taxes Received",
		"Amount received (Inc Taxes)",
		"Balance receivables (Total Sale Consideration )",
		"Broker Name",
	}

	got := parsers.MapRegistryHeaders(headers)

	want := map[int]string{
		0:  parsers.FieldSerial,
		1:  parsers.FieldCustomerName,
		2:  parsers.FieldUnitID,
		3:  parsers.FieldTowerID,
		4:  parsers.FieldBookingDate,
		5:  parsers.FieldBookingStatus,
		6:  parsers.FieldPaymentPlan,
		7:  parsers.FieldSuperArea,
		8:  parsers.FieldCarpetArea,
		9:  parsers.FieldBSPRate,
		10: parsers.FieldBasicPrice,
		11: parsers.FieldReceivedExcl,
		12: parsers.FieldTaxReceived,
		13: parsers.FieldReceivedIncl,
		14: parsers.FieldBalance,
		15: parsers.FieldBrokerName,
	}
	assert.Equal(t, want, got)
}

// The rule table is ordered; these cases pin the orderings that matter.
func TestRegistryHeaderRuleOrder(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		// "inc tax" must win before the looser received rules.
		{"Amount Received (Inc. Taxes)", parsers.FieldReceivedIncl},
		{"Amount received with taxes", parsers.FieldReceivedIncl},
		// "exl"/"excl" wins even though the header also mentions taxes.
		{"Amount received ( Exl Taxes)", parsers.FieldReceivedExcl},
		{"Received amount excl. tax", parsers.FieldReceivedExcl},
		// A plain tax column is still tax received.
		{"Taxes Received", parsers.FieldTaxReceived},
		// Broker is claimed before the loose name rule can swallow it.
		{"Broker Name", parsers.FieldBrokerName},
		{"Name of Customer", parsers.FieldCustomerName},
		// Carpet area is claimed before the general area rule.
		{"Carpet Area(sqft)", parsers.FieldCarpetArea},
		{"Super Area (SqFt)", parsers.FieldSuperArea},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := parsers.MapRegistryHeaders([]string{tt.header})
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestMapRegistryHeadersPassthroughAndBlanks(t *testing.T) {
	got := parsers.MapRegistryHeaders([]string{"", "CO-APPLICANT NAME ", "Unit Number", "   "})

	// Blank headers are dropped entirely.
	_, has0 := got[0]
	assert.False(t, has0)
	_, has3 := got[3]
	assert.False(t, has3)

	// Unmatched headers pass through verbatim, trimmed. The co-applicant
	// column mentions "name" but is guarded away from the customer rule.
	assert.Equal(t, "CO-APPLICANT NAME", got[1])
	assert.Equal(t, parsers.FieldUnitID, got[2])
}

func TestMapLedgerHeaders(t *testing.T) {
	headers := []string{"Txn Date", "Description", "Amount", "Dr/Cr", "Sales Tag", "Running Total"}
	got := parsers.MapLedgerHeaders(headers)

	want := map[int]string{
		0: parsers.FieldTxnDate,
		1: parsers.FieldDescription,
		2: parsers.FieldAmount,
		3: parsers.FieldDirection,
		4: parsers.FieldSalesTag,
		5: parsers.FieldRunningTotal,
	}
	assert.Equal(t, want, got)
}

func TestLedgerHeaderRuleOrder(t *testing.T) {
	// Running total must be claimed before the general amount rule.
	got := parsers.MapLedgerHeaders([]string{"Running Total Amount", "Amount"})
	assert.Equal(t, parsers.FieldRunningTotal, got[0])
	assert.Equal(t, parsers.FieldAmount, got[1])
}
