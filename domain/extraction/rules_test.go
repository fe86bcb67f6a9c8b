package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumberRules_TokenShape(t *testing.T) {
	rule := invoiceNumberRules[0]

	// Tokens shorter than 3 characters are rejected
	assert.Nil(t, rule.FindStringSubmatch("Invoice #: AB"))

	m := rule.FindStringSubmatch("invoice INV/2024-7A")
	require.NotNil(t, m)
	assert.Equal(t, "INV/2024-7A", m[1])
}

func TestTotalAmountRules_GroupLayout(t *testing.T) {
	for _, rule := range totalAmountRules {
		// Group 1 is the optional currency code, group 2 the amount
		assert.Equal(t, 2, rule.NumSubexp())
	}

	m := totalAmountRules[0].FindStringSubmatch("Grand total GBP 12,345.67")
	require.NotNil(t, m)
	assert.Equal(t, "GBP", m[1])
	assert.Equal(t, "12,345.67", m[2])
}

func TestTotalAmountRules_AmountWithoutDecimals(t *testing.T) {
	m := totalAmountRules[0].FindStringSubmatch("Total: $500")
	require.NotNil(t, m)
	assert.Equal(t, "", m[1])
	assert.Equal(t, "500", m[2])
}

func TestDateFamilies_DoNotCrossMatch(t *testing.T) {
	// Year-first dates must not partially match the day-first family
	assert.Empty(t, dateFamilies[0].FindAllString("2024/01/15", -1))
	assert.Equal(t, []string{"2024/01/15"}, dateFamilies[1].FindAllString("2024/01/15", -1))

	assert.Empty(t, dateFamilies[1].FindAllString("15/01/2024", -1))
	assert.Equal(t, []string{"15/01/2024"}, dateFamilies[0].FindAllString("15/01/2024", -1))
}

func TestVendorExclude(t *testing.T) {
	assert.True(t, vendorExclude.MatchString("INVOICE"))
	assert.True(t, vendorExclude.MatchString("Monthly Statement"))
	assert.True(t, vendorExclude.MatchString("Billing Summary"))
	assert.False(t, vendorExclude.MatchString("Acme Supplies Ltd"))
}
