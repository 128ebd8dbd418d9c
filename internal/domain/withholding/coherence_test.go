package withholding

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type stubInvoice struct {
	number string
	amount string
}

func (s stubInvoice) InvoiceNumber() string { return s.number }

func (s stubInvoice) InvoicedAmount() decimal.Decimal {
	return decimal.RequireFromString(s.amount)
}

func certFor(invoice, total, retained string) *Certificate {
	return &Certificate{
		Number:        "001-001-000000001",
		InvoiceNumber: invoice,
		InvoiceTotal:  decimal.RequireFromString(total),
		TotalRetained: decimal.RequireFromString(retained),
	}
}

func TestCheckCoherence(t *testing.T) {
	t.Run("coherent certificate has no findings", func(t *testing.T) {
		findings := CheckCoherence(stubInvoice{"001-001-000000123", "2.06"}, certFor("001-001-000000123", "2.06", "0.45"))
		assert.Empty(t, findings)
		assert.False(t, HasErrors(findings))
	})

	t.Run("sub-cent total difference is ignored", func(t *testing.T) {
		findings := CheckCoherence(stubInvoice{"001-001-000000123", "2.06"}, certFor("001-001-000000123", "2.065", "0.45"))
		assert.Empty(t, findings)
	})

	t.Run("total difference beyond one cent is a warning", func(t *testing.T) {
		findings := CheckCoherence(stubInvoice{"001-001-000000123", "2.06"}, certFor("001-001-000000123", "2.10", "0.45"))
		assert.Len(t, findings, 1)
		assert.Equal(t, SeverityWarning, findings[0].Severity)
		assert.False(t, HasErrors(findings))
	})

	t.Run("invoice mismatch is an error", func(t *testing.T) {
		findings := CheckCoherence(stubInvoice{"001-001-000000123", "2.06"}, certFor("001-001-000000999", "2.06", "0.45"))
		assert.Len(t, findings, 1)
		assert.Equal(t, SeverityError, findings[0].Severity)
		assert.True(t, HasErrors(findings))
	})

	t.Run("zero retained is an error", func(t *testing.T) {
		findings := CheckCoherence(stubInvoice{"001-001-000000123", "2.06"}, certFor("001-001-000000123", "2.06", "0"))
		assert.Len(t, findings, 1)
		assert.Equal(t, SeverityError, findings[0].Severity)
	})

	t.Run("empty document invoice never matches", func(t *testing.T) {
		assert.False(t, InvoiceNumbersMatch("", ""))
		assert.True(t, InvoiceNumbersMatch(" 001 ", "001"))
		assert.True(t, InvoiceNumbersMatch("001001000000123", "001-001-000000123"))
		assert.False(t, InvoiceNumbersMatch("001001000000124", "001-001-000000123"))
	})
}
