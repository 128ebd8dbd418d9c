package withholding

import (
	"fmt"

	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Severity of a coherence finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one result of CheckCoherence
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Invoice is the side of the reconciliation a certificate is checked against
type Invoice interface {
	InvoiceNumber() string
	InvoicedAmount() decimal.Decimal
}

// CheckCoherence compares a certificate with the invoice it claims to retain against
func CheckCoherence(invoice Invoice, cert *Certificate) []Finding {
	var findings []Finding

	if !InvoiceNumbersMatch(invoice.InvoiceNumber(), cert.InvoiceNumber) {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Message: fmt.Sprintf("certificate targets invoice %q but the document is invoiced as %q",
				cert.InvoiceNumber, invoice.InvoiceNumber()),
		})
	}

	if !valueobject.WithinEpsilon(cert.InvoiceTotal, invoice.InvoicedAmount()) {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("certificate invoice total %s differs from invoiced amount %s",
				valueobject.Format(cert.InvoiceTotal),
				valueobject.Format(invoice.InvoicedAmount())),
		})
	}

	if !cert.HasRetention() {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Message:  "certificate retains no amount",
		})
	}

	return findings
}

// HasErrors reports whether any finding has error severity
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// InvoiceNumbersMatch compares two invoice numbers in their dashed form, so
// 001001000000123 matches 001-001-000000123
func InvoiceNumbersMatch(a, b string) bool {
	a = FormatInvoiceNumber(a)
	return a != "" && a == FormatInvoiceNumber(b)
}
