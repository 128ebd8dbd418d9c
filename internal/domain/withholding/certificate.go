// Package withholding parses authority-issued tax withholding certificates and
// checks them against the invoice they claim to retain against. Nothing in this
// package touches persisted state.
package withholding

import (
	"time"

	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Kind classifies a retention line item
type Kind string

const (
	KindVAT    Kind = "VAT"
	KindIncome Kind = "INCOME"
	KindOther  Kind = "OTHER"
)

// IsValid checks if the kind is a known Kind
func (k Kind) IsValid() bool {
	switch k {
	case KindVAT, KindIncome, KindOther:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// AuthorizedStatus is the only envelope status accepted for reconciliation
const AuthorizedStatus = "AUTHORIZED"

// vatCodes are the withholding codes for value-added tax retentions (by percentage band)
var vatCodes = map[string]struct{}{
	"1": {}, "2": {}, "3": {}, "9": {}, "10": {}, "11": {},
}

// incomeCodes are the withholding codes for income tax retentions
var incomeCodes = map[string]struct{}{
	"302": {}, "303": {}, "304": {}, "304A": {}, "304B": {}, "304C": {}, "304D": {}, "304E": {},
	"307": {}, "308": {}, "309": {}, "310": {}, "311": {}, "312": {}, "312A": {},
	"314A": {}, "314B": {}, "314C": {}, "314D": {},
	"319": {}, "320": {}, "322": {}, "323": {}, "323A": {}, "323B1": {}, "323E": {}, "323E2": {},
	"323F": {}, "323G": {}, "323H": {}, "323I": {}, "323M": {}, "323N": {}, "323O": {}, "323P": {},
	"323Q": {}, "323R": {}, "324A": {}, "324B": {}, "325": {}, "325A": {}, "326": {}, "327": {},
	"328": {}, "329": {}, "330": {}, "331": {}, "332": {}, "332A": {}, "332B": {}, "332C": {},
	"332D": {}, "332E": {}, "332F": {}, "332G": {}, "332H": {}, "332I": {}, "333": {}, "334": {},
	"335": {}, "336": {}, "337": {}, "338": {}, "339": {}, "340": {}, "341": {}, "342": {},
	"343": {}, "343A": {}, "343B": {}, "344": {}, "344A": {}, "345": {}, "346": {}, "346A": {},
	"347": {}, "348": {}, "349": {}, "350": {},
}

// Classify maps a withholding code to its Kind using the two fixed tables
func Classify(code string) Kind {
	if _, ok := vatCodes[code]; ok {
		return KindVAT
	}
	if _, ok := incomeCodes[code]; ok {
		return KindIncome
	}
	return KindOther
}

// Issuer identifies the withholding agent that issued the certificate
type Issuer struct {
	TaxID     string `json:"tax_id"`
	LegalName string `json:"legal_name"`
}

// LineItem is a single retained tax line
type LineItem struct {
	Code       string          `json:"code"`
	Base       decimal.Decimal `json:"base"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       Kind            `json:"kind"`
}

// Certificate is the parsed, ephemeral result of a withholding document
type Certificate struct {
	Number              string          `json:"number"`
	AuthorizationNumber string          `json:"authorization_number,omitempty"`
	AuthorizedAt        *time.Time      `json:"authorized_at,omitempty"`
	Issuer              Issuer          `json:"issuer"`
	InvoiceNumber       string          `json:"invoice_number"`
	InvoiceDate         string          `json:"invoice_date,omitempty"`
	InvoiceSubtotal     decimal.Decimal `json:"invoice_subtotal"`
	InvoiceTotal        decimal.Decimal `json:"invoice_total"`
	Items               []LineItem      `json:"items"`
	TotalRetained       decimal.Decimal `json:"total_retained"`
	RetainedForTax      decimal.Decimal `json:"retained_for_tax"`
	RetainedForIncome   decimal.Decimal `json:"retained_for_income"`
}

// summarize classifies the items and recomputes the three totals
func (c *Certificate) summarize() {
	c.TotalRetained = decimal.Zero
	c.RetainedForTax = decimal.Zero
	c.RetainedForIncome = decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.Kind = Classify(item.Code)
		c.TotalRetained = c.TotalRetained.Add(item.Amount)
		switch item.Kind {
		case KindVAT:
			c.RetainedForTax = c.RetainedForTax.Add(item.Amount)
		case KindIncome:
			c.RetainedForIncome = c.RetainedForIncome.Add(item.Amount)
		}
	}
	c.TotalRetained = valueobject.Round2(c.TotalRetained)
	c.RetainedForTax = valueobject.Round2(c.RetainedForTax)
	c.RetainedForIncome = valueobject.Round2(c.RetainedForIncome)
}

// HasRetention reports whether the certificate retains a non-zero amount
func (c *Certificate) HasRetention() bool {
	return c.TotalRetained.IsPositive() && !valueobject.IsZero(c.TotalRetained)
}
