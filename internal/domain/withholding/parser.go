package withholding

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// authorizationEnvelope is the outer document returned by the tax authority.
// The certificate body arrives either as nested elements or as an escaped
// (usually CDATA) XML string.
type authorizationEnvelope struct {
	Status              string      `xml:"status"`
	AuthorizationNumber string      `xml:"authorizationNumber"`
	AuthorizationDate   string      `xml:"authorizationDate"`
	Certificate         *embeddedXML `xml:"certificate"`
}

type embeddedXML struct {
	Text  string `xml:",chardata"`
	Inner []byte `xml:",innerxml"`
}

type certificateBody struct {
	Issuer struct {
		TaxID     string `xml:"taxId"`
		LegalName string `xml:"legalName"`
	} `xml:"issuer"`
	Emission struct {
		Establishment string `xml:"establishment"`
		PointOfSale   string `xml:"pointOfSale"`
		Sequence      string `xml:"sequence"`
	} `xml:"emission"`
	Sustaining        []sustainingDocument `xml:"sustainingDocument"`
	SustainingWrapped []sustainingDocument `xml:"sustainingDocuments>sustainingDocument"`
}

type sustainingDocument struct {
	DocumentNumber  string          `xml:"documentNumber"`
	EmissionDate    string          `xml:"emissionDate"`
	TotalWithoutTax string          `xml:"totalWithoutTax"`
	TotalAmount     string          `xml:"totalAmount"`
	Retentions      []retentionLine `xml:"retentions>retention"`
	Retention       []retentionLine `xml:"retention"`
}

type retentionLine struct {
	Code           string `xml:"code"`
	Base           string `xml:"base"`
	Percentage     string `xml:"percentage"`
	AmountRetained string `xml:"amountRetained"`
}

var authorizationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02",
}

// Parse reads an authorization envelope and returns the certificate it carries.
// It fails with ErrCertificateNotAuthorized unless the envelope status is
// AUTHORIZED, and with a validation error when the document is malformed.
func Parse(data []byte) (*Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, shared.NewValidationError("certificate document is empty")
	}

	var env authorizationEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, shared.NewValidationError(fmt.Sprintf("certificate document is not valid XML: %v", err))
	}
	if strings.TrimSpace(env.Status) != AuthorizedStatus {
		return nil, ErrCertificateNotAuthorized
	}
	if env.Certificate == nil {
		return nil, shared.NewValidationError("authorization envelope has no certificate")
	}

	body, err := decodeBody(env.Certificate)
	if err != nil {
		return nil, err
	}

	docs := body.Sustaining
	if len(docs) == 0 {
		docs = body.SustainingWrapped
	}
	if len(docs) == 0 {
		return nil, shared.NewValidationError("certificate has no sustaining document")
	}
	sustaining := docs[0]

	cert := &Certificate{
		Number:              joinNumber(body.Emission.Establishment, body.Emission.PointOfSale, body.Emission.Sequence),
		AuthorizationNumber: strings.TrimSpace(env.AuthorizationNumber),
		AuthorizedAt:        parseAuthorizationDate(env.AuthorizationDate),
		Issuer: Issuer{
			TaxID:     strings.TrimSpace(body.Issuer.TaxID),
			LegalName: strings.TrimSpace(body.Issuer.LegalName),
		},
		InvoiceNumber: FormatInvoiceNumber(sustaining.DocumentNumber),
		InvoiceDate:   strings.TrimSpace(sustaining.EmissionDate),
	}
	if cert.Number == "" {
		return nil, shared.NewValidationError("certificate emission number is missing")
	}
	if cert.InvoiceNumber == "" {
		return nil, shared.NewValidationError("certificate does not name a target invoice")
	}

	if cert.InvoiceSubtotal, err = parseAmount("totalWithoutTax", sustaining.TotalWithoutTax); err != nil {
		return nil, err
	}
	if cert.InvoiceTotal, err = parseAmount("totalAmount", sustaining.TotalAmount); err != nil {
		return nil, err
	}

	lines := append(sustaining.Retentions, sustaining.Retention...)
	cert.Items = make([]LineItem, 0, len(lines))
	for i, line := range lines {
		item, err := parseLine(i, line)
		if err != nil {
			return nil, err
		}
		cert.Items = append(cert.Items, item)
	}

	cert.summarize()
	return cert, nil
}

func decodeBody(raw *embeddedXML) (*certificateBody, error) {
	payload := []byte("<certificate>" + string(raw.Inner) + "</certificate>")
	if text := strings.TrimSpace(raw.Text); strings.HasPrefix(text, "<") {
		payload = []byte(text)
	}

	var body certificateBody
	if err := xml.Unmarshal(payload, &body); err != nil {
		return nil, shared.NewValidationError(fmt.Sprintf("certificate body is not valid XML: %v", err))
	}
	return &body, nil
}

func parseLine(index int, line retentionLine) (LineItem, error) {
	code := strings.TrimSpace(line.Code)
	if code == "" {
		return LineItem{}, shared.NewValidationError(fmt.Sprintf("retention %d has no code", index+1))
	}
	base, err := parseAmount("base", line.Base)
	if err != nil {
		return LineItem{}, err
	}
	pct, err := parseAmount("percentage", line.Percentage)
	if err != nil {
		return LineItem{}, err
	}
	amount, err := parseAmount("amountRetained", line.AmountRetained)
	if err != nil {
		return LineItem{}, err
	}
	if amount.IsNegative() {
		return LineItem{}, shared.NewValidationError(fmt.Sprintf("retention %d has a negative amount", index+1))
	}
	return LineItem{Code: code, Base: base, Percentage: pct, Amount: amount}, nil
}

// parseAmount treats a missing value as zero
func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewValidationError(fmt.Sprintf("invalid %s value %q", field, raw))
	}
	return d, nil
}

func parseAuthorizationDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range authorizationDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func joinNumber(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return ""
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, "-")
}

// FormatInvoiceNumber normalizes a 15-digit invoice number into the
// establishment-point-sequence form (001-002-000000123). Values that are
// already hyphenated, or that do not have 15 digits, are returned trimmed.
func FormatInvoiceNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) != 15 || strings.Contains(raw, "-") {
		return raw
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return raw
		}
	}
	return raw[0:3] + "-" + raw[3:6] + "-" + raw[6:]
}
