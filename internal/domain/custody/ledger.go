package custody

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/notaria/backend/internal/domain/withholding"
	"github.com/shopspring/decimal"
)

// LedgerTotals is the fold of a document's payment events
type LedgerTotals struct {
	Invoiced decimal.Decimal `json:"invoiced"`
	Paid     decimal.Decimal `json:"paid"`
	Retained decimal.Decimal `json:"retained"`
	Pending  decimal.Decimal `json:"pending"`
	Status   PaymentStatus   `json:"status"`
}

// Fold derives the ledger from the invoiced amount and the event history.
// Void events and the originals they cancel contribute nothing.
func Fold(invoiced decimal.Decimal, events []PaymentEvent) LedgerTotals {
	voided := voidedSet(events)

	var paid, retained []decimal.Decimal
	for _, e := range events {
		if e.IsVoid() {
			continue
		}
		if _, ok := voided[e.ID]; ok {
			continue
		}
		if e.IsRetention {
			retained = append(retained, e.Amount)
		} else {
			paid = append(paid, e.Amount)
		}
	}

	totals := LedgerTotals{
		Invoiced: valueobject.Round2(invoiced),
		Paid:     valueobject.Sum(paid...),
		Retained: valueobject.Sum(retained...),
	}
	totals.Pending = valueobject.ClampNonNegative(valueobject.Round2(totals.Invoiced.Sub(totals.Paid).Sub(totals.Retained)))
	totals.Status = derivePaymentStatus(totals)
	return totals
}

func derivePaymentStatus(t LedgerTotals) PaymentStatus {
	hasRetention := !valueobject.IsZero(t.Retained)
	settled := valueobject.IsZero(t.Pending)
	switch {
	case settled && hasRetention:
		return PaymentFullyPaidWithRetention
	case settled:
		return PaymentFullyPaid
	case !valueobject.IsZero(t.Paid.Add(t.Retained)):
		return PaymentPartiallyPaid
	default:
		return PaymentPending
	}
}

// Totals returns the current ledger values
func (d *Document) Totals() LedgerTotals {
	return LedgerTotals{
		Invoiced: d.invoiced,
		Paid:     d.paid,
		Retained: d.retained,
		Pending:  d.pending,
		Status:   d.paymentStatus,
	}
}

// remainder is what can still be allocated, before clamping
func (d *Document) remainder() decimal.Decimal {
	return valueobject.Round2(d.invoiced.Sub(d.paid).Sub(d.retained))
}

func (d *Document) refold() {
	t := Fold(d.invoiced, d.events)
	d.paid = t.Paid
	d.retained = t.Retained
	d.pending = t.Pending
	d.paymentStatus = t.Status
}

// RestoreLedger attaches the stored event history and refolds the ledger.
// It reports whether the cached values differed from the fold; the fold wins.
func (d *Document) RestoreLedger(events []PaymentEvent) bool {
	before := d.Totals()
	d.events = append(make([]PaymentEvent, 0, len(events)), events...)
	d.refold()
	after := d.Totals()
	return !valueobject.WithinEpsilon(before.Paid, after.Paid) ||
		!valueobject.WithinEpsilon(before.Retained, after.Retained) ||
		!valueobject.WithinEpsilon(before.Pending, after.Pending) ||
		before.Status != after.Status
}

func (d *Document) ensureLedgerOpen() error {
	if d.status.IsEliminated() {
		return shared.NewInvalidTransitionError(fmt.Sprintf("ledger is closed for a document in %s status", d.status))
	}
	return nil
}

func (d *Document) appendEvent(event PaymentEvent, actor Actor, at time.Time) {
	d.events = append(d.events, event)
	d.refold()
	d.lastPaymentAt = &at
	d.lastPaymentBy = actor.ID
	d.Touch(at)
}

// RegisterPayment records a cash-type payment. The amount is rounded to cents
// first and may not exceed the pending balance by a cent or more.
func (d *Document) RegisterPayment(actor Actor, amount decimal.Decimal, channel PaymentChannel, reference string, at time.Time) (*PaymentEvent, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := d.ensureLedgerOpen(); err != nil {
		return nil, err
	}
	if !channel.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unsupported payment channel %q", channel))
	}

	amount = valueobject.Round2(amount)
	if d.paymentStatus.IsSettled() {
		return nil, ErrAlreadySettled
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if valueobject.Exceeds(amount, d.remainder()) {
		return nil, ErrOverAllocation
	}

	event := newPaymentEvent(d.ID, actor, amount, channel, at)
	event.Reference = strings.TrimSpace(reference)
	d.appendEvent(event, actor, at)

	d.AddDomainEvent(NewPaymentRegisteredEvent(d, event))

	return &event, nil
}

// ApplyRetention merges a parsed withholding certificate into the ledger.
// Non-blocking coherence findings (a total mismatch beyond one cent) are
// returned so the caller can log them.
func (d *Document) ApplyRetention(actor Actor, cert *withholding.Certificate, at time.Time) (*PaymentEvent, []withholding.Finding, error) {
	if err := actor.Validate(); err != nil {
		return nil, nil, err
	}
	if cert == nil {
		return nil, nil, shared.NewValidationError("certificate is required")
	}
	if err := d.ensureLedgerOpen(); err != nil {
		return nil, nil, err
	}
	if !withholding.InvoiceNumbersMatch(d.invoiceNumber, cert.InvoiceNumber) {
		return nil, nil, withholding.ErrCertificateMismatch
	}
	if !cert.HasRetention() {
		return nil, nil, withholding.ErrNoRetentionFound
	}
	if d.hasActiveRetention(cert.Issuer.TaxID, cert.Number) {
		return nil, nil, withholding.ErrDuplicateCertificate
	}

	amount := valueobject.Round2(cert.TotalRetained)
	if valueobject.Exceeds(amount, d.remainder()) {
		return nil, nil, ErrOverAllocation
	}

	var warnings []withholding.Finding
	for _, f := range withholding.CheckCoherence(d, cert) {
		if f.Severity == withholding.SeverityWarning {
			warnings = append(warnings, f)
		}
	}

	event := newPaymentEvent(d.ID, actor, amount, ChannelRetention, at)
	event.IsRetention = true
	event.Reference = cert.Number
	event.IssuerTaxID = strings.TrimSpace(cert.Issuer.TaxID)
	if cert.Issuer.LegalName != "" {
		event.Note = "withheld by " + cert.Issuer.LegalName
	}
	d.appendEvent(event, actor, at)

	d.AddDomainEvent(NewRetentionAppliedEvent(d, event, cert))

	return &event, warnings, nil
}

// hasActiveRetention reports whether a non-voided retention carries the
// certificate number of the same withholding agent
func (d *Document) hasActiveRetention(issuerTaxID, number string) bool {
	issuerTaxID = strings.TrimSpace(issuerTaxID)
	voided := voidedSet(d.events)
	for _, e := range d.events {
		if !e.IsRetention || e.IsVoid() {
			continue
		}
		if _, ok := voided[e.ID]; ok {
			continue
		}
		if e.Reference == number && e.IssuerTaxID == issuerTaxID {
			return true
		}
	}
	return false
}

// voidedSet returns the ids of events cancelled by a void entry
func voidedSet(events []PaymentEvent) map[uuid.UUID]struct{} {
	voided := make(map[uuid.UUID]struct{})
	for _, e := range events {
		if e.IsVoid() {
			voided[*e.VoidsEventID] = struct{}{}
		}
	}
	return voided
}

// ReversePayment voids one event by appending its negation. Administrative only.
func (d *Document) ReversePayment(actor Actor, eventID uuid.UUID, reason string, at time.Time) (*PaymentEvent, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsElevated() {
		return nil, shared.NewForbiddenError("reversing a payment requires elevated privilege")
	}
	if err := d.ensureLedgerOpen(); err != nil {
		return nil, err
	}

	var original *PaymentEvent
	for i := range d.events {
		if d.events[i].ID == eventID {
			original = &d.events[i]
			break
		}
	}
	if original == nil {
		return nil, ErrPaymentEventNotFound
	}
	if original.IsVoid() {
		return nil, shared.NewInvalidTransitionError("a void entry cannot be reversed")
	}
	if _, ok := voidedSet(d.events)[original.ID]; ok {
		return nil, shared.NewInvalidTransitionError("payment event has already been reversed")
	}

	voids := original.ID
	event := newPaymentEvent(d.ID, actor, original.Amount.Neg(), original.Channel, at)
	event.IsRetention = original.IsRetention
	event.Reference = original.Reference
	event.IssuerTaxID = original.IssuerTaxID
	event.VoidsEventID = &voids
	event.Note = strings.TrimSpace(reason)
	d.appendEvent(event, actor, at)

	d.AddDomainEvent(NewPaymentReversedEvent(d, event))

	return &event, nil
}
