// Package custody holds the notarial document aggregate: its custody
// lifecycle and the payment ledger folded from its payment events.
package custody

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/notaria/backend/internal/domain/withholding"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type used on events and audit records
const AggregateTypeDocument = "Document"

// Registration carries what the front desk captures when a document enters custody
type Registration struct {
	TrackingCode           string
	Type                   DocumentType
	ClientName             string
	ClientIDNumber         string
	ClientEmail            string
	ClientPhone            string
	AssignedHandler        string
	InvoiceNumber          string
	InvoicedAmount         decimal.Decimal
	SkipNotification       bool
	SkipNotificationReason string
}

// CancellationRecord is stored when a document is cancelled
type CancellationRecord struct {
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// EliminationRecord is stored when a document is deleted or turned into a credit note
type EliminationRecord struct {
	Reason        string    `json:"reason"`
	Justification string    `json:"justification"`
	AsCreditNote  bool      `json:"as_credit_note"`
	EliminatedBy  string    `json:"eliminated_by"`
	EliminatedAt  time.Time `json:"eliminated_at"`
	Snapshot      Snapshot  `json:"snapshot"`
}

// Document is the aggregate root for a notarial document in custody.
// Custody status, verification code and ledger fields are unexported; they
// change only through the lifecycle and ledger methods.
type Document struct {
	shared.BaseAggregateRoot
	TrackingCode    string
	Type            DocumentType
	ClientName      string
	ClientIDNumber  string
	ClientEmail     string
	ClientPhone     string
	AssignedHandler string

	status                 CustodyStatus
	verificationCode       string
	skipNotification       bool
	skipNotificationReason string
	readyAt                *time.Time
	delivery               *DeliveryRecord
	cancellation           *CancellationRecord
	elimination            *EliminationRecord

	invoiceNumber string
	invoiced      decimal.Decimal
	paid          decimal.Decimal
	retained      decimal.Decimal
	pending       decimal.Decimal
	paymentStatus PaymentStatus
	lastPaymentAt *time.Time
	lastPaymentBy string
	events        []PaymentEvent
}

// NewDocument registers a document in IN_PROCESS with an empty ledger
func NewDocument(cal shared.CalendarPolicy, reg Registration) (*Document, error) {
	reg.TrackingCode = strings.TrimSpace(reg.TrackingCode)
	if err := ValidateTrackingCode(reg.TrackingCode); err != nil {
		return nil, err
	}
	if !reg.Type.IsValid() {
		return nil, shared.NewValidationError("document type must be one of PROTOCOL, PROCEEDINGS, CERTIFICATIONS, LEASES, OTHER")
	}
	if strings.TrimSpace(reg.ClientName) == "" {
		return nil, shared.NewValidationError("client name is required")
	}
	invoiced := valueobject.Round2(reg.InvoicedAmount)
	if invoiced.IsNegative() {
		return nil, shared.NewValidationError("invoiced amount cannot be negative")
	}
	if reg.SkipNotification && strings.TrimSpace(reg.SkipNotificationReason) == "" {
		return nil, shared.NewValidationError("a reason is required to skip the ready notification")
	}

	doc := &Document{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(cal),
		TrackingCode:           reg.TrackingCode,
		Type:                   reg.Type,
		ClientName:             strings.TrimSpace(reg.ClientName),
		ClientIDNumber:         strings.TrimSpace(reg.ClientIDNumber),
		ClientEmail:            strings.TrimSpace(reg.ClientEmail),
		ClientPhone:            strings.TrimSpace(reg.ClientPhone),
		AssignedHandler:        strings.TrimSpace(reg.AssignedHandler),
		status:                 StatusInProcess,
		skipNotification:       reg.SkipNotification,
		skipNotificationReason: strings.TrimSpace(reg.SkipNotificationReason),
		invoiceNumber:          withholding.FormatInvoiceNumber(reg.InvoiceNumber),
		invoiced:               invoiced,
		events:                 make([]PaymentEvent, 0),
	}
	doc.refold()

	doc.AddDomainEvent(NewDocumentRegisteredEvent(doc))

	return doc, nil
}

// Status returns the custody status
func (d *Document) Status() CustodyStatus { return d.status }

// VerificationCode returns the pending delivery code, empty unless READY_FOR_PICKUP
func (d *Document) VerificationCode() string { return d.verificationCode }

// SkipNotification reports whether the ready notification is suppressed
func (d *Document) SkipNotification() bool { return d.skipNotification }

// SkipNotificationReason returns why the ready notification is suppressed
func (d *Document) SkipNotificationReason() string { return d.skipNotificationReason }

// ReadyAt returns when the document became ready for pickup
func (d *Document) ReadyAt() *time.Time { return d.readyAt }

// Delivery returns the delivery record, nil until delivered
func (d *Document) Delivery() *DeliveryRecord { return d.delivery }

// Cancellation returns the cancellation record, nil unless cancelled
func (d *Document) Cancellation() *CancellationRecord { return d.cancellation }

// Elimination returns the elimination record, nil unless deleted or credit-noted
func (d *Document) Elimination() *EliminationRecord { return d.elimination }

// InvoiceNumber returns the invoice the document was billed under
func (d *Document) InvoiceNumber() string { return d.invoiceNumber }

// InvoicedAmount returns the invoiced total
func (d *Document) InvoicedAmount() decimal.Decimal { return d.invoiced }

// AmountPaid returns the fold of non-void cash-type payments
func (d *Document) AmountPaid() decimal.Decimal { return d.paid }

// AmountRetained returns the fold of non-void retentions
func (d *Document) AmountRetained() decimal.Decimal { return d.retained }

// AmountPending returns what is still owed
func (d *Document) AmountPending() decimal.Decimal { return d.pending }

// PaymentStatus returns the derived payment tag
func (d *Document) PaymentStatus() PaymentStatus { return d.paymentStatus }

// LastPaymentAt returns the timestamp of the latest ledger mutation
func (d *Document) LastPaymentAt() *time.Time { return d.lastPaymentAt }

// LastPaymentBy returns the actor of the latest ledger mutation
func (d *Document) LastPaymentBy() string { return d.lastPaymentBy }

// PaymentEvents returns a copy of the event history the ledger was folded from
func (d *Document) PaymentEvents() []PaymentEvent {
	out := make([]PaymentEvent, len(d.events))
	copy(out, d.events)
	return out
}

// SetNotificationPreference changes whether MarkReady notifies the client.
// Only allowed while the document is still IN_PROCESS.
func (d *Document) SetNotificationPreference(skip bool, reason string, at time.Time) error {
	if d.status != StatusInProcess {
		return shared.NewInvalidTransitionError("notification preference can only change before the document is ready for pickup")
	}
	reason = strings.TrimSpace(reason)
	if skip && reason == "" {
		return shared.NewValidationError("a reason is required to skip the ready notification")
	}
	if !skip {
		reason = ""
	}
	d.skipNotification = skip
	d.skipNotificationReason = reason
	d.Touch(at)
	return nil
}

// Snapshot is the full field-by-field state of a document. It is what the
// persistence layer stores and reloads, and what elimination preserves.
type Snapshot struct {
	ID                     uuid.UUID           `json:"id"`
	Version                int                 `json:"version"`
	TrackingCode           string              `json:"tracking_code"`
	Type                   DocumentType        `json:"type"`
	Status                 CustodyStatus       `json:"status"`
	ClientName             string              `json:"client_name"`
	ClientIDNumber         string              `json:"client_id_number,omitempty"`
	ClientEmail            string              `json:"client_email,omitempty"`
	ClientPhone            string              `json:"client_phone,omitempty"`
	AssignedHandler        string              `json:"assigned_handler,omitempty"`
	VerificationCode       string              `json:"verification_code,omitempty"`
	SkipNotification       bool                `json:"skip_notification"`
	SkipNotificationReason string              `json:"skip_notification_reason,omitempty"`
	ReadyAt                *time.Time          `json:"ready_at,omitempty"`
	Delivery               *DeliveryRecord     `json:"delivery,omitempty"`
	Cancellation           *CancellationRecord `json:"cancellation,omitempty"`
	Elimination            *EliminationRecord  `json:"elimination,omitempty"`
	InvoiceNumber          string              `json:"invoice_number,omitempty"`
	InvoicedAmount         decimal.Decimal     `json:"invoiced_amount"`
	AmountPaid             decimal.Decimal     `json:"amount_paid"`
	AmountRetained         decimal.Decimal     `json:"amount_retained"`
	AmountPending          decimal.Decimal     `json:"amount_pending"`
	PaymentStatus          PaymentStatus       `json:"payment_status"`
	LastPaymentAt          *time.Time          `json:"last_payment_at,omitempty"`
	LastPaymentBy          string              `json:"last_payment_by,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// Snapshot captures the current state
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		ID:                     d.ID,
		Version:                d.Version,
		TrackingCode:           d.TrackingCode,
		Type:                   d.Type,
		Status:                 d.status,
		ClientName:             d.ClientName,
		ClientIDNumber:         d.ClientIDNumber,
		ClientEmail:            d.ClientEmail,
		ClientPhone:            d.ClientPhone,
		AssignedHandler:        d.AssignedHandler,
		VerificationCode:       d.verificationCode,
		SkipNotification:       d.skipNotification,
		SkipNotificationReason: d.skipNotificationReason,
		ReadyAt:                d.readyAt,
		Delivery:               d.delivery,
		Cancellation:           d.cancellation,
		Elimination:            d.elimination,
		InvoiceNumber:          d.invoiceNumber,
		InvoicedAmount:         d.invoiced,
		AmountPaid:             d.paid,
		AmountRetained:         d.retained,
		AmountPending:          d.pending,
		PaymentStatus:          d.paymentStatus,
		LastPaymentAt:          d.lastPaymentAt,
		LastPaymentBy:          d.lastPaymentBy,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

// FromSnapshot rebuilds a document from stored state. The cached ledger
// columns are taken as-is until RestoreLedger refolds them from the events.
func FromSnapshot(s Snapshot) *Document {
	doc := &Document{
		TrackingCode:           s.TrackingCode,
		Type:                   s.Type,
		ClientName:             s.ClientName,
		ClientIDNumber:         s.ClientIDNumber,
		ClientEmail:            s.ClientEmail,
		ClientPhone:            s.ClientPhone,
		AssignedHandler:        s.AssignedHandler,
		status:                 s.Status,
		verificationCode:       s.VerificationCode,
		skipNotification:       s.SkipNotification,
		skipNotificationReason: s.SkipNotificationReason,
		readyAt:                s.ReadyAt,
		delivery:               s.Delivery,
		cancellation:           s.Cancellation,
		elimination:            s.Elimination,
		invoiceNumber:          s.InvoiceNumber,
		invoiced:               s.InvoicedAmount,
		paid:                   s.AmountPaid,
		retained:               s.AmountRetained,
		pending:                s.AmountPending,
		paymentStatus:          s.PaymentStatus,
		lastPaymentAt:          s.LastPaymentAt,
		lastPaymentBy:          s.LastPaymentBy,
		events:                 make([]PaymentEvent, 0),
	}
	doc.ID = s.ID
	doc.Version = s.Version
	doc.CreatedAt = s.CreatedAt
	doc.UpdatedAt = s.UpdatedAt
	return doc
}
