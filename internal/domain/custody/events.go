package custody

import (
	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/domain/withholding"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeDocumentRegistered = "DocumentRegistered"
	EventTypeDocumentReady      = "DocumentReadyForPickup"
	EventTypeDocumentDelivered  = "DocumentDelivered"
	EventTypeDocumentCancelled  = "DocumentCancelled"
	EventTypeDocumentEliminated = "DocumentEliminated"
	EventTypePaymentRegistered  = "PaymentRegistered"
	EventTypeRetentionApplied   = "RetentionApplied"
	EventTypePaymentReversed    = "PaymentReversed"
)

// DocumentRegisteredEvent is raised when a document enters custody
type DocumentRegisteredEvent struct {
	shared.BaseDomainEvent
	TrackingCode   string          `json:"tracking_code"`
	DocumentType   DocumentType    `json:"document_type"`
	ClientName     string          `json:"client_name"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	InvoicedAmount decimal.Decimal `json:"invoiced_amount"`
}

// NewDocumentRegisteredEvent creates a new DocumentRegisteredEvent
func NewDocumentRegisteredEvent(d *Document) *DocumentRegisteredEvent {
	return &DocumentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentRegistered, AggregateTypeDocument, d.ID, d.CreatedAt),
		TrackingCode:    d.TrackingCode,
		DocumentType:    d.Type,
		ClientName:      d.ClientName,
		InvoiceNumber:   d.invoiceNumber,
		InvoicedAmount:  d.invoiced,
	}
}

// DocumentReadyEvent is raised when a document becomes ready for pickup.
// It carries what the notification collaborator needs to reach the client.
type DocumentReadyEvent struct {
	shared.BaseDomainEvent
	TrackingCode     string       `json:"tracking_code"`
	DocumentType     DocumentType `json:"document_type"`
	ClientName       string       `json:"client_name"`
	ClientEmail      string       `json:"client_email,omitempty"`
	ClientPhone      string       `json:"client_phone,omitempty"`
	VerificationCode string       `json:"verification_code"`
	NotifyRecipient  bool         `json:"notify_recipient"`
	SkipReason       string       `json:"skip_reason,omitempty"`
	MarkedBy         string       `json:"marked_by"`
}

// NewDocumentReadyEvent creates a new DocumentReadyEvent
func NewDocumentReadyEvent(d *Document, actor Actor) *DocumentReadyEvent {
	return &DocumentReadyEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeDocumentReady, AggregateTypeDocument, d.ID, d.UpdatedAt),
		TrackingCode:     d.TrackingCode,
		DocumentType:     d.Type,
		ClientName:       d.ClientName,
		ClientEmail:      d.ClientEmail,
		ClientPhone:      d.ClientPhone,
		VerificationCode: d.verificationCode,
		NotifyRecipient:  !d.skipNotification,
		SkipReason:       d.skipNotificationReason,
		MarkedBy:         actor.ID,
	}
}

// DocumentDeliveredEvent is raised when a document is handed over
type DocumentDeliveredEvent struct {
	shared.BaseDomainEvent
	TrackingCode   string `json:"tracking_code"`
	ReceiverName   string `json:"receiver_name"`
	ManualOverride bool   `json:"manual_override"`
}

// NewDocumentDeliveredEvent creates a new DocumentDeliveredEvent
func NewDocumentDeliveredEvent(d *Document) *DocumentDeliveredEvent {
	return &DocumentDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentDelivered, AggregateTypeDocument, d.ID, d.UpdatedAt),
		TrackingCode:    d.TrackingCode,
		ReceiverName:    d.delivery.ReceiverName,
		ManualOverride:  d.delivery.ManualOverride,
	}
}

// DocumentCancelledEvent is raised when a document is cancelled
type DocumentCancelledEvent struct {
	shared.BaseDomainEvent
	TrackingCode string `json:"tracking_code"`
	Reason       string `json:"reason"`
	WasReady     bool   `json:"was_ready"`
}

// NewDocumentCancelledEvent creates a new DocumentCancelledEvent
func NewDocumentCancelledEvent(d *Document, wasReady bool) *DocumentCancelledEvent {
	return &DocumentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCancelled, AggregateTypeDocument, d.ID, d.UpdatedAt),
		TrackingCode:    d.TrackingCode,
		Reason:          d.cancellation.Reason,
		WasReady:        wasReady,
	}
}

// DocumentEliminatedEvent is raised when a document is deleted or credit-noted
type DocumentEliminatedEvent struct {
	shared.BaseDomainEvent
	TrackingCode string        `json:"tracking_code"`
	Status       CustodyStatus `json:"status"`
	Reason       string        `json:"reason"`
	EliminatedBy string        `json:"eliminated_by"`
}

// NewDocumentEliminatedEvent creates a new DocumentEliminatedEvent
func NewDocumentEliminatedEvent(d *Document, record *EliminationRecord) *DocumentEliminatedEvent {
	return &DocumentEliminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentEliminated, AggregateTypeDocument, d.ID, d.UpdatedAt),
		TrackingCode:    d.TrackingCode,
		Status:          d.status,
		Reason:          record.Reason,
		EliminatedBy:    record.EliminatedBy,
	}
}

// PaymentRegisteredEvent is raised for each cash-type payment
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	PaymentEventID uuid.UUID       `json:"payment_event_id"`
	Amount         decimal.Decimal `json:"amount"`
	Channel        PaymentChannel  `json:"channel"`
	Pending        decimal.Decimal `json:"pending"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
}

// NewPaymentRegisteredEvent creates a new PaymentRegisteredEvent
func NewPaymentRegisteredEvent(d *Document, e PaymentEvent) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRegistered, AggregateTypeDocument, d.ID, e.OccurredAt),
		PaymentEventID:  e.ID,
		Amount:          e.Amount,
		Channel:         e.Channel,
		Pending:         d.pending,
		PaymentStatus:   d.paymentStatus,
	}
}

// RetentionAppliedEvent is raised when a withholding certificate is merged into the ledger
type RetentionAppliedEvent struct {
	shared.BaseDomainEvent
	PaymentEventID    uuid.UUID       `json:"payment_event_id"`
	CertificateNumber string          `json:"certificate_number"`
	IssuerTaxID       string          `json:"issuer_tax_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	RetainedForTax    decimal.Decimal `json:"retained_for_tax"`
	RetainedForIncome decimal.Decimal `json:"retained_for_income"`
	Pending           decimal.Decimal `json:"pending"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
}

// NewRetentionAppliedEvent creates a new RetentionAppliedEvent
func NewRetentionAppliedEvent(d *Document, e PaymentEvent, cert *withholding.Certificate) *RetentionAppliedEvent {
	return &RetentionAppliedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRetentionApplied, AggregateTypeDocument, d.ID, e.OccurredAt),
		PaymentEventID:    e.ID,
		CertificateNumber: cert.Number,
		IssuerTaxID:       cert.Issuer.TaxID,
		Amount:            e.Amount,
		RetainedForTax:    cert.RetainedForTax,
		RetainedForIncome: cert.RetainedForIncome,
		Pending:           d.pending,
		PaymentStatus:     d.paymentStatus,
	}
}

// PaymentReversedEvent is raised when a ledger entry is voided
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	VoidEventID     uuid.UUID       `json:"void_event_id"`
	ReversedEventID uuid.UUID       `json:"reversed_event_id"`
	Amount          decimal.Decimal `json:"amount"`
	IsRetention     bool            `json:"is_retention"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(d *Document, void PaymentEvent) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypeDocument, d.ID, void.OccurredAt),
		VoidEventID:     void.ID,
		ReversedEventID: *void.VoidsEventID,
		Amount:          void.Amount,
		IsRetention:     void.IsRetention,
		PaymentStatus:   d.paymentStatus,
	}
}
