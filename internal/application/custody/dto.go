package custody

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/notaria/backend/internal/domain/withholding"
	"github.com/shopspring/decimal"
)

// RegisterDocumentRequest represents a request to take a document into custody
type RegisterDocumentRequest struct {
	TrackingCode           string          `json:"tracking_code" binding:"omitempty,max=64"`
	Type                   string          `json:"type" binding:"required,oneof=PROTOCOL PROCEEDINGS CERTIFICATIONS LEASES OTHER"`
	ClientName             string          `json:"client_name" binding:"required,max=200"`
	ClientIDNumber         string          `json:"client_id_number" binding:"omitempty,max=20"`
	ClientEmail            string          `json:"client_email" binding:"omitempty,email"`
	ClientPhone            string          `json:"client_phone" binding:"omitempty,max=30"`
	AssignedHandler        string          `json:"assigned_handler" binding:"omitempty,max=100"`
	InvoiceNumber          string          `json:"invoice_number" binding:"omitempty,max=50"`
	InvoicedAmount         decimal.Decimal `json:"invoiced_amount"`
	SkipNotification       bool            `json:"skip_notification"`
	SkipNotificationReason string          `json:"skip_notification_reason" binding:"omitempty,max=500"`
}

// NotificationPreferenceRequest toggles the ready notification
type NotificationPreferenceRequest struct {
	Skip   bool   `json:"skip"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// DeliverRequest represents a request to hand a document over
type DeliverRequest struct {
	ReceiverName   string `json:"receiver_name" binding:"required,max=200"`
	ReceiverID     string `json:"receiver_id" binding:"omitempty,max=20"`
	Relationship   string `json:"relationship" binding:"omitempty,max=100"`
	Code           string `json:"code" binding:"omitempty,len=4,numeric"`
	ManualOverride bool   `json:"manual_override"`
	OverrideReason string `json:"override_reason" binding:"omitempty,max=500"`
}

// CancelRequest represents a request to cancel a document
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// EliminateRequest represents a request to delete a document or turn it into a credit note
type EliminateRequest struct {
	Reason        string `json:"reason" binding:"required,max=200"`
	Justification string `json:"justification" binding:"required,min=10,max=2000"`
	AsCreditNote  bool   `json:"as_credit_note"`
}

// RegisterPaymentRequest represents a cash-type payment
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Channel   string          `json:"channel" binding:"required,oneof=CASH TRANSFER CHEQUE CARD OTHER"`
	Reference string          `json:"reference" binding:"omitempty,max=100"`
}

// ReversePaymentRequest represents a request to void a ledger entry
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                     uuid.UUID                   `json:"id"`
	TrackingCode           string                      `json:"tracking_code"`
	Type                   string                      `json:"type"`
	Status                 string                      `json:"status"`
	ClientName             string                      `json:"client_name"`
	ClientIDNumber         string                      `json:"client_id_number,omitempty"`
	ClientEmail            string                      `json:"client_email,omitempty"`
	ClientPhone            string                      `json:"client_phone,omitempty"`
	AssignedHandler        string                      `json:"assigned_handler,omitempty"`
	SkipNotification       bool                        `json:"skip_notification"`
	SkipNotificationReason string                      `json:"skip_notification_reason,omitempty"`
	ReadyAt                *time.Time                  `json:"ready_at,omitempty"`
	Delivery               *custody.DeliveryRecord     `json:"delivery,omitempty"`
	Cancellation           *custody.CancellationRecord `json:"cancellation,omitempty"`
	Elimination            *EliminationResponse        `json:"elimination,omitempty"`
	Ledger                 LedgerResponse              `json:"ledger"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
	Version                int                         `json:"version"`
}

// EliminationResponse omits the snapshot, which is available from the audit trail
type EliminationResponse struct {
	Reason        string    `json:"reason"`
	Justification string    `json:"justification"`
	AsCreditNote  bool      `json:"as_credit_note"`
	EliminatedBy  string    `json:"eliminated_by"`
	EliminatedAt  time.Time `json:"eliminated_at"`
}

// LedgerResponse represents the payment ledger of a document
type LedgerResponse struct {
	InvoiceNumber  string     `json:"invoice_number,omitempty"`
	InvoicedAmount string     `json:"invoiced_amount"`
	AmountPaid     string     `json:"amount_paid"`
	AmountRetained string     `json:"amount_retained"`
	AmountPending  string     `json:"amount_pending"`
	PaymentStatus  string     `json:"payment_status"`
	LastPaymentAt  *time.Time `json:"last_payment_at,omitempty"`
	LastPaymentBy  string     `json:"last_payment_by,omitempty"`
}

// MarkReadyResponse carries the verification code only when the client will
// not be notified, so the front desk can relay it
type MarkReadyResponse struct {
	Document         DocumentResponse `json:"document"`
	VerificationCode string           `json:"verification_code,omitempty"`
}

// PaymentEventResponse represents one ledger entry
type PaymentEventResponse struct {
	ID           uuid.UUID  `json:"id"`
	Amount       string     `json:"amount"`
	Channel      string     `json:"channel"`
	IsRetention  bool       `json:"is_retention"`
	Reference    string     `json:"reference,omitempty"`
	IssuerTaxID  string     `json:"issuer_tax_id,omitempty"`
	VoidsEventID *uuid.UUID `json:"voids_event_id,omitempty"`
	Voided       bool       `json:"voided"`
	Note         string     `json:"note,omitempty"`
	ActorID      string     `json:"actor_id"`
	ActorName    string     `json:"actor_name,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// LedgerMutationResponse is returned by the three ledger operations
type LedgerMutationResponse struct {
	Event    PaymentEventResponse  `json:"event"`
	Ledger   LedgerResponse        `json:"ledger"`
	Warnings []withholding.Finding `json:"warnings,omitempty"`
}

// RetentionPreviewResponse is a parsed certificate with its coherence findings
type RetentionPreviewResponse struct {
	Certificate  *withholding.Certificate `json:"certificate"`
	Findings     []withholding.Finding    `json:"findings"`
	AlreadyUsed  bool                     `json:"already_used"`
	CanApply     bool                     `json:"can_apply"`
	PendingAfter string                   `json:"pending_after"`
}

// AuditRecordResponse represents an audit entry
type AuditRecordResponse struct {
	ID         uuid.UUID      `json:"id"`
	Action     string         `json:"action"`
	Result     string         `json:"result"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name,omitempty"`
	ActorRole  string         `json:"actor_role,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ToDocumentResponse converts a domain Document to DocumentResponse
func ToDocumentResponse(d *custody.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                     d.ID,
		TrackingCode:           d.TrackingCode,
		Type:                   d.Type.String(),
		Status:                 d.Status().String(),
		ClientName:             d.ClientName,
		ClientIDNumber:         d.ClientIDNumber,
		ClientEmail:            d.ClientEmail,
		ClientPhone:            d.ClientPhone,
		AssignedHandler:        d.AssignedHandler,
		SkipNotification:       d.SkipNotification(),
		SkipNotificationReason: d.SkipNotificationReason(),
		ReadyAt:                d.ReadyAt(),
		Delivery:               d.Delivery(),
		Cancellation:           d.Cancellation(),
		Ledger:                 ToLedgerResponse(d),
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
		Version:                d.Version,
	}
	if e := d.Elimination(); e != nil {
		resp.Elimination = &EliminationResponse{
			Reason:        e.Reason,
			Justification: e.Justification,
			AsCreditNote:  e.AsCreditNote,
			EliminatedBy:  e.EliminatedBy,
			EliminatedAt:  e.EliminatedAt,
		}
	}
	return resp
}

// ToLedgerResponse converts the ledger of a Document to LedgerResponse
func ToLedgerResponse(d *custody.Document) LedgerResponse {
	return LedgerResponse{
		InvoiceNumber:  d.InvoiceNumber(),
		InvoicedAmount: valueobject.Format(d.InvoicedAmount()),
		AmountPaid:     valueobject.Format(d.AmountPaid()),
		AmountRetained: valueobject.Format(d.AmountRetained()),
		AmountPending:  valueobject.Format(d.AmountPending()),
		PaymentStatus:  d.PaymentStatus().String(),
		LastPaymentAt:  d.LastPaymentAt(),
		LastPaymentBy:  d.LastPaymentBy(),
	}
}

// ToPaymentEventResponses converts an event history, flagging voided entries
func ToPaymentEventResponses(events []custody.PaymentEvent) []PaymentEventResponse {
	voided := make(map[uuid.UUID]bool)
	for _, e := range events {
		if e.IsVoid() {
			voided[*e.VoidsEventID] = true
		}
	}
	out := make([]PaymentEventResponse, len(events))
	for i, e := range events {
		out[i] = toPaymentEventResponse(e)
		out[i].Voided = voided[e.ID]
	}
	return out
}

func toPaymentEventResponse(e custody.PaymentEvent) PaymentEventResponse {
	return PaymentEventResponse{
		ID:           e.ID,
		Amount:       valueobject.Format(e.Amount),
		Channel:      e.Channel.String(),
		IsRetention:  e.IsRetention,
		Reference:    e.Reference,
		IssuerTaxID:  e.IssuerTaxID,
		VoidsEventID: e.VoidsEventID,
		Note:         e.Note,
		ActorID:      e.ActorID,
		ActorName:    e.ActorName,
		OccurredAt:   e.OccurredAt,
	}
}

// ToAuditRecordResponses converts audit records
func ToAuditRecordResponses(records []audit.Record) []AuditRecordResponse {
	out := make([]AuditRecordResponse, len(records))
	for i, r := range records {
		out[i] = AuditRecordResponse{
			ID:         r.ID,
			Action:     r.Action,
			Result:     r.Result,
			ActorID:    r.ActorID,
			ActorName:  r.ActorName,
			ActorRole:  r.ActorRole,
			Detail:     r.Detail,
			OccurredAt: r.OccurredAt,
		}
	}
	return out
}
