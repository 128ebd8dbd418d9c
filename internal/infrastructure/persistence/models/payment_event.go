package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/shopspring/decimal"
)

// PaymentEventModel is one row of the append-only ledger log. Sequence orders
// a document's events; (document_id, sequence) is unique.
type PaymentEventModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payment_events_document_seq,priority:1"`
	Sequence     int64           `gorm:"not null;uniqueIndex:idx_payment_events_document_seq,priority:2"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Channel      string          `gorm:"type:varchar(20);not null"`
	IsRetention  bool            `gorm:"not null;default:false"`
	Reference    string          `gorm:"type:varchar(100);index"`
	IssuerTaxID  string          `gorm:"type:varchar(20)"`
	VoidsEventID *uuid.UUID      `gorm:"type:uuid;index"`
	Note         string          `gorm:"type:varchar(500)"`
	ActorID      string          `gorm:"type:varchar(100);not null"`
	ActorName    string          `gorm:"type:varchar(200)"`
	OccurredAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentEventModel) TableName() string {
	return "payment_events"
}

// ToDomain converts the row to a domain event
func (m *PaymentEventModel) ToDomain() custody.PaymentEvent {
	return custody.PaymentEvent{
		ID:           m.ID,
		DocumentID:   m.DocumentID,
		Amount:       m.Amount,
		Channel:      custody.PaymentChannel(m.Channel),
		IsRetention:  m.IsRetention,
		Reference:    m.Reference,
		IssuerTaxID:  m.IssuerTaxID,
		VoidsEventID: m.VoidsEventID,
		Note:         m.Note,
		ActorID:      m.ActorID,
		ActorName:    m.ActorName,
		OccurredAt:   m.OccurredAt,
	}
}

// PaymentEventModelFromDomain creates a row for the given position in the log
func PaymentEventModelFromDomain(e *custody.PaymentEvent, sequence int64) *PaymentEventModel {
	return &PaymentEventModel{
		ID:           e.ID,
		DocumentID:   e.DocumentID,
		Sequence:     sequence,
		Amount:       e.Amount,
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
