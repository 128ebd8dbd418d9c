package models

import (
	"time"

	"github.com/notaria/backend/internal/domain/custody"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the custody Document aggregate.
// amount_paid, amount_retained, amount_pending and payment_status cache the
// ledger fold; they are rewritten from the fold on every save.
type DocumentModel struct {
	AggregateModel
	TrackingCode           string                      `gorm:"type:varchar(64);not null;uniqueIndex"`
	Type                   string                      `gorm:"type:varchar(32);not null"`
	Status                 string                      `gorm:"type:varchar(32);not null;index"`
	ClientName             string                      `gorm:"type:varchar(200);not null"`
	ClientIDNumber         string                      `gorm:"type:varchar(32)"`
	ClientEmail            string                      `gorm:"type:varchar(200)"`
	ClientPhone            string                      `gorm:"type:varchar(50)"`
	AssignedHandler        string                      `gorm:"type:varchar(100)"`
	VerificationCode       string                      `gorm:"type:varchar(8)"`
	SkipNotification       bool                        `gorm:"not null;default:false"`
	SkipNotificationReason string                      `gorm:"type:varchar(500)"`
	ReadyAt                *time.Time                  ``
	Delivery               *custody.DeliveryRecord     `gorm:"type:jsonb;serializer:json"`
	Cancellation           *custody.CancellationRecord `gorm:"type:jsonb;serializer:json"`
	Elimination            *custody.EliminationRecord  `gorm:"type:jsonb;serializer:json"`
	InvoiceNumber          string                      `gorm:"type:varchar(32);index"`
	InvoicedAmount         decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	AmountPaid             decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	AmountRetained         decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	AmountPending          decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	PaymentStatus          string                      `gorm:"type:varchar(32);not null;index"`
	LastPaymentAt          *time.Time                  ``
	LastPaymentBy          string                      `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain rebuilds the aggregate. The ledger columns are provisional until
// the caller refolds them from the event log.
func (m *DocumentModel) ToDomain() *custody.Document {
	return custody.FromSnapshot(custody.Snapshot{
		ID:                     m.ID,
		Version:                m.Version,
		TrackingCode:           m.TrackingCode,
		Type:                   custody.DocumentType(m.Type),
		Status:                 custody.CustodyStatus(m.Status),
		ClientName:             m.ClientName,
		ClientIDNumber:         m.ClientIDNumber,
		ClientEmail:            m.ClientEmail,
		ClientPhone:            m.ClientPhone,
		AssignedHandler:        m.AssignedHandler,
		VerificationCode:       m.VerificationCode,
		SkipNotification:       m.SkipNotification,
		SkipNotificationReason: m.SkipNotificationReason,
		ReadyAt:                m.ReadyAt,
		Delivery:               m.Delivery,
		Cancellation:           m.Cancellation,
		Elimination:            m.Elimination,
		InvoiceNumber:          m.InvoiceNumber,
		InvoicedAmount:         m.InvoicedAmount,
		AmountPaid:             m.AmountPaid,
		AmountRetained:         m.AmountRetained,
		AmountPending:          m.AmountPending,
		PaymentStatus:          custody.PaymentStatus(m.PaymentStatus),
		LastPaymentAt:          m.LastPaymentAt,
		LastPaymentBy:          m.LastPaymentBy,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	})
}

// DocumentModelFromDomain creates a persistence model from the aggregate
func DocumentModelFromDomain(d *custody.Document) *DocumentModel {
	s := d.Snapshot()
	m := &DocumentModel{
		TrackingCode:           s.TrackingCode,
		Type:                   s.Type.String(),
		Status:                 s.Status.String(),
		ClientName:             s.ClientName,
		ClientIDNumber:         s.ClientIDNumber,
		ClientEmail:            s.ClientEmail,
		ClientPhone:            s.ClientPhone,
		AssignedHandler:        s.AssignedHandler,
		VerificationCode:       s.VerificationCode,
		SkipNotification:       s.SkipNotification,
		SkipNotificationReason: s.SkipNotificationReason,
		ReadyAt:                s.ReadyAt,
		Delivery:               s.Delivery,
		Cancellation:           s.Cancellation,
		Elimination:            s.Elimination,
		InvoiceNumber:          s.InvoiceNumber,
		InvoicedAmount:         s.InvoicedAmount,
		AmountPaid:             s.AmountPaid,
		AmountRetained:         s.AmountRetained,
		AmountPending:          s.AmountPending,
		PaymentStatus:          s.PaymentStatus.String(),
		LastPaymentAt:          s.LastPaymentAt,
		LastPaymentBy:          s.LastPaymentBy,
	}
	m.ID = s.ID
	m.Version = s.Version
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
	return m
}
