package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/audit"
)

// AuditRecordModel is one entry of a document's audit trail
type AuditRecordModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_audit_records_document_seq,priority:1"`
	Sequence   int64          `gorm:"not null;uniqueIndex:idx_audit_records_document_seq,priority:2"`
	ActorID    string         `gorm:"type:varchar(100);not null"`
	ActorName  string         `gorm:"type:varchar(200)"`
	ActorRole  string         `gorm:"type:varchar(32)"`
	Action     string         `gorm:"type:varchar(64);not null;index"`
	Result     string         `gorm:"type:varchar(64)"`
	Detail     map[string]any `gorm:"type:jsonb;serializer:json"`
	OccurredAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// ToDomain converts the row to a domain record
func (m *AuditRecordModel) ToDomain() audit.Record {
	return audit.Record{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		ActorID:    m.ActorID,
		ActorName:  m.ActorName,
		ActorRole:  m.ActorRole,
		Action:     m.Action,
		Result:     m.Result,
		Detail:     m.Detail,
		OccurredAt: m.OccurredAt,
	}
}

// AuditRecordModelFromDomain creates a row for the given position in the trail
func AuditRecordModelFromDomain(r audit.Record, sequence int64) *AuditRecordModel {
	return &AuditRecordModel{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Sequence:   sequence,
		ActorID:    r.ActorID,
		ActorName:  r.ActorName,
		ActorRole:  r.ActorRole,
		Action:     r.Action,
		Result:     r.Result,
		Detail:     r.Detail,
		OccurredAt: r.OccurredAt,
	}
}
