// Package audit defines the immutable event trail every lifecycle and ledger
// mutation must leave behind.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/shared"
)

// Action names recorded on the trail
const (
	ActionDocumentRegistered     = "document.registered"
	ActionNotificationPreference = "document.notification_preference"
	ActionDocumentReady          = "document.ready"
	ActionDocumentDelivered      = "document.delivered"
	ActionDocumentCancelled      = "document.cancelled"
	ActionDocumentEliminated     = "document.eliminated"
	ActionPaymentRegistered      = "payment.registered"
	ActionRetentionApplied       = "retention.applied"
	ActionPaymentReversed        = "payment.reversed"
)

// Record is one immutable audit entry
type Record struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name,omitempty"`
	ActorRole  string         `json:"actor_role,omitempty"`
	Action     string         `json:"action"`
	Result     string         `json:"result"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewRecord builds a record. Result is the resulting status tag of the mutation.
func NewRecord(documentID uuid.UUID, actorID, actorName, actorRole, action, result string, detail map[string]any, at time.Time) (Record, error) {
	if documentID == uuid.Nil {
		return Record{}, shared.NewValidationError("audit record requires a document id")
	}
	if strings.TrimSpace(action) == "" {
		return Record{}, shared.NewValidationError("audit record requires an action")
	}
	if strings.TrimSpace(actorID) == "" {
		return Record{}, shared.NewValidationError("audit record requires an actor")
	}
	return Record{
		ID:         uuid.New(),
		DocumentID: documentID,
		ActorID:    actorID,
		ActorName:  actorName,
		ActorRole:  actorRole,
		Action:     action,
		Result:     result,
		Detail:     detail,
		OccurredAt: at,
	}, nil
}

// Recorder writes audit records. A failing Record must fail the
// enclosing transaction.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Reader lists the trail of a document
type Reader interface {
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Record, error)
}

// Repository is the persistence side of the trail
type Repository interface {
	Recorder
	Reader
}
