package custody

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository defines the interface for document persistence.
// Implementations run inside the transaction carried by ctx, if any.
type DocumentRepository interface {
	// FindByID loads a document without locking
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindByIDForUpdate loads a document and holds its row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindByTrackingCode loads a document by its barcode
	FindByTrackingCode(ctx context.Context, code string) (*Document, error)

	// ExistsByTrackingCode checks if a tracking code is taken
	ExistsByTrackingCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a document
	Save(ctx context.Context, doc *Document) error
}

// PaymentEventRepository defines the interface for the append-only payment event log
type PaymentEventRepository interface {
	// Append stores a new event. Events are never updated or deleted.
	Append(ctx context.Context, event *PaymentEvent) error

	// FindByDocument returns a document's events in the order they occurred
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]PaymentEvent, error)
}
