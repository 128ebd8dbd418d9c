package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentEventRepository implements custody.PaymentEventRepository.
// It only inserts and reads; the log is never updated or deleted.
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewGormPaymentEventRepository creates a new GormPaymentEventRepository
func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// Append stores an event at the end of its document's log. The caller holds
// the document row lock, so the next sequence number cannot be taken concurrently.
func (r *GormPaymentEventRepository) Append(ctx context.Context, event *custody.PaymentEvent) error {
	if event == nil {
		return fmt.Errorf("payment event is nil")
	}
	db := r.db.WithContext(ctx)

	var last int64
	if err := db.Model(&models.PaymentEventModel{}).
		Where("document_id = ?", event.DocumentID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return translateError(err, nil)
	}
	if err := db.Create(models.PaymentEventModelFromDomain(event, last+1)).Error; err != nil {
		return translateError(err, nil)
	}
	return nil
}

// FindByDocument returns a document's events in log order
func (r *GormPaymentEventRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]custody.PaymentEvent, error) {
	var rows []models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}
	events := make([]custody.PaymentEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, nil
}

// Ensure GormPaymentEventRepository implements custody.PaymentEventRepository
var _ custody.PaymentEventRepository = (*GormPaymentEventRepository)(nil)
