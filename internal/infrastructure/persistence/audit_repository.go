package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository. Bound to a transaction,
// a failed Record fails the whole mutation.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record appends an entry to the document's trail
func (r *GormAuditRepository) Record(ctx context.Context, rec audit.Record) error {
	db := r.db.WithContext(ctx)

	var last int64
	if err := db.Model(&models.AuditRecordModel{}).
		Where("document_id = ?", rec.DocumentID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return translateError(err, nil)
	}
	return translateError(db.Create(models.AuditRecordModelFromDomain(rec, last+1)).Error, nil)
}

// FindByDocument returns a document's trail, oldest first
func (r *GormAuditRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]audit.Record, error) {
	var rows []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}
	records := make([]audit.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// Ensure GormAuditRepository implements audit.Repository
var _ audit.Repository = (*GormAuditRepository)(nil)
