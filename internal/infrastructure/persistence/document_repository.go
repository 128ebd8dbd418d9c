package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements custody.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*custody.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, custody.ErrDocumentNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a document and locks its row (SELECT ... FOR UPDATE).
// Must run inside a transaction; the lock is released at commit or rollback.
func (r *GormDocumentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*custody.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, custody.ErrDocumentNotFound)
	}
	return model.ToDomain(), nil
}

// FindByTrackingCode finds a document by its barcode
func (r *GormDocumentRepository) FindByTrackingCode(ctx context.Context, code string) (*custody.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "tracking_code = ?", code).Error; err != nil {
		return nil, translateError(err, custody.ErrDocumentNotFound)
	}
	return model.ToDomain(), nil
}

// ExistsByTrackingCode checks if a tracking code is taken
func (r *GormDocumentRepository) ExistsByTrackingCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("tracking_code = ?", code).
		Count(&count).Error; err != nil {
		return false, translateError(err, nil)
	}
	return count > 0, nil
}

// Save inserts a new document (version 1) or updates an existing one. Updates
// check the previous version so a write that lost the row lock is detected.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *custody.Document) error {
	model := models.DocumentModelFromDomain(doc)
	if model.Version <= 1 {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return translateError(err, nil)
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: document %s changed since it was loaded", shared.ErrConcurrencyConflict, model.ID)
	}
	return nil
}

// CountByStatus reports how many documents sit in each custody status
func (r *GormDocumentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Ensure GormDocumentRepository implements custody.DocumentRepository
var _ custody.DocumentRepository = (*GormDocumentRepository)(nil)
