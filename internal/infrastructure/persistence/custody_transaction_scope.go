package persistence

import (
	"context"
	"fmt"
	"time"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// On Postgres each transaction sets a local lock_timeout, so a mutation waiting
// on another's row lock fails with a concurrency conflict instead of blocking.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcustody.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError(err, nil)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DocumentRepo returns the document repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DocumentRepo() custody.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

// PaymentEventRepo returns the payment event repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentEventRepo() custody.PaymentEventRepository {
	return NewGormPaymentEventRepository(r.tx)
}

// AuditRecorder returns the audit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRecorder() audit.Recorder {
	return NewGormAuditRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appcustody.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appcustody.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
