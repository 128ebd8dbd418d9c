package custody

import (
	"context"

	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
)

// TransactionScope provides transactional access to the custody repositories.
// Every repository handed to fn shares one database transaction, committed
// when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all custody repositories within a transaction.
//
//   - DocumentRepo: the Document aggregate root; FindByIDForUpdate takes the row lock
//     that serializes mutations of one document.
//   - PaymentEventRepo: append-only ledger entries the Document folds over.
//   - AuditRecorder: audit writes belong to the same transaction, so a failed
//     audit write rolls the mutation back.
type TransactionalRepositories interface {
	DocumentRepo() custody.DocumentRepository
	PaymentEventRepo() custody.PaymentEventRepository
	AuditRecorder() audit.Recorder
}
