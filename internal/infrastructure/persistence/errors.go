package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notaria/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that mean another transaction holds or raced for the row
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// IsLockConflict reports whether err is a Postgres lock, serialization or
// deadlock failure, or a unique violation from a racing insert
func IsLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
		return true
	}
	return false
}

// translateError maps driver errors onto the domain taxonomy. Lock and
// serialization failures become ErrConcurrencyConflict so the service can
// retry; a unique violation means a concurrent insert won, which is retried too.
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if IsLockConflict(err) {
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
	}
	return err
}
