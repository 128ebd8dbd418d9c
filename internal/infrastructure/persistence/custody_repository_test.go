package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

var cashier = custody.Actor{ID: "u-cash", Name: "Cashier", Role: custody.RoleCashier}

func setupCustodyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// one connection, so every statement sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestDocument(t *testing.T, code string) *custody.Document {
	t.Helper()
	doc, err := custody.NewDocument(shared.FixedCalendarPolicy(testNow), custody.Registration{
		TrackingCode:   code,
		Type:           custody.DocumentTypeProtocol,
		ClientName:     "Maria Perez",
		ClientEmail:    "maria@example.com",
		InvoiceNumber:  "001-001-000000123",
		InvoicedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	return doc
}

func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func TestGormDocumentRepository_SaveAndFind(t *testing.T) {
	db := setupCustodyTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(t, "NOT-20250315-AAAAAA")
	require.NoError(t, repo.Save(ctx, doc))

	t.Run("finds by id and tracking code", func(t *testing.T) {
		byID, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.TrackingCode, byID.TrackingCode)
		assert.Equal(t, custody.StatusInProcess, byID.Status())
		assert.True(t, byID.InvoicedAmount().Equal(decimal.RequireFromString("10.00")))
		assert.Equal(t, 1, byID.Version)

		byCode, err := repo.FindByTrackingCode(ctx, doc.TrackingCode)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, byCode.ID)

		exists, err := repo.ExistsByTrackingCode(ctx, doc.TrackingCode)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing document maps to not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, custody.ErrDocumentNotFound)

		_, err = repo.FindByTrackingCode(ctx, "NOT-NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update persists lifecycle records", func(t *testing.T) {
		loaded, err := repo.FindByIDForUpdate(ctx, doc.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.Cancel(cashier, "client withdrew", testNow))
		loaded.IncrementVersion()
		require.NoError(t, repo.Save(ctx, loaded))

		again, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, custody.StatusCancelled, again.Status())
		require.NotNil(t, again.Cancellation())
		assert.Equal(t, "client withdrew", again.Cancellation().Reason)
		assert.Equal(t, 2, again.Version)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		stale.Version = 7
		err = repo.Save(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("counts by status", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, newTestDocument(t, "NOT-20250315-BBBBBB")))
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[custody.StatusCancelled.String()])
		assert.Equal(t, int64(1), counts[custody.StatusInProcess.String()])
	})
}

func TestGormPaymentEventRepository_AppendInOrder(t *testing.T) {
	db := setupCustodyTestDB(t)
	docs := NewGormDocumentRepository(db)
	events := NewGormPaymentEventRepository(db)
	ctx := context.Background()

	doc := newTestDocument(t, "NOT-20250315-CCCCCC")
	require.NoError(t, docs.Save(ctx, doc))

	first, err := doc.RegisterPayment(cashier, decimal.RequireFromString("4.00"), custody.ChannelCash, "", testNow)
	require.NoError(t, err)
	second, err := doc.RegisterPayment(cashier, decimal.RequireFromString("6.00"), custody.ChannelTransfer, "TX-1", testNow)
	require.NoError(t, err)
	require.NoError(t, events.Append(ctx, first))
	require.NoError(t, events.Append(ctx, second))

	stored, err := events.FindByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, first.ID, stored[0].ID)
	assert.Equal(t, second.ID, stored[1].ID)
	assert.Equal(t, "TX-1", stored[1].Reference)

	reloaded, err := docs.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RestoreLedger(stored), "cached columns predate the payments")
	assert.Equal(t, custody.PaymentFullyPaid, reloaded.PaymentStatus())

	assert.Error(t, events.Append(ctx, nil))
}

func TestGormAuditRepository(t *testing.T) {
	db := setupCustodyTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	docID := uuid.New()

	for _, action := range []string{audit.ActionDocumentRegistered, audit.ActionPaymentRegistered} {
		rec, err := audit.NewRecord(docID, "u-1", "Clerk", "RECEPTION", action, "OK", map[string]any{"amount": "1.00"}, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, rec))
	}

	trail, err := repo.FindByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.ActionDocumentRegistered, trail[0].Action)
	assert.Equal(t, audit.ActionPaymentRegistered, trail[1].Action)
	assert.Equal(t, "1.00", trail[1].Detail["amount"])
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupCustodyTestDB(t)
	scope := NewGormTransactionScope(db, time.Second)
	ctx := context.Background()
	doc := newTestDocument(t, "NOT-20250315-DDDDDD")

	boom := errors.New("audit store down")
	err := scope.Execute(ctx, func(repos appcustody.TransactionalRepositories) error {
		require.NoError(t, repos.DocumentRepo().Save(ctx, doc))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewGormDocumentRepository(db).FindByID(ctx, doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = scope.Execute(ctx, func(repos appcustody.TransactionalRepositories) error {
		return repos.DocumentRepo().Save(ctx, doc)
	})
	require.NoError(t, err)
	_, err = NewGormDocumentRepository(db).FindByID(ctx, doc.ID)
	assert.NoError(t, err)
}

func TestGormDocumentRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDocumentRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "version", "tracking_code", "type", "status", "client_name", "invoiced_amount", "payment_status"}).
		AddRow(id.String(), 3, "NOT-1", "PROTOCOL", "IN_PROCESS", "Maria", "10.00", "PENDING")
	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(rows)

	doc, err := repo.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError_LockFailures(t *testing.T) {
	for _, code := range []string{pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation} {
		t.Run(code, func(t *testing.T) {
			db, mock, mockDB := newMockGormDB(t)
			defer mockDB.Close()

			mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&pgconn.PgError{Code: code, Message: "canceling statement due to lock timeout"})

			_, err := NewGormDocumentRepository(db).FindByIDForUpdate(context.Background(), uuid.New())
			assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other, custody.ErrDocumentNotFound))
	assert.Equal(t, gorm.ErrRecordNotFound, translateError(gorm.ErrRecordNotFound, nil))
}

func TestGormTransactionScope_SetsLockTimeoutOnPostgres(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '1500ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	scope := NewGormTransactionScope(db, 1500*time.Millisecond)
	err := scope.Execute(context.Background(), func(appcustody.TransactionalRepositories) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsLockConflict(t *testing.T) {
	assert.True(t, IsLockConflict(&pgconn.PgError{Code: pgLockNotAvailable}))
	assert.True(t, IsLockConflict(fmt.Errorf("save: %w", &pgconn.PgError{Code: pgDeadlockDetected})))
	assert.False(t, IsLockConflict(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsLockConflict(errors.New("connection reset")))
}
