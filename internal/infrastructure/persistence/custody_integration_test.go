//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the SQL migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("notaria_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("notaria123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	path, err := migration.FindMigrationsDir(".")
	require.NoError(t, err)
	m, err := migration.New(sqlDB, path, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up(), "Failed to run migrations")

	return db
}

func newPostgresService(db *gorm.DB) *appcustody.DocumentService {
	svc := appcustody.NewDocumentService(
		NewGormTransactionScope(db, 5*time.Second),
		NewGormDocumentRepository(db),
		NewGormPaymentEventRepository(db),
		NewGormAuditRepository(db),
		shared.FixedCalendarPolicy(testNow),
	)
	svc.SetConflictRetries(3)
	return svc
}

func TestPostgres_ConcurrentPaymentsSerialize(t *testing.T) {
	db := newPostgresDB(t)
	svc := newPostgresService(db)
	ctx := context.Background()

	doc, err := svc.RegisterDocument(ctx, cashier, appcustody.RegisterDocumentRequest{
		Type:           "PROTOCOL",
		ClientName:     "Maria Perez",
		InvoiceNumber:  "001-001-000000123",
		InvoicedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	const payers = 10
	var wg sync.WaitGroup
	errs := make(chan error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterPayment(ctx, cashier, doc.ID, appcustody.RegisterPaymentRequest{
				Amount:  decimal.RequireFromString("1.00"),
				Channel: "CASH",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	final, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, custody.PaymentFullyPaid.String(), final.Ledger.PaymentStatus)
	assert.Equal(t, "10.00", final.Ledger.AmountPaid)
	assert.Equal(t, "0.00", final.Ledger.AmountPending)

	events, err := svc.ListPayments(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, events, payers)

	trail, err := svc.ListAudit(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, trail, payers+1)
}

func TestPostgres_ConcurrentOverAllocation(t *testing.T) {
	db := newPostgresDB(t)
	svc := newPostgresService(db)
	ctx := context.Background()

	doc, err := svc.RegisterDocument(ctx, cashier, appcustody.RegisterDocumentRequest{
		Type:           "LEASES",
		ClientName:     "Jorge Ruiz",
		InvoicedAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterPayment(ctx, cashier, doc.ID, appcustody.RegisterPaymentRequest{
				Amount:  decimal.RequireFromString("6.00"),
				Channel: "TRANSFER",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, over int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case shared.CodeOf(err) == custody.CodeOverAllocation:
			over++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, over)
}

func TestPostgres_AuditRecordsAreImmutable(t *testing.T) {
	db := newPostgresDB(t)
	svc := newPostgresService(db)
	ctx := context.Background()

	doc, err := svc.RegisterDocument(ctx, cashier, appcustody.RegisterDocumentRequest{
		Type:       "OTHER",
		ClientName: "Ana Vera",
	})
	require.NoError(t, err)

	err = db.Exec("DELETE FROM audit_records WHERE document_id = ?", doc.ID).Error
	assert.Error(t, err)
}
