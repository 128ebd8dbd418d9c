package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned by NewCustodyMetrics without a meter.
var ErrMeterNil = errors.New("telemetry: custody metrics need a meter")

// StatusCountProvider reports how many documents sit in each custody status.
type StatusCountProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// CustodyMetricsConfig holds configuration for custody metrics.
type CustodyMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	StatusProvider StatusCountProvider
}

// CustodyMetrics tracks document lifecycle and ledger activity.
type CustodyMetrics struct {
	logger *zap.Logger

	documentsRegistered metric.Int64Counter
	transitions         metric.Int64Counter
	payments            metric.Int64Counter
	paymentCents        metric.Int64Counter
	retentions          metric.Int64Counter
	reversals           metric.Int64Counter
	conflictRetries     metric.Int64Counter
	codeMismatches      metric.Int64Counter
	operationDuration   metric.Float64Histogram
	documentsByStatus   metric.Int64Gauge

	statusProvider StatusCountProvider
	stopChan       chan struct{}
	stopOnce       sync.Once
	collectOnce    sync.Once
}

// NewCustodyMetrics registers the custody instruments on cfg.Meter.
func NewCustodyMetrics(cfg CustodyMetricsConfig) (*CustodyMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CustodyMetrics{
		logger:         logger,
		statusProvider: cfg.StatusProvider,
		stopChan:       make(chan struct{}),
	}

	in := NewInstruments(cfg.Meter)
	cm.documentsRegistered = in.Counter("notaria_documents_registered_total", "Documents taken into custody", "{documents}")
	cm.transitions = in.Counter("notaria_document_transitions_total", "Custody status transitions", "{transitions}")
	cm.payments = in.Counter("notaria_payments_total", "Payments registered", "{payments}")
	cm.paymentCents = in.Counter("notaria_payment_amount_total", "Amount collected, in cents", "{cents}")
	cm.retentions = in.Counter("notaria_retentions_applied_total", "Withholding certificates applied", "{certificates}")
	cm.reversals = in.Counter("notaria_payment_reversals_total", "Ledger entries voided", "{events}")
	cm.conflictRetries = in.Counter("notaria_concurrency_retries_total", "Mutations retried after a row lock conflict", "{retries}")
	cm.codeMismatches = in.Counter("notaria_verification_mismatches_total", "Deliveries rejected for a wrong verification code", "{attempts}")
	cm.operationDuration = in.Histogram("notaria_operation_duration_seconds", "Duration of custody operations", "s", OperationDurationBuckets...)
	cm.documentsByStatus = in.Gauge("notaria_documents_by_status", "Documents currently in each custody status", "{documents}")
	if err := in.Err(); err != nil {
		return nil, err
	}
	return cm, nil
}

// RecordRegistered counts a newly registered document.
func (cm *CustodyMetrics) RecordRegistered(ctx context.Context, documentType string) {
	cm.documentsRegistered.Add(ctx, 1, metric.WithAttributes(AttrDocumentType.String(documentType)))
}

// RecordTransition counts a custody status change.
func (cm *CustodyMetrics) RecordTransition(ctx context.Context, status string) {
	cm.transitions.Add(ctx, 1, metric.WithAttributes(AttrCustodyStatus.String(status)))
}

// RecordPayment counts a payment and adds its amount in cents.
func (cm *CustodyMetrics) RecordPayment(ctx context.Context, channel, paymentStatus string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(AttrChannel.String(channel), AttrPaymentStatus.String(paymentStatus))
	cm.payments.Add(ctx, 1, attrs)
	cm.paymentCents.Add(ctx, amount.Shift(2).IntPart(), attrs)
}

// RecordRetention counts an applied certificate.
func (cm *CustodyMetrics) RecordRetention(ctx context.Context, paymentStatus string) {
	cm.retentions.Add(ctx, 1, metric.WithAttributes(AttrPaymentStatus.String(paymentStatus)))
}

// RecordReversal counts a voided ledger entry.
func (cm *CustodyMetrics) RecordReversal(ctx context.Context, channel string) {
	cm.reversals.Add(ctx, 1, metric.WithAttributes(AttrChannel.String(channel)))
}

// RecordConflictRetry counts a retried mutation.
func (cm *CustodyMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	cm.conflictRetries.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}

// RecordVerificationMismatch counts a delivery rejected for a wrong code.
func (cm *CustodyMetrics) RecordVerificationMismatch(ctx context.Context) {
	cm.codeMismatches.Add(ctx, 1)
}

// RecordOperation records how long an operation took and whether it failed.
func (cm *CustodyMetrics) RecordOperation(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cm.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOperation.String(operation), AttrOutcome.String(outcome)))
}

// StartPeriodicCollection samples the status gauge every interval until Stop
// is called or ctx is done. Only the first call starts a collector.
func (cm *CustodyMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	cm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go cm.runPeriodicCollection(ctx, interval)
	})
}

func (cm *CustodyMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cm.collectStatusCounts(ctx)

	for {
		select {
		case <-cm.stopChan:
			cm.logger.Info("Stopping periodic custody metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cm.collectStatusCounts(ctx)
		}
	}
}

func (cm *CustodyMetrics) collectStatusCounts(ctx context.Context) {
	if cm.statusProvider == nil {
		return
	}
	counts, err := cm.statusProvider.CountByStatus(ctx)
	if err != nil {
		cm.logger.Warn("Failed to count documents by status", zap.Error(err))
		return
	}
	for status, n := range counts {
		cm.documentsByStatus.Record(ctx, n, metric.WithAttributes(AttrCustodyStatus.String(status)))
	}
}

// Stop stops the periodic collection. Safe to call more than once.
func (cm *CustodyMetrics) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
	})
}
