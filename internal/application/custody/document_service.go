package custody

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/domain/shared/valueobject"
	"github.com/notaria/backend/internal/domain/withholding"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"github.com/notaria/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultConflictRetries is how many times a mutation is retried after a lock conflict
	DefaultConflictRetries = 2

	trackingCodeAttempts = 5
	retryBackoff         = 25 * time.Millisecond
	spanService          = "document"
)

// DocumentService coordinates document custody and the payment ledger.
// Every mutation runs in one transaction: the document row is locked, the
// ledger is refolded from its events, the change and its audit record are
// written together, and domain events are published after commit.
type DocumentService struct {
	txScope         TransactionScope
	documentRepo    custody.DocumentRepository
	eventRepo       custody.PaymentEventRepository
	auditReader     audit.Reader
	calendar        shared.CalendarPolicy
	codes           custody.CodeGenerator
	eventPublisher  shared.EventPublisher
	metrics         *telemetry.CustodyMetrics
	logger          *zap.Logger
	conflictRetries int
}

// NewDocumentService creates a new DocumentService. The repositories are used
// for reads; writes go through txScope.
func NewDocumentService(
	txScope TransactionScope,
	documentRepo custody.DocumentRepository,
	eventRepo custody.PaymentEventRepository,
	auditReader audit.Reader,
	calendar shared.CalendarPolicy,
) *DocumentService {
	return &DocumentService{
		txScope:         txScope,
		documentRepo:    documentRepo,
		eventRepo:       eventRepo,
		auditReader:     auditReader,
		calendar:        calendar,
		codes:           custody.RandomCodeGenerator{},
		logger:          zap.NewNop(),
		conflictRetries: DefaultConflictRetries,
	}
}

// SetEventPublisher sets the publisher used after commit
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the custody metrics recorder
func (s *DocumentService) SetMetrics(metrics *telemetry.CustodyMetrics) {
	s.metrics = metrics
}

// SetLogger sets the service logger
func (s *DocumentService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l.Named("document_service")
	}
}

// SetCodeGenerator replaces the verification code source
func (s *DocumentService) SetCodeGenerator(gen custody.CodeGenerator) {
	if gen != nil {
		s.codes = gen
	}
}

// SetConflictRetries sets how many times a lock conflict is retried. Negative means zero.
func (s *DocumentService) SetConflictRetries(n int) {
	if n < 0 {
		n = 0
	}
	s.conflictRetries = n
}

func (s *DocumentService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// =============================================================================
// Registration and reads
// =============================================================================

// RegisterDocument takes a document into custody. A supplied tracking code
// must be unused; otherwise one is generated.
func (s *DocumentService) RegisterDocument(ctx context.Context, actor custody.Actor, req RegisterDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "register")
	defer span.End()
	start := time.Now()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrActorID, actor.ID,
		telemetry.SpanAttrActorRole, string(actor.Role),
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	reg := custody.Registration{
		TrackingCode:           strings.TrimSpace(req.TrackingCode),
		Type:                   custody.DocumentType(req.Type),
		ClientName:             req.ClientName,
		ClientIDNumber:         req.ClientIDNumber,
		ClientEmail:            req.ClientEmail,
		ClientPhone:            req.ClientPhone,
		AssignedHandler:        req.AssignedHandler,
		InvoiceNumber:          req.InvoiceNumber,
		InvoicedAmount:         req.InvoicedAmount,
		SkipNotification:       req.SkipNotification,
		SkipNotificationReason: req.SkipNotificationReason,
	}

	var doc *custody.Document
	err := s.withRetry(ctx, "register", func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			code, err := s.resolveTrackingCode(ctx, repos.DocumentRepo(), reg.TrackingCode)
			if err != nil {
				return err
			}
			r := reg
			r.TrackingCode = code

			d, err := custody.NewDocument(s.calendar, r)
			if err != nil {
				return err
			}
			if err := repos.DocumentRepo().Save(ctx, d); err != nil {
				return fmt.Errorf("save document: %w", err)
			}
			detail := map[string]any{
				"tracking_code":   d.TrackingCode,
				"type":            d.Type.String(),
				"invoice_number":  d.InvoiceNumber(),
				"invoiced_amount": valueobject.Format(d.InvoicedAmount()),
			}
			if err := s.recordAudit(ctx, repos, d, actor, audit.ActionDocumentRegistered, d.Status().String(), detail, d.CreatedAt); err != nil {
				return err
			}
			doc = d
			return nil
		})
	})
	s.observe(ctx, "register", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, doc.ID.String(),
		telemetry.SpanAttrTrackingCode, doc.TrackingCode,
	)
	s.publish(ctx, doc)
	if s.metrics != nil {
		s.metrics.RecordRegistered(ctx, doc.Type.String())
	}
	s.log(ctx).Info("Document registered",
		zap.String("document_id", doc.ID.String()),
		zap.String("tracking_code", doc.TrackingCode),
		zap.String("actor_id", actor.ID),
	)

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *DocumentService) resolveTrackingCode(ctx context.Context, repo custody.DocumentRepository, supplied string) (string, error) {
	if supplied != "" {
		if err := custody.ValidateTrackingCode(supplied); err != nil {
			return "", err
		}
		taken, err := repo.ExistsByTrackingCode(ctx, supplied)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if taken {
			return "", shared.NewValidationError(fmt.Sprintf("tracking code %s is already registered", supplied))
		}
		return supplied, nil
	}

	for i := 0; i < trackingCodeAttempts; i++ {
		code, err := custody.GenerateTrackingCode(s.calendar)
		if err != nil {
			return "", err
		}
		taken, err := repo.ExistsByTrackingCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a free tracking code after %d attempts", trackingCodeAttempts)
}

// GetDocument returns a document with its ledger refolded from the event log
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.load(ctx, func() (*custody.Document, error) { return s.documentRepo.FindByID(ctx, id) })
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// GetDocumentByTrackingCode returns a document by its barcode
func (s *DocumentService) GetDocumentByTrackingCode(ctx context.Context, code string) (*DocumentResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("tracking code is required")
	}
	doc, err := s.load(ctx, func() (*custody.Document, error) { return s.documentRepo.FindByTrackingCode(ctx, code) })
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// ListPayments returns the full event history of a document's ledger
func (s *DocumentService) ListPayments(ctx context.Context, id uuid.UUID) ([]PaymentEventResponse, error) {
	if _, err := s.documentRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindByDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load payment events: %w", err)
	}
	return ToPaymentEventResponses(events), nil
}

// ListAudit returns a document's audit trail
func (s *DocumentService) ListAudit(ctx context.Context, id uuid.UUID) ([]AuditRecordResponse, error) {
	if _, err := s.documentRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.auditReader.FindByDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return ToAuditRecordResponses(records), nil
}

func (s *DocumentService) load(ctx context.Context, find func() (*custody.Document, error)) (*custody.Document, error) {
	doc, err := find()
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("load payment events: %w", err)
	}
	if doc.RestoreLedger(events) {
		s.log(ctx).Warn("Cached ledger differs from event history",
			zap.String("document_id", doc.ID.String()))
	}
	return doc, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// SetNotificationPreference toggles the ready notification while IN_PROCESS
func (s *DocumentService) SetNotificationPreference(ctx context.Context, actor custody.Actor, id uuid.UUID, req NotificationPreferenceRequest) (*DocumentResponse, error) {
	doc, err := s.mutate(ctx, "set_notification_preference", actor, id, audit.ActionNotificationPreference,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			if err := actor.Validate(); err != nil {
				return nil, err
			}
			if err := d.SetNotificationPreference(req.Skip, req.Reason, at); err != nil {
				return nil, err
			}
			return map[string]any{"skip": req.Skip, "reason": d.SkipNotificationReason()}, nil
		})
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// MarkReady issues a verification code and moves the document to READY_FOR_PICKUP.
// The code is returned to the caller only when the client will not be notified.
func (s *DocumentService) MarkReady(ctx context.Context, actor custody.Actor, id uuid.UUID) (*MarkReadyResponse, error) {
	doc, err := s.mutate(ctx, "mark_ready", actor, id, audit.ActionDocumentReady,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			if err := d.MarkReady(actor, s.codes, at); err != nil {
				return nil, err
			}
			return map[string]any{"notify_recipient": !d.SkipNotification()}, nil
		})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, doc)

	resp := &MarkReadyResponse{Document: ToDocumentResponse(doc)}
	if doc.SkipNotification() {
		resp.VerificationCode = doc.VerificationCode()
	}
	return resp, nil
}

// Deliver hands the document over against its verification code, or by an
// elevated manual override
func (s *DocumentService) Deliver(ctx context.Context, actor custody.Actor, id uuid.UUID, req DeliverRequest) (*DocumentResponse, error) {
	attempt := custody.DeliveryAttempt{
		ReceiverName:   req.ReceiverName,
		ReceiverID:     req.ReceiverID,
		Relationship:   req.Relationship,
		Code:           req.Code,
		ManualOverride: req.ManualOverride,
		OverrideReason: req.OverrideReason,
	}
	doc, err := s.mutate(ctx, "deliver", actor, id, audit.ActionDocumentDelivered,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			if err := d.Deliver(actor, attempt, at); err != nil {
				return nil, err
			}
			detail := map[string]any{
				"receiver_name":   attempt.ReceiverName,
				"manual_override": attempt.ManualOverride,
			}
			if attempt.ManualOverride {
				detail["override_reason"] = attempt.OverrideReason
			}
			return detail, nil
		})
	if err != nil {
		if errors.Is(err, custody.ErrVerificationMismatch) {
			s.log(ctx).Warn("Delivery rejected, verification code mismatch",
				zap.String("document_id", id.String()),
				zap.String("actor_id", actor.ID),
			)
			if s.metrics != nil {
				s.metrics.RecordVerificationMismatch(ctx)
			}
		}
		return nil, err
	}
	s.recordTransition(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Cancel terminates a document that has not been delivered
func (s *DocumentService) Cancel(ctx context.Context, actor custody.Actor, id uuid.UUID, req CancelRequest) (*DocumentResponse, error) {
	doc, err := s.mutate(ctx, "cancel", actor, id, audit.ActionDocumentCancelled,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			from := d.Status().String()
			if err := d.Cancel(actor, req.Reason, at); err != nil {
				return nil, err
			}
			return map[string]any{"from": from, "reason": d.Cancellation().Reason}, nil
		})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Eliminate deletes a document or records it as a credit note. The audit
// record keeps the full prior state.
func (s *DocumentService) Eliminate(ctx context.Context, actor custody.Actor, id uuid.UUID, req EliminateRequest) (*DocumentResponse, error) {
	doc, err := s.mutate(ctx, "eliminate", actor, id, audit.ActionDocumentEliminated,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			record, err := d.Eliminate(actor, req.Reason, req.Justification, req.AsCreditNote, at)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"reason":         record.Reason,
				"justification":  record.Justification,
				"as_credit_note": record.AsCreditNote,
				"snapshot":       record.Snapshot,
			}, nil
		})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// =============================================================================
// Ledger
// =============================================================================

// RegisterPayment records a cash-type payment against the pending balance
func (s *DocumentService) RegisterPayment(ctx context.Context, actor custody.Actor, id uuid.UUID, req RegisterPaymentRequest) (*LedgerMutationResponse, error) {
	var event *custody.PaymentEvent
	doc, err := s.mutate(ctx, "register_payment", actor, id, audit.ActionPaymentRegistered,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			e, err := d.RegisterPayment(actor, req.Amount, custody.PaymentChannel(req.Channel), req.Reference, at)
			if err != nil {
				return nil, err
			}
			event = e
			return map[string]any{
				"event_id":  e.ID.String(),
				"amount":    valueobject.Format(e.Amount),
				"channel":   e.Channel.String(),
				"reference": e.Reference,
				"pending":   valueobject.Format(d.AmountPending()),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, event.Channel.String(), doc.PaymentStatus().String(), event.Amount)
	}
	return &LedgerMutationResponse{
		Event:  toPaymentEventResponse(*event),
		Ledger: ToLedgerResponse(doc),
	}, nil
}

// PreviewRetention parses a withholding certificate and reports how it would
// apply to the document, without changing anything
func (s *DocumentService) PreviewRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*RetentionPreviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "preview_retention")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentID, id.String())

	cert, err := withholding.Parse(xmlData)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc, err := s.load(ctx, func() (*custody.Document, error) { return s.documentRepo.FindByID(ctx, id) })
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	findings := withholding.CheckCoherence(doc, cert)
	resp := &RetentionPreviewResponse{Certificate: cert}

	// Dry run on the loaded copy; it is never saved.
	_, _, applyErr := doc.ApplyRetention(actor, cert, s.calendar.Now())
	switch {
	case applyErr == nil:
		resp.CanApply = true
	case errors.Is(applyErr, withholding.ErrCertificateMismatch), errors.Is(applyErr, withholding.ErrNoRetentionFound):
	default:
		resp.AlreadyUsed = errors.Is(applyErr, withholding.ErrDuplicateCertificate)
		findings = append(findings, withholding.Finding{Severity: withholding.SeverityError, Message: applyErr.Error()})
	}
	if findings == nil {
		findings = []withholding.Finding{}
	}
	resp.Findings = findings
	resp.PendingAfter = valueobject.Format(doc.AmountPending())
	telemetry.SetAttribute(span, telemetry.SpanAttrCertificate, cert.Number)
	return resp, nil
}

// ApplyRetention parses a withholding certificate and merges it into the ledger.
// Coherence warnings are logged and returned; they do not block.
func (s *DocumentService) ApplyRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*LedgerMutationResponse, error) {
	cert, err := withholding.Parse(xmlData)
	if err != nil {
		return nil, err
	}

	var (
		event    *custody.PaymentEvent
		warnings []withholding.Finding
	)
	doc, err := s.mutate(ctx, "apply_retention", actor, id, audit.ActionRetentionApplied,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			e, w, err := d.ApplyRetention(actor, cert, at)
			if err != nil {
				return nil, err
			}
			event, warnings = e, w
			detail := map[string]any{
				"event_id":             e.ID.String(),
				"certificate_number":   cert.Number,
				"authorization_number": cert.AuthorizationNumber,
				"amount":               valueobject.Format(e.Amount),
				"retained_for_tax":     valueobject.Format(cert.RetainedForTax),
				"retained_for_income":  valueobject.Format(cert.RetainedForIncome),
				"pending":              valueobject.Format(d.AmountPending()),
			}
			if len(w) > 0 {
				detail["warnings"] = w
			}
			return detail, nil
		})
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		s.log(ctx).Warn("Retention certificate coherence warning",
			zap.String("document_id", id.String()),
			zap.String("certificate_number", cert.Number),
			zap.String("finding", w.Message),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordRetention(ctx, doc.PaymentStatus().String())
	}
	return &LedgerMutationResponse{
		Event:    toPaymentEventResponse(*event),
		Ledger:   ToLedgerResponse(doc),
		Warnings: warnings,
	}, nil
}

// ReversePayment voids one ledger entry by appending its negation
func (s *DocumentService) ReversePayment(ctx context.Context, actor custody.Actor, id, eventID uuid.UUID, req ReversePaymentRequest) (*LedgerMutationResponse, error) {
	var void *custody.PaymentEvent
	doc, err := s.mutate(ctx, "reverse_payment", actor, id, audit.ActionPaymentReversed,
		func(d *custody.Document, at time.Time) (map[string]any, error) {
			if strings.TrimSpace(req.Reason) == "" {
				return nil, shared.NewValidationError("a reason is required to reverse a payment")
			}
			e, err := d.ReversePayment(actor, eventID, req.Reason, at)
			if err != nil {
				return nil, err
			}
			void = e
			return map[string]any{
				"event_id":     e.ID.String(),
				"voids_event":  eventID.String(),
				"amount":       valueobject.Format(e.Amount),
				"is_retention": e.IsRetention,
				"reason":       e.Note,
				"pending":      valueobject.Format(d.AmountPending()),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordReversal(ctx, void.Channel.String())
	}
	return &LedgerMutationResponse{
		Event:  toPaymentEventResponse(*void),
		Ledger: ToLedgerResponse(doc),
	}, nil
}

// =============================================================================
// Mutation plumbing
// =============================================================================

type applyFunc func(doc *custody.Document, at time.Time) (map[string]any, error)

// mutate runs apply against the locked document and persists the outcome.
func (s *DocumentService) mutate(ctx context.Context, op string, actor custody.Actor, id uuid.UUID, action string, apply applyFunc) (*custody.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, op)
	defer span.End()
	start := time.Now()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, id.String(),
		telemetry.SpanAttrActorID, actor.ID,
		telemetry.SpanAttrActorRole, string(actor.Role),
	)

	var doc *custody.Document
	err := s.withRetry(ctx, op, func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			d, err := repos.DocumentRepo().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			history, err := repos.PaymentEventRepo().FindByDocument(ctx, id)
			if err != nil {
				return fmt.Errorf("load payment events: %w", err)
			}
			if d.RestoreLedger(history) {
				s.log(ctx).Warn("Cached ledger differs from event history, using the fold",
					zap.String("document_id", id.String()))
				telemetry.AddEvent(span, "ledger_drift")
			}
			d.ClearDomainEvents()

			at := s.calendar.Now()
			known := len(history)
			detail, err := apply(d, at)
			if err != nil {
				return err
			}

			events := d.PaymentEvents()
			for i := known; i < len(events); i++ {
				if err := repos.PaymentEventRepo().Append(ctx, &events[i]); err != nil {
					return fmt.Errorf("append payment event: %w", err)
				}
			}
			d.IncrementVersion()
			if err := repos.DocumentRepo().Save(ctx, d); err != nil {
				return fmt.Errorf("save document: %w", err)
			}
			if err := s.recordAudit(ctx, repos, d, actor, action, resultOf(action, d), detail, at); err != nil {
				return err
			}
			doc = d
			return nil
		})
	})
	s.observe(ctx, op, start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logFailure(ctx, op, id, actor, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustodyStatus, doc.Status().String(),
		telemetry.SpanAttrPaymentStatus, doc.PaymentStatus().String(),
	)
	s.publish(ctx, doc)
	s.log(ctx).Info("Document updated",
		zap.String("operation", op),
		zap.String("document_id", id.String()),
		zap.String("status", doc.Status().String()),
		zap.String("payment_status", doc.PaymentStatus().String()),
		zap.String("actor_id", actor.ID),
	)
	return doc, nil
}

// resultOf is the status tag stored on the audit record of an action
func resultOf(action string, d *custody.Document) string {
	switch action {
	case audit.ActionPaymentRegistered, audit.ActionRetentionApplied, audit.ActionPaymentReversed:
		return d.PaymentStatus().String()
	default:
		return d.Status().String()
	}
}

func (s *DocumentService) recordAudit(ctx context.Context, repos TransactionalRepositories, d *custody.Document, actor custody.Actor, action, result string, detail map[string]any, at time.Time) error {
	rec, err := audit.NewRecord(d.ID, actor.ID, actor.Name, string(actor.Role), action, result, detail, at)
	if err != nil {
		return err
	}
	if err := repos.AuditRecorder().Record(ctx, rec); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// withRetry retries fn while it fails with a concurrency conflict
func (s *DocumentService) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		if attempt > 0 {
			if s.metrics != nil {
				s.metrics.RecordConflictRetry(ctx, op)
			}
			s.log(ctx).Debug("Retrying after lock conflict",
				zap.String("operation", op), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
		err = fn()
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}

func (s *DocumentService) publish(ctx context.Context, doc *custody.Document) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Error("Failed to publish domain events",
			zap.String("document_id", doc.ID.String()),
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *DocumentService) observe(ctx context.Context, op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, op, time.Since(start), err)
	}
}

func (s *DocumentService) recordTransition(ctx context.Context, doc *custody.Document) {
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, doc.Status().String())
	}
}

func (s *DocumentService) logFailure(ctx context.Context, op string, id uuid.UUID, actor custody.Actor, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("document_id", id.String()),
		zap.String("actor_id", actor.ID),
		zap.Error(err),
	}
	if shared.CodeOf(err) != "" {
		s.log(ctx).Info("Document operation rejected", append(fields, zap.String("code", shared.CodeOf(err)))...)
		return
	}
	s.log(ctx).Error("Document operation failed", fields...)
}
