package custody

import (
	"context"
	"fmt"
	"time"

	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReadyNotice is what a client is told when a document can be picked up
type ReadyNotice struct {
	EventID          string    `json:"event_id"`
	DocumentID       string    `json:"document_id"`
	TrackingCode     string    `json:"tracking_code"`
	DocumentType     string    `json:"document_type"`
	ClientName       string    `json:"client_name"`
	ClientEmail      string    `json:"client_email,omitempty"`
	ClientPhone      string    `json:"client_phone,omitempty"`
	VerificationCode string    `json:"verification_code"`
	ReadyAt          time.Time `json:"ready_at"`
}

// ReadyNotifier delivers ready-for-pickup notices. Delivery is best effort:
// a failure never undoes the transition.
type ReadyNotifier interface {
	NotifyReady(ctx context.Context, notice ReadyNotice) error
}

// ReadyNotificationHandler tells the client their document is ready,
// unless notification was skipped at registration
type ReadyNotificationHandler struct {
	notifier ReadyNotifier
	logger   *zap.Logger
}

// NewReadyNotificationHandler creates a new handler for DocumentReadyForPickup events
func NewReadyNotificationHandler(notifier ReadyNotifier, logger *zap.Logger) *ReadyNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadyNotificationHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReadyNotificationHandler) EventTypes() []string {
	return []string{custody.EventTypeDocumentReady}
}

// Handle processes a DocumentReadyEvent
func (h *ReadyNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ready, ok := event.(*custody.DocumentReadyEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", custody.EventTypeDocumentReady),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			custody.EventTypeDocumentReady, event.EventType())
	}

	if !ready.NotifyRecipient {
		h.logger.Info("ready notification skipped",
			zap.String("document_id", ready.AggregateID().String()),
			zap.String("reason", ready.SkipReason),
		)
		return nil
	}
	if ready.ClientEmail == "" && ready.ClientPhone == "" {
		h.logger.Warn("ready notification has no contact to reach",
			zap.String("document_id", ready.AggregateID().String()),
			zap.String("tracking_code", ready.TrackingCode),
		)
		return nil
	}

	notice := ReadyNotice{
		EventID:          ready.EventID().String(),
		DocumentID:       ready.AggregateID().String(),
		TrackingCode:     ready.TrackingCode,
		DocumentType:     ready.DocumentType.String(),
		ClientName:       ready.ClientName,
		ClientEmail:      ready.ClientEmail,
		ClientPhone:      ready.ClientPhone,
		VerificationCode: ready.VerificationCode,
		ReadyAt:          ready.OccurredAt(),
	}
	if err := h.notifier.NotifyReady(ctx, notice); err != nil {
		h.logger.Error("failed to send ready notification",
			zap.String("document_id", notice.DocumentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
