package event

import (
	"context"
	"sync/atomic"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event ID.
// Keys are namespaced by handler name so several handlers can share a store.
type IdempotentHandler struct {
	name    string
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the TTL and enabled flag
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(name string, handler shared.EventHandler, store shared.IdempotencyStore, l *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	if l == nil {
		l = zap.NewNop()
	}
	h := &IdempotentHandler{
		name:    name,
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  l.Named("idempotent_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event ID in the store and runs the wrapped handler if
// the claim is new. A store failure does not drop the event. A handler
// failure keeps the claim until the TTL expires.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, ev)
	}

	log := logger.WithLogger(ctx, h.logger).With(
		zap.String("handler", h.name),
		zap.String("event_id", ev.EventID().String()),
		zap.String("event_type", ev.EventType()),
	)

	isNew, err := h.store.MarkProcessed(ctx, h.key(ev), h.config.TTL)
	switch {
	case err != nil:
		log.Warn("Idempotency check failed, processing anyway", zap.Error(err))
	case !isNew:
		h.duplicate.Add(1)
		log.Debug("Duplicate event skipped")
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

func (h *IdempotentHandler) key(ev shared.DomainEvent) string {
	return h.name + ":" + ev.EventID().String()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
