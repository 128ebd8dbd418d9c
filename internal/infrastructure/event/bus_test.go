package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Document", uuid.New(), time.Now()),
	}
}

// testHandler records what it receives and fails or panics on demand
type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func startedBus(t *testing.T, l *zap.Logger) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(l)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("routes by event type", func(t *testing.T) {
		bus := startedBus(t, nil)
		ready := newTestHandler("DocumentReadyForPickup")
		paid := newTestHandler("PaymentRegistered")
		all := newTestHandler()
		bus.Subscribe(ready)
		bus.Subscribe(paid)
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx,
			newTestEvent("DocumentReadyForPickup"),
			newTestEvent("PaymentRegistered"),
			newTestEvent("DocumentCancelled"),
		))

		assert.Equal(t, 1, ready.count())
		assert.Equal(t, 1, paid.count())
		assert.Equal(t, 3, all.count())
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := startedBus(t, nil)
		h := newTestHandler("PaymentRegistered")
		bus.Subscribe(h, "DocumentDelivered")

		require.NoError(t, bus.Publish(ctx, newTestEvent("PaymentRegistered"), newTestEvent("DocumentDelivered")))
		assert.Equal(t, 1, h.count())
	})

	t.Run("failing and panicking handlers do not stop delivery", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := startedBus(t, zap.New(core))

		failing := newTestHandler("DocumentReadyForPickup")
		failing.err = errors.New("webhook down")
		panicking := newTestHandler("DocumentReadyForPickup")
		panicking.panicMsg = "boom"
		healthy := newTestHandler("DocumentReadyForPickup")
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, newTestEvent("DocumentReadyForPickup")))

		assert.Equal(t, 1, healthy.count())
		delivered, failed := bus.Stats()
		assert.Equal(t, int64(1), delivered)
		assert.Equal(t, int64(2), failed)
		assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
	})

	t.Run("unsubscribed handler receives nothing", func(t *testing.T) {
		bus := startedBus(t, nil)
		h := newTestHandler("DocumentDelivered")
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(ctx, newTestEvent("DocumentDelivered")))
		assert.Zero(t, h.count())
	})
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler()
	bus.Subscribe(h)

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("DocumentRegistered")), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("DocumentRegistered")))
	require.NoError(t, bus.Stop(ctx))

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("DocumentRegistered")), ErrBusStopped)
	assert.Equal(t, 1, h.count())
}
