package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"go.uber.org/zap"
)

var (
	// ErrDispatcherNotRunning is returned when a notice arrives before Start or after Stop
	ErrDispatcherNotRunning = errors.New("notification dispatcher is not running")
	// ErrQueueFull is returned when the queue has no room; the notice is dropped
	ErrQueueFull = errors.New("notification queue is full")
)

// DispatcherConfig sizes the queue and the worker pool
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// DispatcherStats counts notices by outcome
type DispatcherStats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Dispatcher queues notices and sends them through next on worker goroutines.
// NotifyReady never blocks on the network.
type Dispatcher struct {
	next   appcustody.ReadyNotifier
	config DispatcherConfig
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	queue   chan appcustody.ReadyNotice
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewDispatcher creates a stopped dispatcher
func NewDispatcher(next appcustody.ReadyNotifier, cfg DispatcherConfig, l *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultWebhookTimeout
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Dispatcher{next: next, config: cfg, logger: l.Named("notification_dispatcher")}
}

// Start launches the workers
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	// workers outlive the request that started them
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.queue = make(chan appcustody.ReadyNotice, d.config.QueueSize)
	d.running = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, d.queue)
	}
	d.logger.Info("Notification dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Int("queue_size", d.config.QueueSize),
	)
	return nil
}

// NotifyReady enqueues notice
func (d *Dispatcher) NotifyReady(_ context.Context, notice appcustody.ReadyNotice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ErrDispatcherNotRunning
	}

	select {
	case d.queue <- notice:
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stop stops accepting notices and waits for the queue to drain. When ctx
// ends first, in-flight sends are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Notification dispatcher stopped", zap.Any("stats", d.Stats()))
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn("Notification dispatcher stop timed out", zap.Any("stats", d.Stats()))
		return ctx.Err()
	}
}

// Stats returns the outcome counters
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}

func (d *Dispatcher) worker(ctx context.Context, queue <-chan appcustody.ReadyNotice) {
	defer d.wg.Done()
	for notice := range queue {
		d.send(ctx, notice)
	}
}

func (d *Dispatcher) send(ctx context.Context, notice appcustody.ReadyNotice) {
	ctx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	if err := d.next.NotifyReady(ctx, notice); err != nil {
		d.failed.Add(1)
		d.logger.Error("Failed to send ready notice",
			zap.String("document_id", notice.DocumentID),
			zap.String("tracking_code", notice.TrackingCode),
			zap.Error(err),
		)
		return
	}
	d.sent.Add(1)
}
