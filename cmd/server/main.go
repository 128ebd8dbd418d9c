package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/infrastructure/cache"
	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/notaria/backend/internal/infrastructure/event"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"github.com/notaria/backend/internal/infrastructure/notification"
	"github.com/notaria/backend/internal/infrastructure/persistence"
	"github.com/notaria/backend/internal/infrastructure/telemetry"
	"github.com/notaria/backend/internal/interfaces/http/handler"
	"github.com/notaria/backend/internal/interfaces/http/middleware"
	"github.com/notaria/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Notaria Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	calendar, err := cfg.App.Calendar()
	if err != nil {
		log.Fatal("Invalid calendar", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
		logger.WithExpectedErrors(persistence.IsLockConflict))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	eventRepo := persistence.NewGormPaymentEventRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	var custodyMetrics *telemetry.CustodyMetrics
	if meterProvider.IsEnabled() {
		custodyMetrics, err = telemetry.NewCustodyMetrics(telemetry.CustodyMetricsConfig{
			Meter:          meterProvider.Meter("notaria.custody"),
			Logger:         log,
			StatusProvider: documentRepo,
		})
		if err != nil {
			log.Fatal("Failed to initialize custody metrics", zap.Error(err))
		}
		custodyMetrics.StartPeriodicCollection(rootCtx, cfg.Telemetry.MetricsInterval)
		defer custodyMetrics.Stop()
	}

	// Ready notifications run off the request path: bus -> dedupe -> queue -> driver
	notifier, err := notification.NewNotifier(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	dispatcher := notification.NewDispatcher(notifier, notification.DispatcherConfig{
		QueueSize:   cfg.Notification.QueueSize,
		Workers:     cfg.Notification.Workers,
		SendTimeout: cfg.Notification.Timeout,
	}, log)
	if err := dispatcher.Start(rootCtx); err != nil {
		log.Fatal("Failed to start notification dispatcher", zap.Error(err))
	}

	idempotencyStore, err := cache.NewIdempotencyStore(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(
		event.NewIdempotentHandler("ready", appcustody.NewReadyNotificationHandler(dispatcher, log), idempotencyStore, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: cfg.Idempotency.TTL})),
		custody.EventTypeDocumentReady,
	)
	if err := bus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	documentService := appcustody.NewDocumentService(
		persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout),
		documentRepo,
		eventRepo,
		auditRepo,
		calendar,
	)
	documentService.SetEventPublisher(bus)
	documentService.SetLogger(log)
	documentService.SetConflictRetries(cfg.Ledger.ConflictRetries)
	if custodyMetrics != nil {
		documentService.SetMetrics(custodyMetrics)
	}

	deliverLimiter := middleware.NewRateLimiter(cfg.HTTP.DeliverAttemptLimit, cfg.HTTP.DeliverAttemptWindow)
	defer deliverLimiter.Close()

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tracerProvider.IsEnabled(),
		Meters:      meterProvider,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithHealth(handler.NewHealthHandler(version, map[string]handler.Pinger{"database": db})),
	).
		Register(handler.NewDocumentHandler(documentService, deliverLimiter)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first so no new events are published, then
	// drain the notification path before the exporters flush.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := dispatcher.Stop(ctx); err != nil {
		log.Error("Error draining notifications", zap.Error(err))
	}
	stats := dispatcher.Stats()
	log.Info("Notification dispatcher stopped",
		zap.Int64("sent", stats.Sent),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dropped", stats.Dropped),
	)
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
