package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/usecase"
	"NotifyInvest/pkg/config"
	xhttp "NotifyInvest/pkg/http"
	pkgkafka "NotifyInvest/pkg/kafka"
	applogger "NotifyInvest/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	dispatcher  *usecase.Dispatcher
	registry    domrepo.DeviceRegistry
	ledger      domrepo.SignalLedger
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	dispatcher *usecase.Dispatcher,
	registry domrepo.DeviceRegistry,
	ledger domrepo.SignalLedger,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		dispatcher:  dispatcher,
		registry:    registry,
		ledger:      ledger,
		consumer:    consumer,
		kh:          kh,
		producer:    producer,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithRequestMetrics(a.log, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, serverOpts...)

	// Start consumer when signals arrive over the broker
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("api listening",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("store", a.cfg.Store.Type),
		applogger.String("ledger", a.cfg.Ledger.Type),
		applogger.String("ingest", a.cfg.Ingest.Backend))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting new work first
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Drain in-flight dispatches before closing storage
	a.dispatcher.Wait()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if err := a.ledger.Close(); err != nil {
		a.log.Warn("ledger close error", applogger.Error(err))
	}
	if err := a.registry.Close(); err != nil {
		a.log.Warn("registry close error", applogger.Error(err))
	}
	a.log.RemoveCollector()

	a.log.Info("shutdown complete")
	return nil
}
