package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TiltGuard/internal/service/marketdata"
	"TiltGuard/internal/usecase"
	pkgch "TiltGuard/pkg/clickhouse"
	"TiltGuard/pkg/config"
	xhttp "TiltGuard/pkg/http"
	pkgkafka "TiltGuard/pkg/kafka"
	applogger "TiltGuard/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpHandler xhttp.Handler
	collector   *marketdata.Collector
	consumer    *pkgkafka.Consumer
	kh          *usecase.EventsIngestHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	cancel      context.CancelFunc
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	collector *marketdata.Collector,
	consumer *pkgkafka.Consumer,
	kh *usecase.EventsIngestHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		httpHandler: handler,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		producer:    producer,
		chClient:    chClient,
	}
}

// producerPublisher adapts the Kafka producer to the log collector's sink.
type producerPublisher struct {
	p *pkgkafka.Producer
}

func (pp producerPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return pp.p.Publish(ctx, topic, nil, payload)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	if a.producer != nil && a.cfg.Kafka.LogsTopic != "" {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.LogsTopic,
			Publisher:      producerPublisher{p: a.producer},
		})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("market collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("market collector started", applogger.Strings("symbols", a.cfg.MarketData.Symbols))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.logger.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
