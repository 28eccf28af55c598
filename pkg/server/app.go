package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinSense/internal/middleware"
	"CoinSense/internal/usecase"
	"CoinSense/pkg/cache"
	pkgch "CoinSense/pkg/clickhouse"
	"CoinSense/pkg/config"
	xhttp "CoinSense/pkg/http"
	pkgkafka "CoinSense/pkg/kafka"
	applogger "CoinSense/pkg/logger"
)

// App encapsulates the service lifecycle: the HTTP server, the optional chat
// consumer and the decision record pipeline.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	pipeline   *middleware.RecordPipeline
	recorder   *usecase.DecisionRecorder
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	cache      cache.Service
}

// Deps are the already built components. Optional ones may be nil.
type Deps struct {
	HTTPServer *xhttp.Server
	Consumer   *pkgkafka.Consumer
	Handler    pkgkafka.MessageHandler
	Pipeline   *middleware.RecordPipeline
	Recorder   *usecase.DecisionRecorder
	Producer   *pkgkafka.Producer
	ClickHouse *pkgch.Client
	Cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, d Deps) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: d.HTTPServer,
		consumer:   d.Consumer,
		kh:         d.Handler,
		pipeline:   d.Pipeline,
		recorder:   d.Recorder,
		producer:   d.Producer,
		chClient:   d.ClickHouse,
		cache:      d.Cache,
	}
}

// Start launches background components and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.log.Info("decision pipeline started", applogger.String("backend", a.recorder.Backend()))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka chat consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(ctx)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops intake first, then drains the pipeline, then closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(ctx); err != nil {
			a.log.Warn("decision pipeline stop error", applogger.Error(err), applogger.Int("pending", a.pipeline.Depth()))
		}
	}

	// flush aggregated errors while the producer is still open
	a.log.RemoveCollector()

	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
