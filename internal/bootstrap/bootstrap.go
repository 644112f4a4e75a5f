package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rawhttpd/internal/config"
	"rawhttpd/internal/handler"
	"rawhttpd/internal/metrics"
	"rawhttpd/internal/registry"
	"rawhttpd/internal/store"
	"rawhttpd/internal/transport"
	"rawhttpd/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Bootstrap struct {
	Config       config.Config
	Logger       *zap.Logger
	Store        store.Store
	ConnRegistry registry.Registry
	Metrics      metrics.Metrics
	Gatherer     prometheus.Gatherer
	ErrChan      chan error
	SignalChan   chan os.Signal
}

func New(conf config.Config, logger *zap.Logger) (*Bootstrap, error) {
	resourceStore, err := store.NewOS(conf.RootDir())
	if err != nil {
		return nil, fmt.Errorf("open resource root %q: %w", conf.RootDir(), err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(promRegistry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &Bootstrap{
		Config:       conf,
		Logger:       logger,
		Store:        resourceStore,
		ConnRegistry: registry.NewRegistry(),
		Metrics:      m,
		Gatherer:     promRegistry,
		ErrChan:      make(chan error, 5),
		SignalChan:   make(chan os.Signal, 1),
	}, nil
}

func startHTTPServer(httpServer transport.Transport, ln net.Listener, errChan chan<- error) {
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		errChan <- fmt.Errorf("error when serving http server: %w", err)
	}
}

func newMetricsServer(port string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &http.Server{
		Addr:              fmt.Sprintf("localhost:%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func startMetrics(srv *http.Server, logger *zap.Logger, errChan chan<- error) {
	logger.Info("starting metrics server", zap.String("addr", "http://"+srv.Addr+"/metrics"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChan <- fmt.Errorf("metrics server error: %w", err)
	}
}

func (b *Bootstrap) Run() error {
	signal.Notify(b.SignalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(b.SignalChan)

	h := handler.New(b.Store)
	httpServer := transport.NewHTTPServer(b.Config, h, b.ConnRegistry, b.Metrics, b.Logger)
	ln, err := httpServer.Listen()
	if err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	go startHTTPServer(httpServer, ln, b.ErrChan)

	var metricsServer *http.Server
	if b.Config.MetricsEnabled() {
		metricsServer = newMetricsServer(b.Config.MetricsPort(), b.Gatherer)
		go startMetrics(metricsServer, b.Logger, b.ErrChan)
	}

	b.Logger.Info("all services started",
		zap.String("version", version.GetVersion()),
		zap.String("root", b.Config.RootDir()),
	)

	select {
	case err = <-b.ErrChan:
		b.shutdown(ln, metricsServer)
		return fmt.Errorf("service error: %w", err)
	case sig := <-b.SignalChan:
		b.Logger.Info("received signal, initiating graceful shutdown", zap.Stringer("signal", sig))
		b.shutdown(ln, metricsServer)
		return nil
	}
}

// shutdown stops accepting, then closes the connections still open.
func (b *Bootstrap) shutdown(ln net.Listener, metricsServer *http.Server) {
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		b.Logger.Warn("failed to close listener", zap.Error(err))
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			b.Logger.Warn("failed to stop metrics server", zap.Error(err))
		}
	}

	if err := b.ConnRegistry.CloseAll(); err != nil {
		b.Logger.Warn("failed to close connections", zap.Error(err))
	}
}
