package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/satfinder/internal/adapters/http/api"
	"github.com/okian/satfinder/internal/adapters/http/site"
	"github.com/okian/satfinder/internal/adapters/http/swagger"
	service "github.com/okian/satfinder/internal/app"
	"github.com/okian/satfinder/internal/config"
	"github.com/okian/satfinder/internal/observability"
	"github.com/okian/satfinder/pkg/logger"
	"github.com/okian/satfinder/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	datasetMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBucketsMs),
	)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg), loggerInstance.Named("tracing"))
	if err != nil {
		loggerInstance.Error(ctx, "failed to initialize tracing", logger.Error(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, loggerInstance)

	svc := service.New(append(service.OptionsFromConfig(cfg), service.WithLogger(loggerInstance.Named("service")))...)

	// A failed warm-up is not fatal; the first request retries the download.
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Warn(ctx, "dataset warm-up failed", logger.Error(err))
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startDatasetMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, loggerInstance.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newMux registers the landing page, API reference and query routes.
func newMux(ctx context.Context, svc *service.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, log).Register(ctx, mux, log)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startDatasetMetricsUpdater keeps the dataset age gauge current between fetches.
func startDatasetMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(datasetMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateDatasetMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateDatasetMetrics publishes the age of the cached dataset, if any.
func updateDatasetMetrics(svc *service.Service) {
	if age, ok := svc.DatasetAge(); ok {
		metrics.UpdateDatasetAge(age.Seconds())
	}
}
