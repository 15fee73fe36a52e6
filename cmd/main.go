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

	"github.com/okian/timeclock/internal/adapters/gateway"
	"github.com/okian/timeclock/internal/adapters/http/api"
	service "github.com/okian/timeclock/internal/app"
	"github.com/okian/timeclock/internal/config"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "invalid configuration", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start kiosk service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, svc, api.WithAllowedOrigins(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Routes(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// newService wires the backend client and the kiosk service from cfg.
func newService(cfg *config.Config, l logger.Logger) (*service.Service, error) {
	loc, err := cfg.Loc()
	if err != nil {
		return nil, err
	}

	client := gateway.NewClient(cfg.UpstreamURL,
		gateway.WithTimeout(cfg.RequestTimeout()),
		gateway.WithLocation(loc),
		gateway.WithLogger(l.Named("gateway")),
	)

	return service.New(client,
		service.WithLogger(l.Named("kiosk")),
		service.WithIdleTimeout(cfg.IdleTimeout()),
		service.WithFetchTimeout(cfg.RequestTimeout()),
		service.WithLogQueueSize(cfg.LogQueueSize),
		service.WithLogWorkers(cfg.LogWorkers),
		service.WithLocation(loc),
		service.WithAuthenticatedPrefix(cfg.AuthenticatedPrefix),
		service.WithInternationalHoursLimit(cfg.InternationalHoursLimit),
	), nil
}

// startSystemMetricsUpdater periodically samples runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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

// startServiceMetricsUpdater periodically refreshes the service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

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

// updateServiceMetrics publishes the gauges GetStats does not already set.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if workers, ok := stats["logWorkers"].(int); ok {
		metrics.UpdateWorkerActiveCount(workers)
	}
	if capacity, ok := stats["logQueueSize"].(int); ok {
		metrics.UpdateQueueCapacity(capacity)
	}
	if unsynced, ok := stats["unsyncedPunches"].(int); ok {
		metrics.UpdateUnsyncedPunches(unsynced)
	}
}
