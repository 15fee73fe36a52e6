// Command fake-upstream serves an in-memory time-clock backend seeded with
// demo employees, for running the kiosk without the real HR systems.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/timeclock/internal/adapters/upstream"
	"github.com/okian/timeclock/internal/config"
	"github.com/okian/timeclock/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("fake-upstream")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	backend := upstream.New(upstream.WithLogger(log))
	backend.Seed(time.Now())

	srv := &http.Server{
		Addr:              cfg.UpstreamAddr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving seeded time-clock backend", logger.String("addr", cfg.UpstreamAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "fake upstream failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "shutdown failed", logger.Error(err))
	}
}
