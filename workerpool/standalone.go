package workerpool

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// StandaloneOptions configures RunStandalone.
type StandaloneOptions struct {
	// ShutdownTimeout bounds how long RunStandalone waits for in-flight
	// tasks to finish after a shutdown signal.
	ShutdownTimeout time.Duration

	// Logger receives lifecycle events. If nil, a default JSON logger is
	// created.
	Logger *slog.Logger

	// OnReady, if set, is invoked once with the running Pool so the
	// caller can submit tasks or register handlers before blocking for a
	// shutdown signal.
	OnReady func(*Pool)
}

// RunStandalone runs pool as a long-lived process: it hands the pool to
// OnReady, blocks until SIGTERM, SIGINT, or ctx is cancelled, then shuts
// the pool down gracefully within ShutdownTimeout.
func RunStandalone(ctx context.Context, pool *Pool, opts StandaloneOptions) error {
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	logger := opts.Logger.With("component", "workerpool")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	if opts.OnReady != nil {
		opts.OnReady(pool)
	}
	logger.Info("worker pool started")

	select {
	case sig := <-sigCh:
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker pool shutdown timeout exceeded", "timeout", opts.ShutdownTimeout)
		return err
	}
	logger.Info("worker pool shutdown complete")
	return nil
}
