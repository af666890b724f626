package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP in the background. The returned channel closes on
// SIGINT, SIGTERM or SIGHUP, or when the listener fails, so the caller
// always gets to run Stop.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	sigCtx, stopSignals := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			stopSignals()
		}
	}()

	go func() {
		<-sigCtx.Done()
		stopSignals()
		slog.Info("shutting down")
		close(done)
	}()

	return done
}

// Stop drains in-flight requests, waits for background consumers and then
// releases resources in the order they were registered.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background worker returned error", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "shutdown complete")
}
