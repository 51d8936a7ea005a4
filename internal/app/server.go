package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// Run listens on the configured address and blocks until ctx is cancelled or
// the server fails, then drains in-flight work through Stop.
func (a *App) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, l)
}

// Serve is Run on a caller-provided listener.
func (a *App) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "address", l.Addr().String())
		if err := a.httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		timeout := defaultShutdownTimeout
		if a.config != nil && a.config.IsSet("app.server.shutdown_timeout_seconds") {
			timeout = a.config.GetSecond("app.server.shutdown_timeout_seconds")
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		a.Stop(sctx)
		slog.Info("application gracefully shutdown")
		return nil
	})

	return g.Wait()
}

// Stop shuts the HTTP server down, waits for background publishes and the
// store sweeper, then runs closers in registration order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "http server shutdown", "error", err)
	}

	if a.goroutine != nil {
		if err := a.goroutine.Wait(); err != nil {
			slog.ErrorContext(ctx, "background task failed", "error", err)
		}
		if n := a.goroutine.Dropped(); n > 0 {
			slog.WarnContext(ctx, "background tasks dropped at capacity", "count", n)
		}
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}
}
