package app

import (
	"context"
	"fmt"
	"net"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/server"
	"golang.org/x/sync/errgroup"
)

// Run listens on the configured query address and serves until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Listen, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the query worker, the TCP query server on ln and, when an HTTP
// port is configured, the HTTP side. It returns once all of them stopped,
// either because ctx was cancelled or because one of them failed.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")
	a.logger.Info("🚀 Starting query service...", "lines", a.lines, "address", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.dispatcher.Run(gctx)
	})

	tcp := server.New(a.dispatcher,
		server.WithMaxQueryLength(a.config.MaxQueryLength),
		server.WithMetrics(a.metrics),
	)
	g.Go(func() error {
		return tcp.Serve(gctx, ln)
	})

	if a.config.HTTPPort > 0 {
		if err := a.startWebServer(gctx, g); err != nil {
			// stop what already started
			ln.Close()
			_ = g.Wait()
			return err
		}
	} else {
		a.logger.Warn("HTTP server not started: disabled")
	}

	err := g.Wait()
	a.logger.Info("🏁 Query service stopped.")
	return err
}
