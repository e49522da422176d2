package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/web"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// webAddr places the HTTP server on the same host as the query listener.
func (a *App) webAddr() string {
	host, _, err := net.SplitHostPort(a.config.Listen)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(a.config.HTTPPort))
}

// webHandler builds the HTTP router. sio may be nil.
func (a *App) webHandler(sio *web.SocketIO) http.Handler {
	opts := web.Options{
		Metrics:        a.metrics,
		StaticDir:      a.config.StaticDir,
		MaxQueryLength: a.config.MaxQueryLength,
	}
	if sio != nil {
		opts.SocketIO = sio.Handler()
	}
	return web.NewRouter(a.logger, a.dispatcher, opts)
}

// startWebServer listens on the HTTP port and adds the server and its
// shutdown to g. Requests are cancelled when ctx is.
func (a *App) startWebServer(ctx context.Context, g *errgroup.Group) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring HTTP server.")

	addr := a.webAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	sio := web.NewSocketIO(ctx, a.dispatcher, a.metrics, a.config.MaxQueryLength)
	httpServer := &http.Server{
		Handler:           a.webHandler(sio),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		logger.Info("🩺 HTTP server starting", "address", fmt.Sprintf("http://%s/health", ln.Addr().String()))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("🩺 Shutting down HTTP server...")
		sio.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		logger.Debug("HTTP server shut down gracefully.")
		return nil
	})
	return nil
}
