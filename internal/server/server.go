// Package server is the raw TCP front end of the query service. A client
// connects, sends one query line, receives one reply and is disconnected.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/dispatch"
	"github.com/vk/tquery/internal/metrics"
)

// DefaultMaxQueryLength bounds how many bytes are read from one connection.
const DefaultMaxQueryLength = 1024

// Submitter answers one query line.
type Submitter interface {
	Submit(ctx context.Context, line string) (string, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMaxQueryLength overrides DefaultMaxQueryLength. Non-positive values are ignored.
func WithMaxQueryLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxQueryLength = n
		}
	}
}

// WithMetrics counts accepted connections in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server accepts query connections and feeds them to a Submitter.
type Server struct {
	submitter      Submitter
	maxQueryLength int
	metrics        *metrics.Collector
	wg             sync.WaitGroup
}

// New creates a Server that answers queries through sub.
func New(sub Submitter, opts ...Option) *Server {
	s := &Server{
		submitter:      sub,
		maxQueryLength: DefaultMaxQueryLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and
// waits for in-flight connections to finish. Each connection is handled on
// its own goroutine. It returns nil after a shutdown triggered by ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Query server listening.", "address", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		logger.Debug("Closing query listener.")
		ln.Close()
	})
	defer stop()

	var err error
	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(acceptErr, net.ErrClosed) {
				err = acceptErr
				break
			}
			logger.Error("Failed to accept connection.", "error", acceptErr)
			continue
		}

		if s.metrics != nil {
			s.metrics.ConnectionAccepted("tcp")
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	logger.Info("Query server stopped.")
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	ctx, logger := ctxlog.With(ctx, "request_id", uuid.NewString(), "remote_addr", conn.RemoteAddr().String())
	logger.Debug("Connection accepted.")

	line, err := s.readQuery(conn)
	if err != nil {
		logger.Warn("Failed to read query.", "error", err)
		return
	}
	logger.Debug("Query received.", "query", line)

	reply, err := s.submitter.Submit(ctx, line)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		logger.Debug("Connection dropped during shutdown.")
		return
	}

	text := dispatch.Text(reply, err)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(conn, text); err != nil {
		logger.Warn("Failed to write reply.", "error", err)
	}
}

// readQuery reads up to the first newline, EOF or the length limit,
// whichever comes first.
func (s *Server) readQuery(conn net.Conn) (string, error) {
	r := bufio.NewReader(io.LimitReader(conn, int64(s.maxQueryLength)))
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err != nil && line == "" {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(line), nil
}
