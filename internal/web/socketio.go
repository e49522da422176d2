package web

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/dispatch"
	"github.com/vk/tquery/internal/metrics"
	"github.com/zishang520/socket.io/v2/socket"
)

// Socket.IO event names. A client emits QueryEvent with the query line and
// receives the reply text as ResultEvent.
const (
	QueryEvent  = "query"
	ResultEvent = "result"
)

// Submitter answers one query line.
type Submitter interface {
	Submit(ctx context.Context, line string) (string, error)
}

// SocketIO is the Socket.IO front end of the query service.
type SocketIO struct {
	ctx            context.Context
	io             *socket.Server
	submitter      Submitter
	metrics        *metrics.Collector
	maxQueryLength int
}

// NewSocketIO creates the Socket.IO server. Queries run with ctx, so
// cancelling it abandons queries that are still waiting for the worker.
func NewSocketIO(ctx context.Context, sub Submitter, m *metrics.Collector, maxQueryLength int) *SocketIO {
	s := &SocketIO{
		ctx:            ctx,
		io:             socket.NewServer(nil, nil),
		submitter:      sub,
		metrics:        m,
		maxQueryLength: maxQueryLength,
	}
	s.io.On("connection", s.onConnection)
	return s
}

// Handler returns the HTTP handler to mount under /socket.io/.
func (s *SocketIO) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close disconnects all clients.
func (s *SocketIO) Close() {
	s.io.Close(nil)
}

func (s *SocketIO) onConnection(clients ...any) {
	if len(clients) == 0 {
		return
	}
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	ctx, logger := ctxlog.With(s.ctx, "sid", client.Id())
	logger.Debug("Socket.IO client connected.")
	if s.metrics != nil {
		s.metrics.ConnectionAccepted("socketio")
	}

	client.On(QueryEvent, func(args ...any) {
		// answering can block on the worker, keep the client's event loop free
		go func() {
			client.Emit(ResultEvent, s.answer(ctx, args...))
		}()
	})
	client.On("disconnect", func(reason ...any) {
		logger.Debug("Socket.IO client disconnected.", "reason", fmt.Sprint(reason...))
	})
}

// answer turns the arguments of one query event into reply text.
func (s *SocketIO) answer(ctx context.Context, args ...any) string {
	if len(args) == 0 {
		return "bad request: missing query"
	}
	line, ok := args[0].(string)
	if !ok {
		return fmt.Sprintf("bad request: query must be a string, got %T", args[0])
	}
	if s.maxQueryLength > 0 && len(line) > s.maxQueryLength {
		line = truncate(line, s.maxQueryLength)
	}

	reply, err := s.submitter.Submit(ctx, line)
	return dispatch.Text(reply, err)
}

// truncate cuts line to at most n bytes without splitting a UTF-8 sequence.
func truncate(line string, n int) string {
	if len(line) <= n {
		return line
	}
	for n > 0 && !utf8.RuneStart(line[n]) {
		n--
	}
	return line[:n]
}
