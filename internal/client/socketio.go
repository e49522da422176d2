package client

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Socket.IO event names, matching the server.
const (
	queryEvent  = "query"
	resultEvent = "result"
)

type opResult struct {
	value string
	err   error
}

// QuerySocketIO emits line to the Socket.IO endpoint at rawURL, for example
// http://127.0.0.1:8080/socket.io/, and waits for the result event. ctx
// should carry a deadline; without one a server that never answers blocks
// forever.
func QuerySocketIO(ctx context.Context, rawURL, line string) (string, error) {
	logger := ctxlog.FromContext(ctx).With("transport", "socketio", "url", rawURL)
	logger.Debug("Connecting to Socket.IO endpoint.")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	send := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, sending query.", "sid", io.Id())
		io.Emit(queryEvent, line)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				send(opResult{err: fmt.Errorf("failed to connect: %w", err)})
				return
			}
		}
		send(opResult{err: fmt.Errorf("failed to connect to %s", rawURL)})
	})
	io.On(types.EventName(resultEvent), func(data ...any) {
		if len(data) == 0 {
			send(opResult{err: fmt.Errorf("empty %s event", resultEvent)})
			return
		}
		text, ok := data[0].(string)
		if !ok {
			send(opResult{err: fmt.Errorf("unexpected %s payload %T", resultEvent, data[0])})
			return
		}
		send(opResult{value: text})
	})

	io.Connect()

	select {
	case <-ctx.Done():
		if isConnected.Load() {
			return "", fmt.Errorf("timed out after connecting while waiting for %s: %w", resultEvent, ctx.Err())
		}
		return "", fmt.Errorf("timed out while waiting for initial connection: %w", ctx.Err())
	case res := <-done:
		return res.value, res.err
	}
}
