// Package client sends queries to a running tquery server over TCP or
// Socket.IO.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/vk/tquery/internal/ctxlog"
)

// QueryTCP sends line to the query server at addr and returns its reply.
// Cancelling ctx, or reaching its deadline, aborts the exchange.
func QueryTCP(ctx context.Context, addr, line string) (string, error) {
	logger := ctxlog.FromContext(ctx).With("transport", "tcp", "addr", addr)
	logger.Debug("Dialing query server.")

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	// unblock reads and writes once ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := io.WriteString(conn, strings.TrimSpace(line)+"\n"); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	logger.Debug("Reply received.", "bytes", len(reply))
	return string(reply), nil
}
