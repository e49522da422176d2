package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tquery/internal/dispatch"
	"github.com/vk/tquery/internal/subway"
)

// recordingSubmitter answers every line with a fixed reply and remembers it.
type recordingSubmitter struct {
	mu    sync.Mutex
	lines []string
	reply string
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, line string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return r.reply, r.err
}

func (r *recordingSubmitter) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// startServer serves on a random local port until the test ends.
func startServer(t *testing.T, sub Submitter, opts ...Option) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := New(sub, opts...)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func roundTrip(t *testing.T, addr, payload string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, payload)
	require.NoError(t, err)

	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestServer_RoundTrip(t *testing.T) {
	g := subway.New()
	a := g.AddStation("Airport")
	s := g.AddStation("State")
	g.AddConnection(a, s, "blue", "blue")
	g.AddConnection(s, a, "blue", "blue")

	d := dispatch.New(g)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	addr := startServer(t, d)

	assert.Equal(t, "take blue\n  Airport\n  State\n", roundTrip(t, addr, "from Airport to State\n"))
	assert.Equal(t, "done\n", roundTrip(t, addr, "disable State\n"))
	assert.Equal(t, "no such station: Nowhere\n", roundTrip(t, addr, "enable Nowhere\n"))
	assert.Equal(t, "unable to parse query: hello\n", roundTrip(t, addr, "hello\n"))
}

func TestServer_ReadsUntilEOF(t *testing.T) {
	sub := &recordingSubmitter{reply: "ok"}
	addr := startServer(t, sub)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, "  disable Park Street  ")
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
	assert.Equal(t, []string{"disable Park Street"}, sub.received())
}

func TestServer_MaxQueryLength(t *testing.T) {
	sub := &recordingSubmitter{reply: "ok"}
	addr := startServer(t, sub, WithMaxQueryLength(8))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, "from Airport to State\n")
	require.NoError(t, err)

	// the unread tail may turn the close into a reset, so only the
	// submitted text is checked
	_, _ = io.ReadAll(conn)
	assert.Equal(t, []string{"from Air"}, sub.received())
}

func TestServer_EmptyConnection(t *testing.T) {
	sub := &recordingSubmitter{reply: "ok"}
	addr := startServer(t, sub)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, sub.received())
	conn.Close()
}

func TestServer_ConcurrentClients(t *testing.T) {
	sub := &recordingSubmitter{reply: "ok"}
	addr := startServer(t, sub)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "ok\n", roundTrip(t, addr, "from A to B\n"))
		}()
	}
	wg.Wait()
	assert.Len(t, sub.received(), 20)
}

func TestServer_ShutdownUnblocksWaitingClients(t *testing.T) {
	// no worker: every Submit waits until the server context ends
	d := dispatch.New(subway.New())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(d).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, "from A to B\n")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	out, _ := io.ReadAll(conn)
	assert.False(t, strings.Contains(string(out), "no such station"))
}
