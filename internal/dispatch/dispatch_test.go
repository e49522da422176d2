package dispatch

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tquery/internal/metrics"
	"github.com/vk/tquery/internal/query"
	"github.com/vk/tquery/internal/route"
	"github.com/vk/tquery/internal/subway"
)

// newTestGraph builds A-B-C on red and B-D on blue.
func newTestGraph() *subway.Subway {
	g := subway.New()
	a := g.AddStation("A")
	b := g.AddStation("B")
	c := g.AddStation("C")
	d := g.AddStation("D")
	for _, e := range []struct {
		from, to subway.StationID
		line     string
	}{
		{a, b, "red"}, {b, c, "red"}, {b, d, "blue"},
	} {
		g.AddConnection(e.from, e.to, e.line, e.line)
		g.AddConnection(e.to, e.from, e.line, e.line)
	}
	return g
}

// startWorker runs the dispatcher until the test ends.
func startWorker(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestSubmit_Route(t *testing.T) {
	d := New(newTestGraph())
	startWorker(t, d)

	out, err := d.Submit(context.Background(), "from A to C")
	require.NoError(t, err)
	assert.Equal(t, "take red\n  A\n  B\n  C\n", out)
}

func TestSubmit_ErrorsAreEchoed(t *testing.T) {
	g := newTestGraph()
	g.AddStation("Island")
	d := New(g)
	startWorker(t, d)

	testCases := []struct {
		line   string
		target any
		text   string
	}{
		{line: "how do I get home", target: new(*query.UnparseableError), text: "unable to parse query: how do I get home"},
		{line: "from A to Z", target: new(*subway.StationNotFoundError), text: "no such station: Z"},
		{line: "from A to Island", target: new(*route.NoPathError), text: "no path from A to Island"},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			out, err := d.Submit(context.Background(), tc.line)
			require.ErrorAs(t, err, tc.target)
			assert.Empty(t, out)
			assert.Equal(t, tc.text, Text(out, err))
		})
	}
}

func TestSubmit_DisableEnable(t *testing.T) {
	d := New(newTestGraph())
	startWorker(t, d)
	ctx := context.Background()

	out, err := d.Submit(ctx, "disable D")
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.Equal(t, []string{"D"}, d.Stats().Disabled)

	// a disabled station is penalized, not removed
	out, err = d.Submit(ctx, "from A to D")
	require.NoError(t, err)
	assert.Contains(t, out, "D")

	out, err = d.Submit(ctx, "enable D")
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.Empty(t, d.Stats().Disabled)
	assert.Equal(t, 4, d.Stats().Stations)
}

func TestStats_DisabledHubOnly(t *testing.T) {
	d := New(newTestGraph())
	startWorker(t, d)

	_, err := d.Submit(context.Background(), "disable B")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, d.Stats().Disabled)
}

func TestSubmit_Concurrent(t *testing.T) {
	d := New(newTestGraph())
	startWorker(t, d)

	lines := []string{"from A to C", "disable B", "from C to D", "enable B", "from D to A"}

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(line string) {
			defer wg.Done()
			out, err := d.Submit(context.Background(), line)
			if err != nil {
				errs <- err
				return
			}
			if out == "" {
				errs <- fmt.Errorf("empty reply for %q", line)
			}
		}(lines[i%len(lines)])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestSubmit_ContextCancelledWithoutWorker(t *testing.T) {
	d := New(newTestGraph())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Submit(ctx, "from A to C")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_SingleWorker(t *testing.T) {
	d := New(newTestGraph())
	startWorker(t, d)

	require.Eventually(t, func() bool { return d.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, d.Run(context.Background()), ErrAlreadyRunning)
}

func TestRun_RecoversPanic(t *testing.T) {
	d := New(newTestGraph())
	d.between = func(*subway.Subway, subway.StationID, subway.StationID) (string, error) {
		panic("boom")
	}
	startWorker(t, d)

	_, err := d.Submit(context.Background(), "from A to C")
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Value)

	// the worker survives and the read lock was released
	out, err := d.Submit(context.Background(), "disable A")
	require.NoError(t, err)
	assert.Equal(t, Done, out)
}

func TestDispatcher_Metrics(t *testing.T) {
	m := metrics.NewCollector("tquery")
	d := New(newTestGraph(), WithMetrics(m))
	startWorker(t, d)
	ctx := context.Background()

	_, err := d.Submit(ctx, "from A to C")
	require.NoError(t, err)
	_, err = d.Submit(ctx, "gibberish")
	require.Error(t, err)
	// B is the hub: every neighbor loses its only connection
	_, err = d.Submit(ctx, "disable B")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `tquery_queries_total{kind="route",status="ok"} 1`)
	assert.Contains(t, body, `tquery_queries_total{kind="unknown",status="error"} 1`)
	assert.Contains(t, body, `tquery_queries_total{kind="disable",status="ok"} 1`)
	assert.Contains(t, body, "tquery_stations 4")
	assert.Contains(t, body, "tquery_disabled_stations 1")
}
