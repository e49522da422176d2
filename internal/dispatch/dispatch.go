// Package dispatch serializes every query against the shared subway graph.
//
// Any number of goroutines may call Submit. Parsing and station resolution
// happen on the caller's goroutine under a read lock; the parsed request is
// then handed over an unbuffered channel to the one goroutine running Run,
// which executes requests strictly one at a time in arrival order. Only
// enable and disable take the write lock.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/metrics"
	"github.com/vk/tquery/internal/query"
	"github.com/vk/tquery/internal/route"
	"github.com/vk/tquery/internal/subway"
)

// Done is the reply to a successful enable or disable.
const Done = "done"

// ErrAlreadyRunning is returned by Run when another worker is active.
var ErrAlreadyRunning = errors.New("dispatch: worker already running")

// PanicError reports a request whose execution panicked.
type PanicError struct {
	Value any
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("internal error while handling query: %v", e.Value)
}

type result struct {
	text string
	err  error
}

type request struct {
	ctx   context.Context
	line  string
	query query.Query
	err   error
	reply chan result
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records every request outcome in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher owns a subway graph and the worker that serves it.
type Dispatcher struct {
	mu       sync.RWMutex
	g        *subway.Subway
	requests chan request
	running  atomic.Bool
	metrics  *metrics.Collector

	between func(*subway.Subway, subway.StationID, subway.StationID) (string, error)
}

// New takes ownership of g. Callers must not touch g afterwards except
// through the Dispatcher.
func New(g *subway.Subway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		g:        g,
		requests: make(chan request),
		between:  route.Between,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recordGraphSize()
	return d
}

// Submit parses line and waits for the worker to answer it. The returned
// error is the query's own failure, such as an unknown station, and its
// message is what a client should see. Submit also returns ctx.Err() if ctx
// ends before the worker accepts or answers the request.
func (d *Dispatcher) Submit(ctx context.Context, line string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	d.mu.RLock()
	q, err := query.Parse(d.g, line)
	d.mu.RUnlock()

	req := request{
		ctx:   ctx,
		line:  line,
		query: q,
		err:   err,
		reply: make(chan result, 1),
	}

	select {
	case d.requests <- req:
	case <-ctx.Done():
		logger.Debug("Query abandoned before the worker took it.", "error", ctx.Err())
		return "", ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.text, res.err
	case <-ctx.Done():
		logger.Debug("Query abandoned while in progress.", "error", ctx.Err())
		return "", ctx.Err()
	}
}

// Text is what a client is sent for a Submit outcome.
func Text(reply string, err error) string {
	if err != nil {
		return err.Error()
	}
	return reply
}

// Run is the worker loop. It handles requests until ctx is cancelled and
// returns nil on a clean stop. Only one Run may be active at a time.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Query worker started.")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Query worker finished.")
			return nil
		case req := <-d.requests:
			d.handle(req)
		}
	}
}

// Stats is a snapshot of the graph for health reporting.
type Stats struct {
	Stations int      `json:"stations"`
	Disabled []string `json:"disabled"`
}

// Stats returns a consistent snapshot of the graph.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := d.g.DisabledStations()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, _ := d.g.Station(id)
		names = append(names, name)
	}
	return Stats{Stations: d.g.Size(), Disabled: names}
}

func (d *Dispatcher) handle(req request) {
	start := time.Now()
	logger := ctxlog.FromContext(req.ctx)

	kind := ""
	if req.query != nil {
		kind = req.query.Kind()
	}

	res := d.execute(req)
	req.reply <- res

	status := metrics.StatusOK
	var perr *PanicError
	switch {
	case errors.As(res.err, &perr):
		status = metrics.StatusPanic
		logger.Error("Query panicked.", "query", req.line, "panic", perr.Value)
	case res.err != nil:
		status = metrics.StatusError
		logger.Debug("Query failed.", "query", req.line, "error", res.err)
	}

	elapsed := time.Since(start)
	logger.Debug("Query handled.", "kind", kind, "status", status, "duration", elapsed)
	if d.metrics != nil {
		d.metrics.ObserveQuery(kind, status, elapsed)
	}
}

func (d *Dispatcher) execute(req request) (res result) {
	defer func() {
		if r := recover(); r != nil {
			res = result{err: &PanicError{Value: r}}
		}
	}()

	if req.err != nil {
		return result{err: req.err}
	}

	switch q := req.query.(type) {
	case query.Route:
		d.mu.RLock()
		defer d.mu.RUnlock()
		text, err := d.between(d.g, q.From, q.To)
		return result{text: text, err: err}
	case query.Disable:
		d.mutate(func(g *subway.Subway) { g.DisableStation(q.Station) })
		return result{text: Done}
	case query.Enable:
		d.mutate(func(g *subway.Subway) { g.EnableStation(q.Station) })
		return result{text: Done}
	default:
		return result{err: fmt.Errorf("unsupported query type %T", req.query)}
	}
}

func (d *Dispatcher) mutate(fn func(*subway.Subway)) {
	func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		fn(d.g)
	}()
	d.recordGraphSize()
}

func (d *Dispatcher) recordGraphSize() {
	if d.metrics == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.metrics.SetGraphSize(d.g.Size(), len(d.g.DisabledStations()))
}
