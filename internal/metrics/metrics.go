// Package metrics exposes the query server's Prometheus metrics. Every
// Collector owns a private registry so several servers, or tests, can live in
// one process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusPanic = "panic"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Connections   *prometheus.CounterVec

	Stations         prometheus.Gauge
	DisabledStations prometheus.Gauge
}

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	queries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries handled by the worker",
		},
		[]string{"kind", "status"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time the worker spent on a query in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	connections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of client connections accepted",
		},
		[]string{"transport"},
	)

	stations := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations",
			Help:      "Number of stations in the graph",
		},
	)

	disabled := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disabled_stations",
			Help:      "Number of stations currently out of service",
		},
	)

	registry.MustRegister(
		queries,
		queryDuration,
		connections,
		stations,
		disabled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:         registry,
		Queries:          queries,
		QueryDuration:    queryDuration,
		Connections:      connections,
		Stations:         stations,
		DisabledStations: disabled,
	}
}

// ObserveQuery records the outcome and duration of one query. kind is empty
// for lines that never parsed.
func (c *Collector) ObserveQuery(kind, status string, d time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	c.Queries.WithLabelValues(kind, status).Inc()
	c.QueryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ConnectionAccepted counts a new client on the given transport.
func (c *Collector) ConnectionAccepted(transport string) {
	c.Connections.WithLabelValues(transport).Inc()
}

// SetGraphSize records the station count and how many are disabled.
func (c *Collector) SetGraphSize(stations, disabled int) {
	c.Stations.Set(float64(stations))
	c.DisabledStations.Set(float64(disabled))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// GetRegistry returns the Prometheus registry for this collector.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
