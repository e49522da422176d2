package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/dispatch"
	"github.com/vk/tquery/internal/linedata"
	"github.com/vk/tquery/internal/metrics"
	"github.com/vk/tquery/internal/subway"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "tquery"

// ErrNoLines is returned when none of the configured line files could be loaded.
var ErrNoLines = errors.New("no line data could be loaded")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	metrics    *metrics.Collector
	dispatcher *dispatch.Dispatcher
	lines      []string
}

// NewApp builds the subway graph from the configured line files and
// prepares, but does not start, the servers. Each App has its own logger
// and metrics registry.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	g := subway.New()
	lines, err := loadLines(ctx, g, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.NewCollector(metricsNamespace)
	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		metrics:    m,
		dispatcher: dispatch.New(g, dispatch.WithMetrics(m)),
		lines:      lines,
	}, nil
}

// Lines returns the names of the loaded lines.
func (a *App) Lines() []string {
	return a.lines
}

// Dispatcher returns the query dispatcher. This is primarily for testing.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

func loadLines(ctx context.Context, g *subway.Subway, cfg *Config) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading line data...", "paths", cfg.LinePaths, "named_lines", len(cfg.Lines))

	var loaded []string
	if len(cfg.LinePaths) > 0 {
		loaded = append(loaded, linedata.LoadFiles(ctx, g, cfg.LinePaths)...)
	}
	if len(cfg.Lines) > 0 {
		loaded = append(loaded, linedata.LoadSources(ctx, g, cfg.Lines)...)
	}

	if len(loaded) == 0 {
		return nil, ErrNoLines
	}
	return loaded, nil
}
