package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tquery/internal/app"
	"github.com/vk/tquery/internal/config"
	"github.com/vk/tquery/internal/linedata"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Values from the -config file apply unless the same flag is given.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tquery", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
tquery - answers "how do I get from A to B" over a subway network.

Usage:
  tquery [options] LINE_FILE...

Arguments:
  LINE_FILE
    A line listing file, or a directory of .txt line files. Each line is
    named after its file.

Queries, one per connection:
  from STATION to STATION
  disable STATION
  enable STATION

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL configuration file.")
	listenFlag := flagSet.String("listen", app.DefaultListen, "Address of the TCP query server.")
	httpPortFlag := flagSet.Int("http-port", 0, "Port for the HTTP server (health, metrics, queries, Socket.IO). 0 is disabled.")
	staticDirFlag := flagSet.String("static-dir", "", "Directory served as static files by the HTTP server.")
	maxQueryFlag := flagSet.Int("max-query-length", app.DefaultMaxQueryLength, "Maximum bytes read for one query.")
	logFormatFlag := flagSet.String("log-format", app.DefaultLogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", app.DefaultLogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := app.Config{
		LinePaths:      flagSet.Args(),
		Listen:         *listenFlag,
		MaxQueryLength: *maxQueryFlag,
		HTTPPort:       *httpPortFlag,
		StaticDir:      *staticDirFlag,
		LogFormat:      strings.ToLower(*logFormatFlag),
		LogLevel:       strings.ToLower(*logLevelFlag),
	}

	if *configFlag != "" {
		model, err := config.Load(context.Background(), *configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		applyModel(&cfg, model, set)
		slog.Debug("Configuration file applied.", "path", *configFlag)
	}

	if len(cfg.LinePaths) == 0 && len(cfg.Lines) == 0 {
		slog.Debug("No line files provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "no line files given"}
	}

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", appConfig)
	return appConfig, false, nil
}

// applyModel copies file values into cfg for every flag that was not set.
func applyModel(cfg *app.Config, m *config.Model, set map[string]bool) {
	setString := func(flagName string, dst *string, v *string) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}
	setInt := func(flagName string, dst *int, v *int) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}

	setString("listen", &cfg.Listen, m.Listen)
	setInt("max-query-length", &cfg.MaxQueryLength, m.MaxQueryLength)
	setInt("http-port", &cfg.HTTPPort, m.HTTPPort)
	setString("static-dir", &cfg.StaticDir, m.StaticDir)
	setString("log-level", &cfg.LogLevel, m.LogLevel)
	setString("log-format", &cfg.LogFormat, m.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	for _, l := range m.Lines {
		cfg.Lines = append(cfg.Lines, linedata.Source{Name: l.Name, Path: l.File})
	}
}
