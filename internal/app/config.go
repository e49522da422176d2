package app

import (
	"errors"
	"fmt"

	"github.com/vk/tquery/internal/linedata"
)

// Defaults used when neither a flag nor the config file sets a value.
const (
	DefaultListen         = "127.0.0.1:12345"
	DefaultMaxQueryLength = 1024
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// LinePaths are line files or directories of line files; each line is
	// named after its file.
	LinePaths []string
	// Lines are explicitly named line files.
	Lines []linedata.Source

	Listen         string
	MaxQueryLength int
	HTTPPort       int // 0 disables the HTTP side
	StaticDir      string

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.LinePaths) == 0 && len(cfg.Lines) == 0 {
		return nil, errors.New("at least one line file is required")
	}
	if cfg.Listen == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	if cfg.MaxQueryLength <= 0 {
		return nil, fmt.Errorf("max query length must be positive, got %d", cfg.MaxQueryLength)
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("http port out of range: %d", cfg.HTTPPort)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return &cfg, nil
}
