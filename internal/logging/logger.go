package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the log output format, level and optional file target.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string

	// FileDir, when set, additionally writes JSON logs to a rotated
	// voidtab.log in that directory.
	FileDir string
}

// DefaultConfig returns console output at info level.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New builds the zerolog logger for the given configuration.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stderr

	switch cfg.Format {
	case "console":
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: cfg.TimeFormat,
		}
	case "json":
		// JSON is the default zerolog format
		output = os.Stderr
	}

	if cfg.FileDir != "" {
		// File logging is best effort; a failed open falls back to the
		// terminal writer alone.
		if rotator, err := NewRotator(cfg.FileDir, 10, 5, 30); err == nil {
			output = zerolog.MultiLevelWriter(output, rotator)
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewFromEnv builds a logger from VOIDTAB_LOG_LEVEL (trace, debug, info,
// warn, error) and VOIDTAB_LOG_FORMAT (json, console).
func NewFromEnv() zerolog.Logger {
	cfg := DefaultConfig()

	if level := os.Getenv("VOIDTAB_LOG_LEVEL"); level != "" {
		cfg.Level = ParseLevel(level)
	}

	if format := os.Getenv("VOIDTAB_LOG_FORMAT"); format != "" {
		switch format {
		case "json", "console":
			cfg.Format = format
		}
	}

	return New(cfg)
}
