package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Levels accepted by --loglevel, in the order they are printed in usage text.
var Levels = []string{"debug", "info", "warning", "error", "critical"}

var levelsByName = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"critical": zerolog.FatalLevel,
}

// ParseLevel maps a --loglevel value to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, ok := levelsByName[name]
	if !ok {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q (valid: %s)", raw, strings.Join(Levels, ", "))
	}
	return level, nil
}

// New builds the process logger. Records go to w; the "local" environment gets
// human-readable lines, everything else JSON.
func New(w io.Writer, environment, level string) (zerolog.Logger, error) {
	parsedLevel, err := ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}

	writer := w
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		writer = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "smartlingzd").
		Logger()

	return logger, nil
}

// OpenFile opens the log file for appending, creating parent directories when needed.
func OpenFile(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if dir := filepath.Dir(trimmed); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// Critical logs at fatal severity without exiting the process.
func Critical(logger *zerolog.Logger) *zerolog.Event {
	return logger.WithLevel(zerolog.FatalLevel)
}
