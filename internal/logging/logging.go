// ABOUTME: Default slog logger setup shared by the binaries
// ABOUTME: Text to stdout, or JSON to a log file, at a named level
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Levels lists the accepted level names
var Levels = []string{"none", "error", "warn", "info", "debug"}

// ParseLevel maps a level name to a slog level. "none" reports ok=false
// with a nil error.
func ParseLevel(name string) (level slog.Level, ok bool, err error) {
	switch strings.ToLower(name) {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	default:
		return 0, false, fmt.Errorf("unexpected log level %q, want one of %s", name, strings.Join(Levels, ", "))
	}
}

// ConfigureDefaultLogger installs the default slog logger.
//
// Level "none" discards everything. With an empty logFile records go to
// stdout as text; otherwise the file is truncated and records are written
// as JSON. The returned file, when not nil, should be closed on exit:
//
//	f, err := logging.ConfigureDefaultLogger("info", "", slog.HandlerOptions{})
//	if f != nil {
//		defer f.Close()
//	}
func ConfigureDefaultLogger(logLevel string, logFile string, loggerOptions slog.HandlerOptions) (*os.File, error) {
	level, enabled, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if !enabled {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	}
	loggerOptions.Level = level

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &loggerOptions)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &loggerOptions)))
	return f, nil
}
