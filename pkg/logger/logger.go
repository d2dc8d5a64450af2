// Package logger builds the application slog.Logger from configuration.
//
// All handlers write to stderr so stdout stays clean for the MCP stdio
// transport. An optional file sink receives JSON lines in addition to the
// primary handler.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"

	"github.com/engramkit/engram/pkg/config"
)

// New builds a logger from config. The returned closer is non-nil when a log
// file sink is attached and must be closed on shutdown.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level})
	}

	var closer io.Closer
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		handler = slogmulti.Fanout(
			handler,
			slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
		)
		closer = file
	}

	return slog.New(handler), closer, nil
}

// ParseLevel maps a configuration string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}
