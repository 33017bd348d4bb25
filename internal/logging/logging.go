// Package logging builds the process-wide slog.Logger from configuration,
// in the text-or-JSON, optionally PID-tagged shape the rest of the proxy
// expects as its default.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls the shape of the process's structured logging.
type Config struct {
	Level            string
	Structured       bool
	StructuredFormat string // "json" or "text", only consulted when Structured is true
	IncludePID       bool
	ExtraFields      map[string]string
}

var levelNames = map[string]slog.Level{
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

func parseLevel(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Configure builds a logger from cfg, installs it as slog's default, and
// returns it for explicit injection into components that prefer not to
// rely on the package-level default.
func Configure(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Structured && strings.EqualFold(cfg.StructuredFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if attrs := staticAttrs(cfg); len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func staticAttrs(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(cfg.ExtraFields)+1)
	for k, v := range cfg.ExtraFields {
		attrs = append(attrs, slog.String(k, v))
	}
	if cfg.IncludePID {
		attrs = append(attrs, slog.Int("pid", os.Getpid()))
	}
	return attrs
}
