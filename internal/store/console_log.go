package store

import (
	"log/slog"
	"time"
)

// consoleLog is a write-only LogStore that forwards entries to slog instead
// of retaining them. Useful for deployments that ship logs to an external
// aggregator and don't want the admin API's query log at all.
type consoleLog struct {
	logger *slog.Logger
}

// NewConsoleLog returns a LogStore that writes entries through logger and
// answers queries with nothing.
func NewConsoleLog(logger *slog.Logger) LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &consoleLog{logger: logger}
}

func (c *consoleLog) Append(e LogEntry) error {
	c.logger.Info("query log",
		"id", e.ID, "kind", e.Kind, "level", e.Level, "domain", e.Domain, "qtype", e.QType,
		"provider", e.Provider, "cached", e.Cached, "blocked", e.Blocked, "whitelisted", e.Whitelisted,
		"success", e.Success, "rcode", e.RCode, "attempt", e.Attempt, "latency_ms", e.LatencyMs,
		"message", e.Message)
	return nil
}

func (c *consoleLog) Query(LogFilter) ([]LogEntry, error) { return nil, nil }
func (c *consoleLog) Clear() error                        { return nil }
func (c *consoleLog) Cleanup(time.Duration) (int, error)  { return 0, nil }
func (c *consoleLog) Stats() (LogStats, error)            { return LogStats{}, nil }
func (c *consoleLog) Close() error                        { return nil }
