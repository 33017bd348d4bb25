// Package store defines the pluggable persistence drivers behind the
// resolver pipeline: the answer cache, the domain lists, and the query
// log. Each concern is its own capability interface so a deployment can
// mix an in-memory cache with a SQL-backed domain list, for example,
// without the resolver caring which combination is active.
package store

import "time"

// CachedAnswer is the persisted form of a cache.Entry, decoupled from the
// cache package so a SQL or file driver doesn't need to import it.
type CachedAnswer struct {
	Fingerprint    string
	Packet         []byte
	EntryType      string
	Provider       string
	InsertedAt     time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int64
}

// CacheStore persists cache entries across restarts, or backs the cache
// entirely for deployments that want a shared cache across processes.
type CacheStore interface {
	Get(fingerprint string) (CachedAnswer, bool, error)
	Set(answer CachedAnswer) error
	Delete(fingerprint string) (bool, error)
	Clear() error
	Keys() ([]string, error)
	Size() (int, error)
	EvictExpired(now time.Time) (int, error)
	Close() error
}

// ListEntry is the persisted form of a domain list membership (whitelist or
// blacklist), independent of the in-memory trie representation.
type ListEntry struct {
	Domain   string
	List     string
	Source   string
	Reason   string
	AddedAt  time.Time
	Wildcard bool
}

// DomainList persists whitelist/blacklist membership.
type DomainList interface {
	Contains(list, domain string) (bool, error)
	Add(entry ListEntry) error
	Remove(list, domain string) (bool, error)
	List(list string) ([]ListEntry, error)
	Import(entries []ListEntry) (int, error)
	Export() ([]ListEntry, error)
	Clear(list string) error
	Close() error
}

// LogEntry is a single recorded event in the resolver pipeline, one of
// four kinds sharing a request ID distinct from the 16-bit DNS
// transaction ID: a just-parsed "request", a completed "response", an
// "error" (malformed input or total upstream failure), or a "server_event"
// lifecycle notice. Not every field applies to every kind: a request
// entry carries no RCode or Resolved, an error entry carries no Provider.
type LogEntry struct {
	ID           string
	Timestamp    time.Time
	Kind         string // "request", "response", "error", "server_event"
	Level        string // "info", "warn", "error"
	ClientAddr   string
	Transport    string // "udp", "doh"
	Domain       string
	QType        string
	Provider     string
	Cached       bool
	Blocked      bool
	Whitelisted  bool
	Success      bool
	RCode        string
	Resolved     []string
	ResponseSize int
	Attempt      int
	LatencyMs    int64
	Message      string
}

// LogFilter narrows a log query. Zero values are wildcards, except
// Success, which is a wildcard only when nil.
type LogFilter struct {
	Kind      string
	Level     string
	Domain    string
	Provider  string
	Success   *bool
	RequestID string
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// LogStats summarizes the log store's contents for the admin surface.
type LogStats struct {
	TotalEntries   int64
	OldestEntry    time.Time
	NewestEntry    time.Time
}

// LogStore records and queries the query log.
type LogStore interface {
	Append(entry LogEntry) error
	Query(filter LogFilter) ([]LogEntry, error)
	Clear() error
	Cleanup(olderThan time.Duration) (int, error)
	Stats() (LogStats, error)
	Close() error
}

// Scope identifies which capability a driver fulfills (cache, list, or
// log); several drivers share a storage backend (e.g. sqlite).
type Scope string

const (
	ScopeCache Scope = "cache"
	ScopeList  Scope = "list"
	ScopeLog   Scope = "log"
)
