package store

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Drivers bundles the three storage capabilities the resolver pipeline and
// admin API depend on. An Engine atomically swaps one Drivers value for
// another when the operator changes storage configuration at runtime.
type Drivers struct {
	Cache CacheStore
	List  DomainList
	Log   LogStore
}

// Close closes every driver in the bundle, collecting the first error.
func (d Drivers) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{d.Cache, d.List, d.Log} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Options configures driver construction. DB is only required when a sql
// driver is selected for any scope.
type Options struct {
	CacheDriver string // "memory", "file", "sql"
	ListDriver  string
	LogDriver   string // "memory", "sql", "console"; there is no file log driver
	FileDir     string
	DB          *sql.DB
	Logger      *slog.Logger
}

// Build constructs a Drivers bundle from the requested driver names. It is
// the single place the resolver/API/engine packages go to turn config
// strings into live storage.
func Build(opts Options) (Drivers, error) {
	cacheStore, err := buildCache(opts)
	if err != nil {
		return Drivers{}, fmt.Errorf("build cache driver: %w", err)
	}
	listStore, err := buildList(opts)
	if err != nil {
		return Drivers{}, fmt.Errorf("build list driver: %w", err)
	}
	logStore, err := buildLog(opts)
	if err != nil {
		return Drivers{}, fmt.Errorf("build log driver: %w", err)
	}
	return Drivers{Cache: cacheStore, List: listStore, Log: logStore}, nil
}

func buildCache(opts Options) (CacheStore, error) {
	switch opts.CacheDriver {
	case "", "memory":
		return NewMemoryCache(), nil
	case "file":
		return NewFileCache(opts.FileDir + "/cache.json")
	case "sql":
		if opts.DB == nil {
			return nil, fmt.Errorf("sql cache driver requires a database connection")
		}
		return NewSQLCache(opts.DB), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.CacheDriver)
	}
}

func buildList(opts Options) (DomainList, error) {
	switch opts.ListDriver {
	case "", "memory":
		return NewMemoryList(), nil
	case "file":
		return NewFileList(opts.FileDir + "/lists.json")
	case "sql":
		if opts.DB == nil {
			return nil, fmt.Errorf("sql list driver requires a database connection")
		}
		return NewSQLList(opts.DB), nil
	default:
		return nil, fmt.Errorf("unknown list driver %q", opts.ListDriver)
	}
}

func buildLog(opts Options) (LogStore, error) {
	switch opts.LogDriver {
	case "", "memory":
		return NewMemoryLog(10000), nil
	case "console":
		return NewConsoleLog(opts.Logger), nil
	case "sql":
		if opts.DB == nil {
			return nil, fmt.Errorf("sql log driver requires a database connection")
		}
		return NewSQLLog(opts.DB), nil
	default:
		return nil, fmt.Errorf("unknown log driver %q", opts.LogDriver)
	}
}
