// Package engine owns the server's lifecycle: building the resolver
// pipeline from configuration, starting and stopping the network
// listeners, and swapping storage drivers or resolver configuration
// while the server keeps serving queries.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"dnsproxy/internal/cache"
	"dnsproxy/internal/config"
	"dnsproxy/internal/database"
	"dnsproxy/internal/eventbus"
	"dnsproxy/internal/filtering"
	"dnsproxy/internal/listener"
	"dnsproxy/internal/providers"
	"dnsproxy/internal/resolver"
	"dnsproxy/internal/store"
)

const cacheSize = 10000

// Engine is the single owner of the server's runtime state. All mutating
// methods are safe for concurrent use; callers observe State() to learn
// the current lifecycle position.
type Engine struct {
	mu     sync.Mutex
	state  State
	logger *slog.Logger

	cfg config.Config
	db  *sql.DB

	drivers  store.Drivers
	cache    *cache.Cache
	events   *eventbus.Bus
	resolver *resolver.Resolver

	udp        *listener.UDPListener
	dohServer  *http.Server
	cancelRun  context.CancelFunc
	runDone    chan struct{}
}

// New creates an Engine in the Stopped state. Call Start to bring it up.
func New(cfg config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		state:  Stopped,
		cfg:    cfg,
		logger: logger,
		events: eventbus.New(256),
	}
}

// State reports the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Events exposes the event bus so the admin API can subscribe to query
// and lifecycle notifications.
func (e *Engine) Events() *eventbus.Bus {
	return e.events
}

// Policy returns the active filtering policy engine, or nil if the
// engine hasn't been started.
func (e *Engine) Policy() *filtering.PolicyEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolver == nil {
		return nil
	}
	return e.resolver.Policy
}

// Cache returns the active answer cache, or nil if the engine hasn't
// been started.
func (e *Engine) Cache() *cache.Cache {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache
}

// Drivers returns the active storage driver bundle.
func (e *Engine) Drivers() store.Drivers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drivers
}

// Config returns the configuration snapshot the engine was last built or
// updated with.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) transition(to State) error {
	if !canTransition(e.state, to) {
		return IllegalState{From: e.state, To: to}
	}
	e.state = to
	return nil
}

// Start builds the resolver pipeline from the engine's configuration and
// opens the network listeners. It is a no-op error, IllegalState, if the
// engine isn't Stopped.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if err := e.transition(Starting); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	if err := e.buildPipeline(); err != nil {
		e.mu.Lock()
		e.state = Stopped
		e.mu.Unlock()
		return fmt.Errorf("build pipeline: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancelRun = cancel
	e.runDone = make(chan struct{})
	if err := e.transition(Running); err != nil {
		e.mu.Unlock()
		cancel()
		return err
	}
	e.mu.Unlock()

	e.runListeners(runCtx)
	e.events.Publish(eventbus.Event{Kind: "engine.started"})
	e.logger.Info("engine started", "addr", e.cfg.Server.Host, "port", e.cfg.Server.Port)
	return nil
}

// Stop tears down the listeners and releases storage drivers.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if err := e.transition(Stopping); err != nil {
		e.mu.Unlock()
		return err
	}
	cancel := e.cancelRun
	done := e.runDone
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if e.udp != nil {
		e.udp.Close()
	}
	if e.dohServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = e.dohServer.Shutdown(shutdownCtx)
		cancel()
	}
	if done != nil {
		<-done
	}

	e.mu.Lock()
	if e.drivers.Cache != nil || e.drivers.List != nil || e.drivers.Log != nil {
		_ = e.drivers.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
		e.db = nil
	}
	err := e.transition(Stopped)
	e.mu.Unlock()

	e.events.Publish(eventbus.Event{Kind: "engine.stopped"})
	e.logger.Info("engine stopped")
	return err
}

// Toggle starts a stopped engine or stops a running one.
func (e *Engine) Toggle(ctx context.Context) error {
	switch e.State() {
	case Stopped:
		return e.Start(ctx)
	case Running:
		return e.Stop()
	default:
		return IllegalState{From: e.State(), To: Running}
	}
}

// UpdateDrivers atomically swaps the storage driver bundle the resolver
// pipeline uses, closing the previous one once the resolver no longer
// references it.
func (e *Engine) UpdateDrivers(opts store.Options) error {
	opts.Logger = e.logger

	needsSQL := opts.CacheDriver == "sql" || opts.ListDriver == "sql" || opts.LogDriver == "sql"
	e.mu.Lock()
	if needsSQL && e.db == nil {
		db, err := database.Open(e.cfg.Storage.SQLitePath, e.logger)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("open database: %w", err)
		}
		e.db = db
	}
	opts.DB = e.db
	e.mu.Unlock()

	newDrivers, err := store.Build(opts)
	if err != nil {
		return fmt.Errorf("build drivers: %w", err)
	}

	e.mu.Lock()
	old := e.drivers
	e.drivers = newDrivers
	if e.resolver != nil {
		e.resolver.Log = newDrivers.Log
	}
	e.mu.Unlock()

	if old.Cache != nil || old.List != nil || old.Log != nil {
		_ = old.Close()
	}
	e.events.Publish(eventbus.Event{Kind: "drivers.updated"})
	return nil
}

// UpdateResolverConfig rebuilds the filtering policy engine and block
// response settings from a new configuration snapshot without
// restarting the listeners.
func (e *Engine) UpdateResolverConfig(cfg config.Config) error {
	fc := filteringConfigFrom(cfg.Filtering)
	policy := filtering.NewPolicyEngine(fc.ToPolicyEngineConfig())

	mainPool, primaryPool, secondaryPool, err := buildProviderPool(cfg.Upstream)
	if err != nil {
		return fmt.Errorf("build provider pool: %w", err)
	}

	e.mu.Lock()
	e.cfg = cfg
	if e.resolver != nil {
		e.resolver.Policy = policy
		e.resolver.WhitelistMode = cfg.Filtering.WhitelistMode
		e.resolver.Block = blockPolicyFrom(cfg.Filtering)
		e.resolver.Providers = mainPool
		e.resolver.PrimaryProviders = primaryPool
		e.resolver.SecondaryProviders = secondaryPool
	}
	e.mu.Unlock()

	e.events.Publish(eventbus.Event{Kind: "config.updated"})
	return nil
}

func (e *Engine) buildPipeline() error {
	cfg := e.cfg

	var db *sql.DB
	if usesSQL(cfg.Storage) {
		opened, err := database.Open(cfg.Storage.SQLitePath, e.logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db = opened
	}

	drivers, err := store.Build(store.Options{
		CacheDriver: cfg.Storage.CacheDriver,
		ListDriver:  cfg.Storage.ListDriver,
		LogDriver:   cfg.Storage.LogDriver,
		FileDir:     cfg.Storage.DataDir,
		DB:          db,
		Logger:      e.logger,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("build storage drivers: %w", err)
	}

	mainPool, primaryPool, secondaryPool, err := buildProviderPool(cfg.Upstream)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("build provider pool: %w", err)
	}

	fc := filteringConfigFrom(cfg.Filtering)
	policy := filtering.NewPolicyEngine(fc.ToPolicyEngineConfig())

	e.mu.Lock()
	e.db = db
	e.drivers = drivers
	e.cache = cache.New(cacheSize)
	e.resolver = &resolver.Resolver{
		Cache:              e.cache,
		Policy:             policy,
		Providers:          mainPool,
		PrimaryProviders:   primaryPool,
		SecondaryProviders: secondaryPool,
		Log:                drivers.Log,
		Events:             e.events,
		WhitelistMode:      cfg.Filtering.WhitelistMode,
		Block:              blockPolicyFrom(cfg.Filtering),
		Logger:             e.logger,
	}
	e.mu.Unlock()
	return nil
}

func (e *Engine) runListeners(ctx context.Context) {
	handler := func(qctx context.Context, query []byte, clientAddr string) []byte {
		return e.resolver.Resolve(qctx, query, resolver.RequestMeta{ClientAddr: clientAddr})
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port)
	e.udp = listener.NewUDPListener(addr, handler, e.logger)
	go func() {
		if err := e.udp.Run(ctx); err != nil {
			e.logger.Error("udp listener stopped", "error", err)
		}
	}()

	if e.cfg.DoH.Enabled {
		dohHandler := listener.NewDoHHandler(func(qctx context.Context, query []byte, clientAddr string) []byte {
			return e.resolver.Resolve(qctx, query, resolver.RequestMeta{ClientAddr: clientAddr, Transport: "doh"})
		}, e.logger)
		mux := http.NewServeMux()
		mux.Handle(e.cfg.DoH.Path, dohHandler)
		e.dohServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port+1),
			Handler: mux,
		}
		go func() {
			if err := e.dohServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				e.logger.Error("doh listener stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		close(e.runDone)
	}()
}

func usesSQL(s config.StorageConfig) bool {
	return s.CacheDriver == "sql" || s.ListDriver == "sql" || s.LogDriver == "sql"
}

// buildProviderPool constructs the provider pools the resolver dispatches
// to. main fans out across the full configured provider list and is used
// whenever whitelist mode is off. primary and secondary are only built
// when SecondaryDNS is configured: primary wraps the NextDNS provider
// alone (the upstream for whitelisted names in whitelist mode), and
// secondary wraps the single named SecondaryDNS provider (the upstream
// for everything else in whitelist mode).
func buildProviderPool(cfg config.UpstreamConfig) (main, primary, secondary *providers.Pool, err error) {
	names := cfg.Providers
	if len(names) == 0 {
		names = []string{"system"}
	}

	timeout := 3 * time.Second
	if cfg.UDPTimeout != "" {
		if d, err := time.ParseDuration(cfg.UDPTimeout); err == nil {
			timeout = d
		}
	}

	systemAddr := "127.0.0.1:53"
	if len(cfg.Servers) > 0 {
		systemAddr = cfg.Servers[0]
	}

	var built []providers.Provider
	var nextDNS providers.Provider
	for _, name := range names {
		normalized := strings.ToLower(strings.TrimSpace(name))
		p, perr := providers.New(providers.Config{
			Name:            normalized,
			NextDNSConfigID: cfg.NextDNSConfigID,
			SystemAddr:      systemAddr,
			Timeout:         timeout,
		})
		if perr != nil {
			return nil, nil, nil, perr
		}
		built = append(built, p)
		if normalized == "nextdns" {
			nextDNS = p
		}
	}
	main = providers.NewPool(built)

	if cfg.SecondaryDNS == "" {
		return main, nil, nil, nil
	}

	if nextDNS == nil {
		nextDNS, err = providers.New(providers.Config{Name: "nextdns", NextDNSConfigID: cfg.NextDNSConfigID, Timeout: timeout})
		if err != nil {
			return nil, nil, nil, err
		}
	}
	secondaryProvider, err := providers.New(providers.Config{Name: cfg.SecondaryDNS, Timeout: timeout})
	if err != nil {
		return nil, nil, nil, err
	}

	primary = providers.NewPool([]providers.Provider{nextDNS})
	secondary = providers.NewPool([]providers.Provider{secondaryProvider})
	return main, primary, secondary, nil
}

func filteringConfigFrom(fc config.FilteringConfig) filtering.Config {
	out := filtering.DefaultConfig()
	out.Enabled = fc.Enabled
	out.Logging.LogBlocked = fc.LogBlocked
	out.Logging.LogAllowed = fc.LogAllowed
	out.Whitelist.Domains = fc.WhitelistDomains
	out.Blacklist.Domains = fc.BlacklistDomains
	for _, bl := range fc.Blocklists {
		out.Blacklist.Sources = append(out.Blacklist.Sources, filtering.SourceConfig{
			Name:   bl.Name,
			URL:    bl.URL,
			Format: bl.Format,
		})
	}
	if fc.RefreshInterval != "" {
		if d, err := time.ParseDuration(fc.RefreshInterval); err == nil {
			out.Refresh.Enabled = true
			out.Refresh.Interval = d
		}
	}
	return out
}

func blockPolicyFrom(fc config.FilteringConfig) resolver.BlockPolicy {
	return resolver.BlockPolicy{
		Type: fc.BlockResponse.Type,
		IPv4: fc.BlockResponse.IPv4,
		IPv6: fc.BlockResponse.IPv6,
	}
}
