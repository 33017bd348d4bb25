package filtering

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the on-disk filtering configuration: whitelist/blacklist
// sources, how a block is answered, and whether remote lists refresh
// themselves.
type Config struct {
	Enabled bool `yaml:"enabled"`

	Whitelist ListConfig `yaml:"whitelist"`
	Blacklist ListConfig `yaml:"blacklist"`

	BlockResponse BlockResponseConfig `yaml:"block_response"`
	Logging       FilterLoggingConfig `yaml:"logging"`
	Refresh       RefreshConfig       `yaml:"refresh"`
}

// ListConfig is a set of statically configured domains plus remote
// sources to fetch and merge in.
type ListConfig struct {
	Domains []string       `yaml:"domains"`
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig names one remote blocklist.
type SourceConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"` // auto, domains, hosts, or adblock
}

// BlockResponseConfig controls how a blocked query is answered.
type BlockResponseConfig struct {
	Type string `yaml:"type"` // nxdomain, nodata, or address
	IPv4 string `yaml:"ipv4"` // used by the "address" type for A queries
	IPv6 string `yaml:"ipv6"` // used by the "address" type for AAAA queries
}

// FilterLoggingConfig toggles per-outcome logging of filtering decisions.
type FilterLoggingConfig struct {
	LogBlocked bool `yaml:"log_blocked"`
	LogAllowed bool `yaml:"log_allowed"`
}

// RefreshConfig controls periodic re-fetching of remote blocklists.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig returns filtering turned off, so a fresh install
// forwards every query unfiltered until the operator opts in.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		BlockResponse: BlockResponseConfig{
			Type: "nxdomain",
			IPv4: "0.0.0.0",
			IPv6: "::",
		},
		Logging: FilterLoggingConfig{LogBlocked: true},
		Refresh: RefreshConfig{Enabled: true, Interval: 24 * time.Hour},
	}
}

var validBlockResponseTypes = map[string]bool{"": true, "nxdomain": true, "nodata": true, "address": true}
var validSourceFormats = map[string]bool{"": true, "auto": true, "domains": true, "hosts": true, "adblock": true}

func (c *Config) Validate() error {
	if !validBlockResponseTypes[c.BlockResponse.Type] {
		return fmt.Errorf("invalid block_response.type: %q (must be nxdomain, nodata, or address)", c.BlockResponse.Type)
	}

	for i, source := range c.Whitelist.Sources {
		if err := source.Validate(); err != nil {
			return fmt.Errorf("whitelist.sources[%d]: %w", i, err)
		}
	}
	for i, source := range c.Blacklist.Sources {
		if err := source.Validate(); err != nil {
			return fmt.Errorf("blacklist.sources[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *SourceConfig) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !validSourceFormats[strings.ToLower(s.Format)] {
		return fmt.Errorf("invalid format: %q (must be auto, domains, hosts, or adblock)", s.Format)
	}
	return nil
}

func (s *SourceConfig) ToListFormat() ListFormat {
	switch strings.ToLower(s.Format) {
	case "domains":
		return FormatDomains
	case "hosts":
		return FormatHosts
	case "adblock":
		return FormatAdblock
	default:
		return FormatAuto
	}
}

// ToPolicyEngineConfig translates the on-disk shape into the
// PolicyEngineConfig a PolicyEngine is actually constructed from.
// Whitelist sources are read by the engine as static domains only —
// remote whitelist fetching isn't supported, matching the upstream
// routing model where whitelist membership only ever needs a fast,
// locally-held set.
func (c *Config) ToPolicyEngineConfig() PolicyEngineConfig {
	cfg := PolicyEngineConfig{
		Enabled:          c.Enabled,
		BlockAction:      ActionBlock,
		LogBlocked:       c.Logging.LogBlocked,
		LogAllowed:       c.Logging.LogAllowed,
		WhitelistDomains: c.Whitelist.Domains,
		BlacklistDomains: c.Blacklist.Domains,
		BlocklistURLs:    make([]BlocklistURL, 0, len(c.Blacklist.Sources)),
	}

	for _, source := range c.Blacklist.Sources {
		cfg.BlocklistURLs = append(cfg.BlocklistURLs, BlocklistURL{
			Name:   source.Name,
			URL:    source.URL,
			Format: source.ToListFormat(),
		})
	}

	if c.Refresh.Enabled && c.Refresh.Interval > 0 {
		cfg.RefreshInterval = c.Refresh.Interval
	}
	return cfg
}

// envOverrides lists the environment variables that can override a
// loaded Config, and how each one applies to it.
var envOverrides = []struct {
	key   string
	apply func(cfg *Config, value string)
}{
	{"DNSPROXY_FILTERING_ENABLED", func(cfg *Config, v string) { cfg.Enabled = isTruthyEnv(v) }},
	{"DNSPROXY_FILTERING_LOG_BLOCKED", func(cfg *Config, v string) { cfg.Logging.LogBlocked = isTruthyEnv(v) }},
	{"DNSPROXY_FILTERING_LOG_ALLOWED", func(cfg *Config, v string) { cfg.Logging.LogAllowed = isTruthyEnv(v) }},
	{"DNSPROXY_FILTERING_BLOCK_TYPE", func(cfg *Config, v string) { cfg.BlockResponse.Type = v }},
}

func isTruthyEnv(v string) bool { return strings.EqualFold(v, "true") || v == "1" }

// ConfigFromEnv applies the DNSPROXY_FILTERING_* environment overrides
// on top of base, leaving anything unset untouched.
func ConfigFromEnv(base Config) Config {
	cfg := base
	for _, override := range envOverrides {
		if v := os.Getenv(override.key); v != "" {
			override.apply(&cfg, v)
		}
	}
	return cfg
}

// ExampleConfig is the configuration rendered into generated
// documentation and scaffolded config files.
func ExampleConfig() Config {
	return Config{
		Enabled: true,
		Whitelist: ListConfig{
			Domains: []string{"example.com", "safe.example.org"},
		},
		Blacklist: ListConfig{
			Domains: []string{"malware.example.com", "ads.example.net"},
			Sources: []SourceConfig{
				{Name: "hagezi-light", URL: "https://cdn.jsdelivr.net/gh/hagezi/dns-blocklists@latest/domains/light.txt", Format: "domains"},
				{Name: "hagezi-adblock", URL: "https://cdn.jsdelivr.net/gh/hagezi/dns-blocklists@latest/adblock/light.txt", Format: "adblock"},
				{Name: "stevenblack", URL: "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts", Format: "hosts"},
			},
		},
		BlockResponse: BlockResponseConfig{Type: "nxdomain"},
		Logging:       FilterLoggingConfig{LogBlocked: true},
		Refresh:       RefreshConfig{Enabled: true, Interval: 24 * time.Hour},
	}
}
