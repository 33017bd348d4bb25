// Package providers implements the upstream resolvers the pipeline
// forwards cache-miss queries to: a handful of DNS-over-HTTPS providers and
// the plain UDP system resolver, fanned out with failover and per-provider
// cooldown so one flaky upstream can't stall every query.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Provider resolves a raw DNS wire-format query against one upstream.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, query []byte) ([]byte, error)
}

// Config describes one configured upstream provider.
type Config struct {
	Name           string // "cloudflare", "google", "opendns", "nextdns", "system"
	NextDNSConfigID string
	SystemAddr     string // host:port of the OS resolver, used by "system"
	Timeout        time.Duration
}

// New builds a Provider for the given configuration.
func New(cfg Config) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	switch cfg.Name {
	case "cloudflare":
		return newDoHProvider("cloudflare", "https://cloudflare-dns.com/dns-query", timeout), nil
	case "google":
		return newDoHProvider("google", "https://dns.google/dns-query", timeout), nil
	case "opendns":
		return newDoHProvider("opendns", "https://doh.opendns.com/dns-query", timeout), nil
	case "nextdns":
		if cfg.NextDNSConfigID == "" {
			return nil, fmt.Errorf("nextdns provider requires upstream.nextdns_config_id")
		}
		endpoint := "https://dns.nextdns.io/" + cfg.NextDNSConfigID
		return newDoHProvider("nextdns", endpoint, timeout), nil
	case "system":
		addr := cfg.SystemAddr
		if addr == "" {
			addr = "127.0.0.1:53"
		}
		return newSystemProvider(addr, timeout), nil
	default:
		return nil, fmt.Errorf("unknown upstream provider %q", cfg.Name)
	}
}

// newHTTPClient returns an HTTP/2-capable client tuned for small, latency
// sensitive DoH requests, mirroring the transport settings used for
// outbound HTTP/2 traffic elsewhere in the pack.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	_ = http2.ConfigureTransport(transport)
	return &http.Client{Transport: transport, Timeout: timeout}
}
