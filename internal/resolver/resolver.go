// Package resolver implements the query pipeline: parse the incoming
// message, apply filtering policy, consult the cache, fall through to
// upstream providers on a miss, and assemble the final response.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dnsproxy/internal/cache"
	"dnsproxy/internal/dns"
	"dnsproxy/internal/eventbus"
	"dnsproxy/internal/filtering"
	"dnsproxy/internal/providers"
	"dnsproxy/internal/store"
)

// RequestMeta carries transport-level context the pipeline needs for
// logging and events but that isn't part of the DNS message itself.
type RequestMeta struct {
	ClientAddr string
	Transport  string // "udp" or "doh"
}

// BlockPolicy configures how a blocked query is answered.
type BlockPolicy struct {
	Type string // "nxdomain", "nodata", "address"
	IPv4 string
	IPv6 string
}

// Resolver wires the cache, policy engine, and upstream pools into a
// single query-handling entry point.
//
// Providers is the provider pool used when WhitelistMode is off: every
// query fans out across the full configured set. When WhitelistMode is
// on, a domain's whitelist membership picks the pool instead:
// PrimaryProviders (NextDNS) for whitelisted names, SecondaryProviders
// (the configured secondaryDns provider) for everything else. Either
// falls back to Providers if left nil, so a partially-configured
// resolver still resolves something rather than refusing every query.
type Resolver struct {
	Cache              *cache.Cache
	Policy             *filtering.PolicyEngine
	Providers          *providers.Pool
	PrimaryProviders   *providers.Pool
	SecondaryProviders *providers.Pool
	Log                store.LogStore
	Events             *eventbus.Bus
	Block              BlockPolicy
	WhitelistMode      bool
	Logger             *slog.Logger
}

// Resolve runs the full pipeline over a single raw DNS query and returns
// the raw DNS response, always non-nil on the happy path. It never returns
// an error: malformed input becomes a FORMERR response so the caller can
// always write the result straight back to the wire.
func (r *Resolver) Resolve(ctx context.Context, query []byte, meta RequestMeta) []byte {
	start := time.Now()
	requestID := uuid.NewString()
	logger := r.logger()

	req, err := dns.ParsePacket(query)
	if err != nil || len(req.Questions) != 1 {
		r.logError(requestID, meta, "", "malformed DNS message", start, logger)
		return r.errorResponse(query, dns.RCodeFormErr)
	}
	q := req.Questions[0]
	r.logRequest(requestID, meta, q, start)

	decision := r.evaluate(q.Name)
	if decision.blocked {
		resp := r.blockedResponse(req)
		r.recordResponse(requestID, meta, q, decision, "", false, 0, start, resp, logger)
		return resp
	}

	fp := cache.NewFingerprint(q.Name, q.Type, q.Class)
	if entry, ok := r.Cache.Get(fp); ok {
		resp := rewriteID(entry.Packet, req.Header.ID)
		r.recordResponse(requestID, meta, q, decision, entry.Provider, true, 0, start, resp, logger)
		return resp
	}

	pool := r.upstreamFor(decision)
	if pool == nil {
		logger.Warn("no upstream providers configured", "domain", q.Name)
		r.logError(requestID, meta, q.Name, "no upstream providers configured", start, logger)
		resp := r.errorResponse(query, dns.RCodeServFail)
		r.recordResponse(requestID, meta, q, decision, "", false, 1, start, resp, logger)
		return resp
	}

	answer, providerName, err := pool.Resolve(ctx, query)
	if err != nil {
		logger.Warn("upstream resolution failed", "domain", q.Name, "error", err)
		r.logError(requestID, meta, q.Name, err.Error(), start, logger)
		resp := r.errorResponse(query, dns.RCodeServFail)
		r.recordResponse(requestID, meta, q, decision, "", false, 1, start, resp, logger)
		return resp
	}

	if entryType, ttl, cacheable := classify(answer); cacheable {
		r.Cache.Set(fp, answer, entryType, ttl, providerName)
	}

	resp := rewriteID(answer, req.Header.ID)
	r.recordResponse(requestID, meta, q, decision, providerName, false, 1, start, resp, logger)
	return resp
}

type policyDecision struct {
	blocked     bool
	whitelisted bool
	rule        string
	list        string
}

// evaluate reports whether a domain is blocked and whether it is
// whitelisted. The policy engine already treats whitelist membership as
// an override over the blacklist, so blocked here means "blacklisted and
// not whitelisted" regardless of whitelist mode; WhitelistMode itself
// never blocks a query, it only changes which upstream answers it (see
// upstreamFor).
func (r *Resolver) evaluate(domain string) policyDecision {
	if r.Policy == nil {
		return policyDecision{}
	}
	result := r.Policy.Evaluate(domain)
	return policyDecision{
		blocked:     result.Action == filtering.ActionBlock,
		whitelisted: result.ListName == "whitelist",
		rule:        result.Rule,
		list:        result.ListName,
	}
}

// upstreamFor picks which provider pool serves a non-blocked, cache-miss
// query. Outside whitelist mode every query uses the full fan-out pool.
// In whitelist mode, whitelist membership routes the query: whitelisted
// names go to PrimaryProviders (NextDNS), everything else goes to
// SecondaryProviders (the configured secondaryDns), so non-whitelisted
// traffic never reaches the quota-limited primary provider.
func (r *Resolver) upstreamFor(decision policyDecision) *providers.Pool {
	if !r.WhitelistMode {
		return r.Providers
	}
	if decision.whitelisted {
		if r.PrimaryProviders != nil {
			return r.PrimaryProviders
		}
		return r.Providers
	}
	if r.SecondaryProviders != nil {
		return r.SecondaryProviders
	}
	return r.Providers
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// logRequest records the request-phase log entry for a well-formed query,
// before policy, cache, or upstream resolution have run.
func (r *Resolver) logRequest(requestID string, meta RequestMeta, q dns.Question, start time.Time) {
	if r.Log == nil {
		return
	}
	_ = r.Log.Append(store.LogEntry{
		ID:         requestID,
		Timestamp:  start,
		Kind:       "request",
		Level:      "info",
		ClientAddr: meta.ClientAddr,
		Transport:  meta.Transport,
		Domain:     q.Name,
		QType:      recordTypeName(q.Type),
	})
}

// logError records an error-phase log entry: a malformed query that never
// reached a question, or a query whose upstream resolution failed
// entirely. domain is empty for the former.
func (r *Resolver) logError(requestID string, meta RequestMeta, domain, message string, start time.Time, logger *slog.Logger) {
	if r.Log != nil {
		_ = r.Log.Append(store.LogEntry{
			ID:        requestID,
			Timestamp: start,
			Kind:      "error",
			Level:     "error",
			Transport: meta.Transport,
			Domain:    domain,
			Message:   message,
		})
	}
	if r.Events != nil {
		r.Events.Publish(eventbus.Event{Kind: "error", Data: map[string]any{
			"id":      requestID,
			"domain":  domain,
			"message": message,
		}})
	}
	logger.Error("resolver error", "id", requestID, "domain", domain, "error", message)
}

// recordResponse records the response-phase log entry and publishes the
// query event once a response, successful or synthesized, is ready.
func (r *Resolver) recordResponse(requestID string, meta RequestMeta, q dns.Question, decision policyDecision, provider string, cached bool, attempt int, start time.Time, resp []byte, logger *slog.Logger) {
	latency := time.Since(start)
	rcode := dns.RCodeNoError
	if len(resp) >= 4 {
		flags := uint16(resp[2])<<8 | uint16(resp[3])
		rcode = dns.RCodeFromFlags(flags)
	}
	success := rcode == dns.RCodeNoError || rcode == dns.RCodeNXDomain
	resolved := resolvedAddresses(resp)

	if r.Log != nil {
		_ = r.Log.Append(store.LogEntry{
			ID:           requestID,
			Timestamp:    start,
			Kind:         "response",
			Level:        "info",
			ClientAddr:   meta.ClientAddr,
			Transport:    meta.Transport,
			Domain:       q.Name,
			QType:        recordTypeName(q.Type),
			Provider:     provider,
			Cached:       cached,
			Blocked:      decision.blocked,
			Whitelisted:  decision.whitelisted,
			Success:      success,
			RCode:        rcodeName(rcode),
			Resolved:     resolved,
			ResponseSize: len(resp),
			Attempt:      attempt,
			LatencyMs:    latency.Milliseconds(),
		})
	}

	if r.Events != nil {
		r.Events.Publish(eventbus.Event{Kind: "query", Data: map[string]any{
			"id":          requestID,
			"domain":      q.Name,
			"qtype":       recordTypeName(q.Type),
			"provider":    provider,
			"cached":      cached,
			"blocked":     decision.blocked,
			"whitelisted": decision.whitelisted,
			"rcode":       rcodeName(rcode),
			"latency_ms":  latency.Milliseconds(),
		}})
	}

	logger.Debug("query resolved", "id", requestID, "domain", q.Name, "cached", cached,
		"blocked", decision.blocked, "provider", provider, "latency", latency)
}

// resolvedAddresses extracts the A/AAAA answers from a response packet for
// the log entry's resolved field. Parse failures and non-address answers
// simply yield nothing.
func resolvedAddresses(resp []byte) []string {
	pkt, err := dns.ParsePacket(resp)
	if err != nil {
		return nil
	}
	var out []string
	for _, rr := range pkt.Answers {
		if ip, ok := rr.(*dns.IPRecord); ok {
			out = append(out, ip.Addr.String())
		}
	}
	return out
}
