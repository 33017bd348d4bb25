package resolver

import (
	"time"

	"dnsproxy/internal/cache"
	"dnsproxy/internal/dns"
)

const defaultNegativeTTL = 60 * time.Second

// classify inspects an upstream answer and determines how, if at all, it
// should be cached. Only NOERROR and NXDOMAIN answers are cacheable: a
// positive answer's TTL is the minimum of its answer records, a negative
// one's comes from the authority section's SOA Minimum field per RFC
// 2308. Every other RCODE, and any truncated (TC-flagged) response
// regardless of RCODE, comes back with cacheable=false so the caller
// never admits a transient failure or a partial answer into the cache.
func classify(packet []byte) (entryType cache.EntryType, ttl time.Duration, cacheable bool) {
	pkt, err := dns.ParsePacket(packet)
	if err != nil {
		return cache.SERVFAIL, defaultNegativeTTL, false
	}
	if pkt.Header.Truncated() {
		return cache.SERVFAIL, defaultNegativeTTL, false
	}

	switch rcode := pkt.Header.RCode(); rcode {
	case dns.RCodeNXDomain:
		return cache.NXDOMAIN, soaMinimumOr(pkt.Authorities, defaultNegativeTTL), true

	case dns.RCodeNoError:
		if len(pkt.Answers) == 0 {
			return cache.NODATA, soaMinimumOr(pkt.Authorities, defaultNegativeTTL), true
		}
		return cache.Positive, minAnswerTTL(pkt.Answers), true

	default:
		return cache.SERVFAIL, defaultNegativeTTL, false
	}
}

func minAnswerTTL(answers []dns.Record) time.Duration {
	var min uint32
	for i, rr := range answers {
		ttl := rr.Header().TTL
		if i == 0 || ttl < min {
			min = ttl
		}
	}
	return time.Duration(min) * time.Second
}

func soaMinimumOr(authorities []dns.Record, fallback time.Duration) time.Duration {
	for _, rr := range authorities {
		if soa, ok := rr.(*dns.SOARecord); ok {
			return time.Duration(soa.Minimum) * time.Second
		}
	}
	return fallback
}
