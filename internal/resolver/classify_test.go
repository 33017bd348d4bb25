package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"dnsproxy/internal/cache"
	"dnsproxy/internal/dns"
	"dnsproxy/internal/providers"
)

func TestClassifyCachesPositiveAnswer(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeNoError, false)
	entryType, _, cacheable := classify(answer)
	assert.True(t, cacheable)
	assert.Equal(t, cache.Positive, entryType)
}

func TestClassifyCachesNXDomain(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeNXDomain, false)
	_, _, cacheable := classify(answer)
	assert.True(t, cacheable)
}

func TestClassifyRejectsServfail(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeServFail, false)
	_, _, cacheable := classify(answer)
	assert.False(t, cacheable)
}

func TestClassifyRejectsRefused(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeRefused, false)
	_, _, cacheable := classify(answer)
	assert.False(t, cacheable)
}

func TestClassifyRejectsNotImplemented(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeNotImp, false)
	_, _, cacheable := classify(answer)
	assert.False(t, cacheable)
}

func TestClassifyRejectsFormErr(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeFormErr, false)
	_, _, cacheable := classify(answer)
	assert.False(t, cacheable)
}

func TestClassifyRejectsTruncatedAnswerRegardlessOfRcode(t *testing.T) {
	answer := buildRcodeAnswer(t, 1, "example.com", dns.RCodeNoError, true)
	_, _, cacheable := classify(answer)
	assert.False(t, cacheable)
}

// A sole upstream returning SERVFAIL must never leave a stale cache entry
// behind: every retry goes back out to the upstream instead of serving a
// cached failure. The provider pool rejects the SERVFAIL candidate before
// the resolver would even get a chance to cache it, so this is the
// end-to-end guarantee the per-value classify() checks above exist to serve.
func TestResolveDoesNotCacheServfail(t *testing.T) {
	query := buildQuery(t, "example.com")
	answer := buildRcodeAnswer(t, 99, "example.com", dns.RCodeServFail, false)
	calls := 0

	r := &Resolver{
		Cache:     cache.New(10),
		Providers: providers.NewPool([]providers.Provider{&countingProvider{name: "test", reply: answer, calls: &calls}}),
	}

	r.Resolve(context.Background(), query, RequestMeta{})
	r.Resolve(context.Background(), query, RequestMeta{})
	assert.Equal(t, 2, calls, "a SERVFAIL answer must never be served from cache")
}
