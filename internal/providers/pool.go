package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dnsproxy/internal/dns"
)

const (
	failureThreshold = 5
	cooldownPeriod   = 60 * time.Second
	staggerDelay     = 200 * time.Millisecond
	maxConcurrent    = 3
)

// health tracks a rolling failure count per provider so a consistently
// failing upstream is skipped for a cooldown period instead of being
// retried on every query.
type health struct {
	mu             sync.Mutex
	consecutive    int
	cooldownUntil  time.Time
}

func (h *health) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive = 0
	h.cooldownUntil = time.Time{}
}

func (h *health) recordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive++
	if h.consecutive >= failureThreshold {
		h.cooldownUntil = time.Now().Add(cooldownPeriod)
	}
}

func (h *health) available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cooldownUntil.IsZero() || time.Now().After(h.cooldownUntil)
}

// Pool fans a query out across configured providers in priority order,
// staggering launches so a fast first provider usually wins without every
// provider being hit for every query, and cancelling the rest as soon as
// one answers.
type Pool struct {
	providers []Provider
	health    map[string]*health
}

// NewPool builds a Pool over providers in priority order.
func NewPool(providers []Provider) *Pool {
	h := make(map[string]*health, len(providers))
	for _, p := range providers {
		h[p.Name()] = &health{}
	}
	return &Pool{providers: providers, health: h}
}

type raceResult struct {
	provider string
	answer   []byte
	err      error
}

// Resolve tries providers in order, skipping any provider currently in
// cooldown, and staggers launches by staggerDelay. At most maxConcurrent
// providers are launched per query, the first ones in order; providers past
// that are not tried, even when earlier ones fail. The first successful
// answer cancels the rest and wins.
func (p *Pool) Resolve(ctx context.Context, query []byte) ([]byte, string, error) {
	candidates := p.availableProviders()
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no upstream providers available")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(candidates))
	var wg sync.WaitGroup

	launched := 0
	for i, prov := range candidates {
		if launched >= maxConcurrent {
			break
		}
		wg.Add(1)
		launched++
		go func(idx int, prov Provider) {
			defer wg.Done()
			if idx > 0 {
				select {
				case <-time.After(time.Duration(idx) * staggerDelay):
				case <-ctx.Done():
					return
				}
			}
			answer, err := prov.Resolve(ctx, query)
			select {
			case results <- raceResult{provider: prov.Name(), answer: answer, err: err}:
			case <-ctx.Done():
			}
		}(i, prov)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for res := range results {
		h := p.health[res.provider]
		if res.err == nil && !acceptable(res.answer) {
			res.err = fmt.Errorf("provider %s returned unacceptable response", res.provider)
		}
		if res.err != nil {
			if h != nil {
				h.recordFailure()
			}
			lastErr = res.err
			continue
		}
		if h != nil {
			h.recordSuccess()
		}
		cancel()
		return res.answer, res.provider, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all upstream providers failed")
	}
	return nil, "", lastErr
}

// acceptable reports whether a provider's answer is eligible to win the
// race: well-formed, not truncated, and carrying an RCODE of NOERROR or
// NXDOMAIN. A SERVFAIL or REFUSED from a fast provider must not beat a
// slower provider's correct answer, so it's treated the same as a
// network failure and the pool keeps waiting on the remaining candidates.
func acceptable(answer []byte) bool {
	pkt, err := dns.ParsePacket(answer)
	if err != nil {
		return false
	}
	if pkt.Header.Truncated() {
		return false
	}
	rcode := pkt.Header.RCode()
	return rcode == dns.RCodeNoError || rcode == dns.RCodeNXDomain
}

func (p *Pool) availableProviders() []Provider {
	out := make([]Provider, 0, len(p.providers))
	for _, prov := range p.providers {
		h := p.health[prov.Name()]
		if h == nil || h.available() {
			out = append(out, prov)
		}
	}
	if len(out) == 0 {
		return p.providers // every provider is cooling down, try anyway rather than hard-fail
	}
	return out
}
