package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// dohProvider resolves queries via DNS-over-HTTPS POST, per RFC 8484.
// Grounded on the same plain net/http request/response shape used for the
// listener side of this protocol; this is the client half.
type dohProvider struct {
	name     string
	endpoint string
	client   *http.Client
}

func newDoHProvider(name, endpoint string, timeout time.Duration) *dohProvider {
	return &dohProvider{name: name, endpoint: endpoint, client: newHTTPClient(timeout)}
}

func (p *dohProvider) Name() string { return p.name }

func (p *dohProvider) Resolve(ctx context.Context, query []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build doh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/dns-message")
	req.Header.Set("Accept", "application/dns-message")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doh request to %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doh provider %s returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read doh response from %s: %w", p.name, err)
	}
	return body, nil
}
