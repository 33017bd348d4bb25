package filtering

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomainsFormat(t *testing.T) {
	p := NewParser()
	input := strings.NewReader("# comment\nads.example.com\n\nexample.org # trailing comment\n")

	trie, err := p.Parse(input, FormatDomains)
	require.NoError(t, err)
	assert.True(t, trie.Contains("ads.example.com"))
	assert.True(t, trie.Contains("example.org"))
}

func TestParseHostsFormat(t *testing.T) {
	p := NewParser()
	input := strings.NewReader("0.0.0.0 tracker.example.com\n127.0.0.1 localhost\n1.2.3.4 ignored.example.com\n")

	trie, err := p.Parse(input, FormatHosts)
	require.NoError(t, err)
	assert.True(t, trie.Contains("tracker.example.com"))
	assert.False(t, trie.Contains("localhost"))
	assert.False(t, trie.Contains("ignored.example.com"))
}

func TestParseAdblockFormat(t *testing.T) {
	p := NewParser()
	input := strings.NewReader("||ads.example.com^\n@@||good.example.com^\n||path.example.com/x^\n")

	trie, err := p.Parse(input, FormatAdblock)
	require.NoError(t, err)
	assert.True(t, trie.Contains("ads.example.com"))
	assert.True(t, trie.Contains("sub.ads.example.com")) // adblock blocks subdomains
	assert.False(t, trie.Contains("good.example.com"))
	assert.False(t, trie.Contains("path.example.com"))
}

func TestParseAutoDetectsFormat(t *testing.T) {
	p := NewParser()
	input := strings.NewReader("0.0.0.0 auto.example.com\n")

	trie, err := p.Parse(input, FormatAuto)
	require.NoError(t, err)
	assert.True(t, trie.Contains("auto.example.com"))
}

func TestParseURLFetchesAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote.example.com\n"))
	}))
	defer srv.Close()

	p := NewParser()
	trie, err := p.ParseURL(srv.URL, FormatDomains)
	require.NoError(t, err)
	assert.True(t, trie.Contains("remote.example.com"))
}

func TestParseURLReturnsErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewParser()
	_, err := p.ParseURL(srv.URL, FormatDomains)
	assert.Error(t, err)
}

func TestIsValidDomainRejectsMalformed(t *testing.T) {
	assert.True(t, isValidDomain("example.com"))
	assert.False(t, isValidDomain(""))
	assert.False(t, isValidDomain("nodothere"))
	assert.False(t, isValidDomain("-bad.example.com"))
	assert.False(t, isValidDomain("bad-.example.com"))
}

func TestParseDomainsSlice(t *testing.T) {
	p := NewParser()
	trie := p.ParseDomainsSlice([]string{"one.example.com", "invalid", "two.example.com"})
	assert.True(t, trie.Contains("one.example.com"))
	assert.True(t, trie.Contains("two.example.com"))
	assert.False(t, trie.Contains("invalid"))
}
