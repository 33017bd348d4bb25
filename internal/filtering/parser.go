package filtering

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ListFormat identifies how a blocklist source encodes its domains.
type ListFormat int

const (
	FormatAuto    ListFormat = iota // sniff the format from the first non-comment line
	FormatDomains                   // one domain per line
	FormatHosts                     // "0.0.0.0 domain" / "127.0.0.1 domain"
	FormatAdblock                   // Adblock Plus "||domain^" rules
)

const defaultParserTimeout = 60 * time.Second

// Parser turns blocklist text, in any of the supported formats, into a
// DomainTrie.
type Parser struct {
	IgnoreComments bool
	TrimWhitespace bool
	// Timeout bounds an HTTP fetch in ParseURL, in milliseconds.
	Timeout int
}

// NewParser returns a Parser with comment-skipping and whitespace
// trimming on and a 60s fetch timeout — the defaults every blocklist
// source in this proxy uses.
func NewParser() *Parser {
	return &Parser{
		IgnoreComments: true,
		TrimWhitespace: true,
		Timeout:        int(defaultParserTimeout / time.Millisecond),
	}
}

func (p *Parser) SetTimeout(ms int) { p.Timeout = ms }

func (p *Parser) ParseFile(path string, format ListFormat) (*DomainTrie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist file: %w", err)
	}
	defer file.Close()
	return p.Parse(file, format)
}

// ParseURL fetches url and parses the response body as format.
func (p *Parser) ParseURL(url string, format ListFormat) (*DomainTrie, error) {
	timeout := time.Duration(p.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultParserTimeout
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch blocklist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blocklist fetch returned %s", resp.Status)
	}
	return p.Parse(resp.Body, format)
}

// Parse reads r line by line, auto-detecting format per line when format
// is FormatAuto, and accumulates every recognized domain into a trie.
func (p *Parser) Parse(r io.Reader, format ListFormat) (*DomainTrie, error) {
	trie := NewDomainTrie()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineFormat := format
	for scanner.Scan() {
		line := scanner.Text()
		if p.TrimWhitespace {
			line = strings.TrimSpace(line)
		}
		if line == "" {
			continue
		}

		effective := lineFormat
		if effective == FormatAuto {
			effective = p.detectFormat(line)
		}

		if domain, wildcard := p.parseLine(line, effective); domain != "" {
			trie.Add(domain, wildcard)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	return trie, nil
}

// detectFormat guesses a line's format from its shape. Comment lines
// return FormatAuto since they carry no signal either way.
func (p *Parser) detectFormat(line string) ListFormat {
	switch {
	case strings.HasPrefix(line, "#"), strings.HasPrefix(line, "!"):
		return FormatAuto
	case strings.HasPrefix(line, "||"):
		return FormatAdblock
	case strings.HasPrefix(line, "0.0.0.0"), strings.HasPrefix(line, "127.0.0.1"):
		return FormatHosts
	default:
		return FormatDomains
	}
}

func (p *Parser) parseLine(line string, format ListFormat) (string, bool) {
	if p.IgnoreComments && (strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!")) {
		return "", false
	}

	switch format {
	case FormatAdblock:
		return p.parseAdblockLine(line)
	case FormatHosts:
		return p.parseHostsLine(line)
	default:
		return p.parseDomainsLine(line)
	}
}

// parseAdblockLine extracts the domain from an Adblock Plus blocking
// rule ("||domain^" or "||domain^$options"). Whitelist rules ("@@..."),
// URL-path rules, and mid-domain wildcards aren't domain-level blocks so
// they're skipped rather than misparsed.
func (p *Parser) parseAdblockLine(line string) (string, bool) {
	if strings.HasPrefix(line, "@@") || !strings.HasPrefix(line, "||") {
		return "", false
	}

	domain := strings.TrimPrefix(line, "||")
	if idx := strings.IndexAny(domain, "^$"); idx >= 0 {
		domain = domain[:idx]
	}
	if strings.ContainsAny(domain, "/*") {
		return "", false
	}

	domain = normalizeDomain(domain)
	if domain == "" || !isValidDomain(domain) {
		return "", false
	}
	return domain, true // Adblock rules block the whole subtree by convention
}

// parseHostsLine extracts the domain from a sinkhole hosts-file entry
// ("0.0.0.0 domain" or "127.0.0.1 domain"), skipping localhost entries
// that every hosts file carries regardless of blocklist intent.
func (p *Parser) parseHostsLine(line string) (string, bool) {
	line = strings.TrimSpace(stripInlineComment(line))
	if line == "" {
		return "", false
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || (fields[0] != "0.0.0.0" && fields[0] != "127.0.0.1") {
		return "", false
	}

	domain := normalizeDomain(fields[1])
	if domain == "" || !isValidDomain(domain) || domain == "localhost" || domain == "localhost.localdomain" {
		return "", false
	}
	return domain, false
}

func (p *Parser) parseDomainsLine(line string) (string, bool) {
	domain := normalizeDomain(strings.TrimSpace(stripInlineComment(line)))
	if domain == "" || !isValidDomain(domain) {
		return "", false
	}
	return domain, false
}

func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// isValidDomain applies the minimal structural checks this proxy needs
// before trusting a parsed token as a domain: a dotted name whose labels
// are alphanumeric-bounded and no longer than RFC 1035 allows.
func isValidDomain(domain string) bool {
	if domain == "" || len(domain) > 253 || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if !isAlphaNum(label[0]) || !isAlphaNum(label[len(label)-1]) {
			return false
		}
		for i := 0; i < len(label); i++ {
			if c := label[i]; !isAlphaNum(c) && c != '-' {
				return false
			}
		}
	}
	return true
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ParseDomainsSlice builds a trie directly from a slice of domain
// strings (e.g. config-file whitelist_domains/blacklist_domains entries)
// without going through the line-oriented Parse path.
func (p *Parser) ParseDomainsSlice(domains []string) *DomainTrie {
	trie := NewDomainTrie()
	for _, domain := range domains {
		if domain = normalizeDomain(domain); domain != "" && isValidDomain(domain) {
			trie.Add(domain, true)
		}
	}
	return trie
}
