package ioc

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`(?i)\b(?:https?|ftp)://[^\s<>"'\x60{}|\\^]+`)

type Extractor struct {
	policy Policy
}

func NewExtractor(policy Policy) *Extractor {
	return &Extractor{policy: policy}
}

func (e *Extractor) Mode() Mode {
	return e.policy.Mode()
}

// Run returns the URL and Domain tokens of one item in text order. text must
// already be deobfuscated. Each URL is followed by its host the first time
// that host appears in the item; repeats across items are left to the
// Builder.
func (e *Extractor) Run(item FeedItem, text string) []Token {
	if !e.policy.Eligible(item) {
		return nil
	}

	region := e.policy.Region(text)
	if region == "" {
		return nil
	}

	var tokens []Token
	seen := make(map[string]bool)
	for _, match := range urlRe.FindAllString(region, -1) {
		value, host, ok := canonicalURL(match)
		if !ok {
			continue
		}

		urlToken := Token{Kind: KindURL, Value: value}
		if !seen[urlToken.key()] {
			seen[urlToken.key()] = true
			tokens = append(tokens, urlToken)
		}

		if !isDomain(host) {
			continue
		}
		domainToken := Token{Kind: KindDomain, Value: host}
		if !seen[domainToken.key()] {
			seen[domainToken.key()] = true
			tokens = append(tokens, domainToken)
		}
	}

	return tokens
}

// canonicalURL trims trailing punctuation from a regexp match and returns
// the URL with a lower-cased scheme and host.
func canonicalURL(match string) (string, string, bool) {
	// Truncated excerpts ("http://example.com/long/pa…") are never real
	// indicators.
	if strings.Contains(match, "…") || strings.Contains(match, "...") {
		return "", "", false
	}

	raw := trimTrailing(match)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return u.String(), host, true
}

func trimTrailing(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		switch last {
		case '.', ',', ';', ':', '!', '?':
			s = s[:len(s)-1]
		case ')', ']':
			open := byte('(')
			if last == ']' {
				open = '['
			}
			if strings.Count(s, string(open)) >= strings.Count(s, string(last)) {
				return s
			}
			s = s[:len(s)-1]
		default:
			return s
		}
	}
	return s
}

func isDomain(host string) bool {
	if net.ParseIP(host) != nil {
		return false
	}
	return strings.Contains(host, ".")
}
