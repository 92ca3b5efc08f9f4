// Package identity canonicalizes the identifying fields of provider
// resource records so that records from different providers can be
// compared. All functions are pure: no I/O, no shared state.
package identity

import (
	"net/url"
	"strings"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// ServerKey computes the match key for a server record. It prefers the
// trimmed primary IP address ("ip:<address>") and falls back to the
// trimmed, lower-cased name ("name:<name>"). The second return value is
// false when the record has neither, meaning it cannot be matched and
// must stand alone.
func ServerKey(s *engine.Server) (string, bool) {
	if ip := strings.TrimSpace(s.PrimaryIP); ip != "" {
		return "ip:" + ip, true
	}
	if name := strings.ToLower(strings.TrimSpace(s.Name)); name != "" {
		return "name:" + name, true
	}
	return "", false
}

// ServersMatch reports whether two server records refer to the same
// logical server. Records match when both expose non-empty IP addresses
// equal after trimming, or both expose non-empty names equal after
// lower-casing and trimming. Either condition alone is sufficient: a
// server with the same name but a different IP across two providers is
// still treated as the same logical server. See ServersMatchStrict for
// the conservative variant.
func ServersMatch(a, b *engine.Server) bool {
	aIP := strings.TrimSpace(a.PrimaryIP)
	bIP := strings.TrimSpace(b.PrimaryIP)
	if aIP != "" && bIP != "" && aIP == bIP {
		return true
	}

	aName := strings.ToLower(strings.TrimSpace(a.Name))
	bName := strings.ToLower(strings.TrimSpace(b.Name))
	return aName != "" && bName != "" && aName == bName
}

// ServersMatchStrict is ServersMatch with one extra requirement: when
// both records expose IP addresses, the IPs must agree. This prevents
// merging distinct servers that share a generic name like "web-1" across
// unrelated provider accounts.
func ServersMatchStrict(a, b *engine.Server) bool {
	aIP := strings.TrimSpace(a.PrimaryIP)
	bIP := strings.TrimSpace(b.PrimaryIP)
	if aIP != "" && bIP != "" {
		return aIP == bIP
	}
	return ServersMatch(a, b)
}

// DomainName normalizes a raw domain value to a bare hostname. It
// lower-cases and trims, extracts the hostname from URL-shaped input,
// strips any path, query, or fragment suffix, strips a trailing port,
// and strips trailing dots and slashes. A leading "www." is kept: the
// www and apex hosts are distinct records.
//
// "https://Example.com/path?x=1", "example.com:8080", and "example.com."
// all normalize to "example.com". The function is idempotent.
func DomainName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "://"); i >= 0 {
		if u, err := url.Parse(s); err == nil && u.Hostname() != "" {
			s = u.Hostname()
		} else {
			s = s[i+3:]
		}
	}

	// Strip any path, query, or fragment suffix left over from non-URL
	// input or a failed parse.
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}

	// Trim trailing dots and slashes before the port strip: a trailing
	// dot after the port ("example.com:8080.") would otherwise shield
	// the port on the first pass and break idempotence.
	s = strings.TrimRight(s, "./")
	s = stripPort(s)
	s = strings.TrimRight(s, "./")
	return s
}

// stripPort removes a trailing ":NNNN" port suffix. A colon followed by
// anything non-numeric is left alone (e.g. a stray IPv6 literal).
func stripPort(s string) string {
	i := strings.LastIndex(s, ":")
	if i < 0 || i == len(s)-1 {
		return s
	}
	for _, r := range s[i+1:] {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[:i]
}
