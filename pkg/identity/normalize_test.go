package identity

import (
	"testing"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

func server(name, ip string) *engine.Server {
	return &engine.Server{
		ResourceMeta: engine.ResourceMeta{Name: name},
		PrimaryIP:    ip,
	}
}

func TestServerKey(t *testing.T) {
	tests := []struct {
		name    string
		server  *engine.Server
		wantKey string
		wantOK  bool
	}{
		{
			name:    "prefers IP over name",
			server:  server("web-1", "203.0.113.10"),
			wantKey: "ip:203.0.113.10",
			wantOK:  true,
		},
		{
			name:    "trims IP whitespace",
			server:  server("", "  203.0.113.10 "),
			wantKey: "ip:203.0.113.10",
			wantOK:  true,
		},
		{
			name:    "falls back to lower-cased name",
			server:  server("  Web-1 ", ""),
			wantKey: "name:web-1",
			wantOK:  true,
		},
		{
			name:    "whitespace-only IP falls through to name",
			server:  server("db-1", "   "),
			wantKey: "name:db-1",
			wantOK:  true,
		},
		{
			name:   "no usable key",
			server: server("  ", ""),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := ServerKey(tt.server)
			if ok != tt.wantOK {
				t.Fatalf("ServerKey() ok = %v, want %v", ok, tt.wantOK)
			}
			if key != tt.wantKey {
				t.Errorf("ServerKey() = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestServersMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b *engine.Server
		want bool
	}{
		{
			name: "equal IPs match regardless of names",
			a:    server("web-1", "203.0.113.10"),
			b:    server("prod-web", " 203.0.113.10"),
			want: true,
		},
		{
			name: "equal names match regardless of IPs",
			a:    server("Web-1", "203.0.113.10"),
			b:    server("web-1", "198.51.100.7"),
			want: true,
		},
		{
			name: "different IPs and names do not match",
			a:    server("web-1", "203.0.113.10"),
			b:    server("web-2", "198.51.100.7"),
			want: false,
		},
		{
			name: "empty fields never match",
			a:    server("", ""),
			b:    server("", ""),
			want: false,
		},
		{
			name: "one-sided IP falls back to names",
			a:    server("app", "203.0.113.10"),
			b:    server("app", ""),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServersMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("ServersMatch() = %v, want %v", got, tt.want)
			}
			// Matching is symmetric for every pair.
			if got := ServersMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("ServersMatch() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServersMatchStrict(t *testing.T) {
	// Same name, conflicting IPs: permissive merges, strict does not.
	a := server("web-1", "203.0.113.10")
	b := server("web-1", "198.51.100.7")

	if !ServersMatch(a, b) {
		t.Error("ServersMatch() = false, want true for shared name")
	}
	if ServersMatchStrict(a, b) {
		t.Error("ServersMatchStrict() = true, want false for conflicting IPs")
	}

	// Strict still falls back to names when an IP is missing.
	c := server("web-1", "")
	if !ServersMatchStrict(a, c) {
		t.Error("ServersMatchStrict() = false, want true when only one IP is set")
	}
}

func TestDomainName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://Example.com/path?x=1", "example.com"},
		{"example.com:8080", "example.com"},
		{"example.com.", "example.com"},
		{"EXAMPLE.COM", "example.com"},
		{"  example.com  ", "example.com"},
		{"http://example.com:443/", "example.com"},
		{"example.com/deep/path#frag", "example.com"},
		{"example.com?utm=1", "example.com"},
		{"www.example.com", "www.example.com"}, // www kept distinct
		{"https://www.example.com/", "www.example.com"},
		{"example.com//", "example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := DomainName(tt.raw); got != tt.want {
				t.Errorf("DomainName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDomainNameIdempotent(t *testing.T) {
	inputs := []string{
		"https://Example.com/path?x=1",
		"example.com:8080",
		"example.com.",
		"example.com:8080.",
		"example.com./",
		"sub.example.co.uk",
		"http://[::1]:8080/x",
		"weird:input:here",
		"",
	}

	for _, raw := range inputs {
		once := DomainName(raw)
		twice := DomainName(once)
		if once != twice {
			t.Errorf("DomainName not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestDomainNameEquivalenceClass(t *testing.T) {
	// The documented equivalence class: three very different raw forms of
	// the same domain collapse to one normalized value.
	forms := []string{
		"https://Example.com/path?x=1",
		"example.com:8080",
		"example.com.",
	}

	for _, raw := range forms {
		if got := DomainName(raw); got != "example.com" {
			t.Errorf("DomainName(%q) = %q, want %q", raw, got, "example.com")
		}
	}
}
