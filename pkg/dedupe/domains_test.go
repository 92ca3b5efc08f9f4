package dedupe

import (
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

func dom(id, provider, hostname string, updated time.Time) engine.Domain {
	return engine.Domain{
		ResourceMeta: engine.ResourceMeta{
			ID:        id,
			OrgID:     "org-1",
			Provider:  provider,
			Name:      hostname,
			UpdatedAt: updated,
		},
		Hostname: hostname,
	}
}

func TestDeduplicateDomainsEmpty(t *testing.T) {
	if got := DeduplicateDomains(nil); got != nil {
		t.Errorf("DeduplicateDomains(nil) = %v, want nil", got)
	}
}

func TestDeduplicateDomainsGroupsByNormalizedName(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	records := []engine.Domain{
		dom("a", "cloudflare", "https://Example.com/path?x=1", t1),
		dom("b", "gridpane", "example.com:8080", t2),
		dom("c", "namecheap", "example.com.", t1),
		dom("d", "cloudflare", "other.org", t1),
	}

	groups := DeduplicateDomains(records)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	merged := groups[0]
	if merged.ID != "b" {
		t.Errorf("primary = %s, want b (most recently updated)", merged.ID)
	}
	if len(merged.MergedData) != 3 {
		t.Errorf("group has %d members, want 3", len(merged.MergedData))
	}
	// gridpane is a platform provider so it leads the badge list.
	if len(merged.Providers) != 3 || merged.Providers[0] != "gridpane" {
		t.Errorf("providers = %v, want gridpane first", merged.Providers)
	}
}

func TestDeduplicateDomainsWWWKeptDistinct(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Domain{
		dom("a", "cloudflare", "example.com", t0),
		dom("b", "gridpane", "www.example.com", t0),
	}

	groups := DeduplicateDomains(records)
	if len(groups) != 2 {
		t.Errorf("got %d groups, want 2 (www is a distinct host)", len(groups))
	}
}

func TestDeduplicateDomainsEmptyHostnameSingletons(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Domain{
		dom("a", "cloudflare", "", t0),
		dom("b", "gridpane", "   ", t0),
	}

	groups := DeduplicateDomains(records)
	if len(groups) != 2 {
		t.Errorf("got %d groups, want 2 singletons", len(groups))
	}
}

func TestDeduplicateDomainsCompleteness(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Domain{
		dom("a", "cloudflare", "example.com", t0),
		dom("b", "gridpane", "EXAMPLE.COM", t0),
		dom("c", "namecheap", "", t0),
		dom("d", "godaddy", "other.org", t0),
	}

	groups := DeduplicateDomains(records)
	total := 0
	for _, g := range groups {
		total += len(g.MergedData)
	}
	if total != len(records) {
		t.Errorf("merged data totals %d records, want %d", total, len(records))
	}
}
