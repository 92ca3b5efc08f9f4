package dedupe

import (
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

func srv(id, provider, name, ip string, updated time.Time) engine.Server {
	return engine.Server{
		ResourceMeta: engine.ResourceMeta{
			ID:        id,
			OrgID:     "org-1",
			Provider:  provider,
			Name:      name,
			UpdatedAt: updated,
		},
		PrimaryIP: ip,
	}
}

func TestDeduplicateServersEmpty(t *testing.T) {
	if got := DeduplicateServers(nil); got != nil {
		t.Errorf("DeduplicateServers(nil) = %v, want nil", got)
	}
	if got := DeduplicateServers([]engine.Server{}); got != nil {
		t.Errorf("DeduplicateServers(empty) = %v, want nil", got)
	}
}

func TestDeduplicateServersGroupsByIP(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	records := []engine.Server{
		srv("a", "vultr", "web-1", "203.0.113.10", t1),
		srv("b", "gridpane", "prod-web", "203.0.113.10", t2),
		srv("c", "aws", "api-1", "198.51.100.7", t1),
	}

	groups := DeduplicateServers(records)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	merged := groups[0]
	if merged.ID != "b" {
		t.Errorf("primary = %s, want b (most recently updated)", merged.ID)
	}
	if len(merged.MergedData) != 2 {
		t.Errorf("merged data has %d members, want 2", len(merged.MergedData))
	}
	wantProviders := []string{"gridpane", "vultr"}
	if len(merged.Providers) != len(wantProviders) {
		t.Fatalf("providers = %v, want %v", merged.Providers, wantProviders)
	}
	for i, p := range wantProviders {
		if merged.Providers[i] != p {
			t.Errorf("providers[%d] = %s, want %s", i, merged.Providers[i], p)
		}
	}
	if len(merged.OriginalIDs) != 2 || merged.OriginalIDs[0] != "a" || merged.OriginalIDs[1] != "b" {
		t.Errorf("original IDs = %v, want [a b]", merged.OriginalIDs)
	}
}

func TestDeduplicateServersTransitiveGrouping(t *testing.T) {
	// b matches a by name; c matches b by IP but a by nothing. The group
	// rule is any-member match, so all three land in one group.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Server{
		srv("a", "vultr", "web-1", "", t0),
		srv("b", "gridpane", "Web-1", "203.0.113.10", t0),
		srv("c", "aws", "other", "203.0.113.10", t0),
	}

	groups := DeduplicateServers(records)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0].MergedData) != 3 {
		t.Errorf("group has %d members, want 3", len(groups[0].MergedData))
	}
}

func TestDeduplicateServersUnmatchableAreSingletons(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Server{
		srv("a", "vultr", "", "", t0),
		srv("b", "aws", "", "", t0),
		srv("c", "aws", "web-1", "", t0),
	}

	groups := DeduplicateServers(records)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 (two unmatchable singletons)", len(groups))
	}
	for _, g := range groups[:2] {
		if len(g.MergedData) != 1 {
			t.Errorf("unmatchable record merged into group of %d", len(g.MergedData))
		}
	}
}

func TestDeduplicateServersCompleteness(t *testing.T) {
	// No record is lost or duplicated: the merged-data lengths always sum
	// to the input length.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := [][]engine.Server{
		nil,
		{srv("a", "vultr", "web-1", "203.0.113.10", t0)},
		{
			srv("a", "vultr", "web-1", "203.0.113.10", t0),
			srv("b", "gridpane", "web-1", "", t0),
			srv("c", "aws", "", "", t0),
			srv("d", "aws", "", "", t0),
			srv("e", "linode", "db-1", "198.51.100.7", t0),
			srv("f", "hetzner", "db-1", "198.51.100.8", t0),
		},
	}

	for _, records := range inputs {
		groups := DeduplicateServers(records)
		total := 0
		for _, g := range groups {
			total += len(g.MergedData)
		}
		if total != len(records) {
			t.Errorf("merged data totals %d records, want %d", total, len(records))
		}
	}
}

func TestDeduplicateServersPrimaryTieKeepsFirst(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Server{
		srv("a", "vultr", "web-1", "203.0.113.10", t0),
		srv("b", "gridpane", "web-1", "203.0.113.10", t0),
	}

	groups := DeduplicateServers(records)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].ID != "a" {
		t.Errorf("primary = %s, want a (tie keeps first encountered)", groups[0].ID)
	}
}

func TestDeduplicateServersMissingTimestampNeverWins(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Server{
		srv("a", "vultr", "web-1", "", time.Time{}),
		srv("b", "gridpane", "web-1", "", t0),
	}

	groups := DeduplicateServers(records)
	if groups[0].ID != "b" {
		t.Errorf("primary = %s, want b (zero timestamp loses)", groups[0].ID)
	}
}

func TestDeduplicateServersStrictOption(t *testing.T) {
	// Same generic name, conflicting IPs: permissive merges them, strict
	// keeps them apart.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []engine.Server{
		srv("a", "vultr", "web-1", "203.0.113.10", t0),
		srv("b", "hetzner", "web-1", "198.51.100.7", t0),
	}

	if got := DeduplicateServers(records); len(got) != 1 {
		t.Errorf("permissive: got %d groups, want 1", len(got))
	}

	strict := Options{StrictServerMatch: true}.DeduplicateServers(records)
	if len(strict) != 2 {
		t.Errorf("strict: got %d groups, want 2", len(strict))
	}
}
