package dedupe

import (
	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/identity"
)

// DeduplicatedServer is one logical server assembled from a match-group
// of per-provider records. It clones the primary record's fields and adds
// the group's provenance.
type DeduplicatedServer struct {
	engine.Server

	// Providers are the distinct provider names contributing to the
	// group, ordered by category (see SortProviders).
	Providers []string `json:"providers"`

	// OriginalIDs are the identifiers of all records in the group.
	OriginalIDs []string `json:"original_ids"`

	// MergedData holds every original record for traceability.
	MergedData []engine.Server `json:"merged_data"`
}

// Options tunes deduplication behavior.
type Options struct {
	// StrictServerMatch requires IP agreement when both records expose an
	// IP address, instead of the default permissive OR of IP-or-name
	// equality.
	StrictServerMatch bool
}

// DeduplicateServers groups server records across providers with the
// default permissive matching. See Options.DeduplicateServers.
func DeduplicateServers(records []engine.Server) []DeduplicatedServer {
	return Options{}.DeduplicateServers(records)
}

// DeduplicateServers groups server records across providers into logical
// servers. Records that expose neither an IP nor a name become singleton
// groups; keyed records join the first group in which any existing member
// matches them.
func (o Options) DeduplicateServers(records []engine.Server) []DeduplicatedServer {
	if len(records) == 0 {
		return nil
	}

	match := identity.ServersMatch
	if o.StrictServerMatch {
		match = identity.ServersMatchStrict
	}

	type group struct {
		members   []engine.Server
		matchable bool
	}

	var groups []*group
	for _, rec := range records {
		if _, ok := identity.ServerKey(&rec); !ok {
			groups = append(groups, &group{members: []engine.Server{rec}})
			continue
		}

		placed := false
		for _, g := range groups {
			if !g.matchable {
				continue
			}
			for i := range g.members {
				if match(&g.members[i], &rec) {
					g.members = append(g.members, rec)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			groups = append(groups, &group{
				members:   []engine.Server{rec},
				matchable: true,
			})
		}
	}

	out := make([]DeduplicatedServer, 0, len(groups))
	for _, g := range groups {
		primary := primaryServer(g.members)

		merged := DeduplicatedServer{
			Server:      primary,
			Providers:   make([]string, 0, len(g.members)),
			OriginalIDs: make([]string, 0, len(g.members)),
			MergedData:  g.members,
		}
		for _, m := range g.members {
			merged.Providers = append(merged.Providers, m.Provider)
			merged.OriginalIDs = append(merged.OriginalIDs, m.ID)
		}
		merged.Providers = SortProviders(merged.Providers)

		out = append(out, merged)
	}
	return out
}

// primaryServer selects the group member with the greatest last-update
// timestamp. Ties keep the first encountered; a zero timestamp never
// beats a set one.
func primaryServer(members []engine.Server) engine.Server {
	primary := members[0]
	for _, m := range members[1:] {
		if m.UpdatedAt.After(primary.UpdatedAt) {
			primary = m
		}
	}
	return primary
}
