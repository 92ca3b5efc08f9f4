package dedupe

import (
	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/identity"
)

// DeduplicatedDomain is one logical domain assembled from a match-group
// of per-provider records.
type DeduplicatedDomain struct {
	engine.Domain

	// Providers are the distinct provider names contributing to the
	// group, ordered by category (see SortProviders).
	Providers []string `json:"providers"`

	// OriginalIDs are the identifiers of all records in the group.
	OriginalIDs []string `json:"original_ids"`

	// MergedData holds every original record for traceability.
	MergedData []engine.Domain `json:"merged_data"`
}

// DeduplicateDomains groups domain records across providers by their
// normalized hostname. Domain identity is single-valued, so grouping is
// an exact match on the normalized name; records whose hostname
// normalizes to the empty string become singleton groups.
func DeduplicateDomains(records []engine.Domain) []DeduplicatedDomain {
	if len(records) == 0 {
		return nil
	}

	type group struct {
		members []engine.Domain
	}

	var groups []*group
	byName := make(map[string]*group)
	for _, rec := range records {
		name := identity.DomainName(rec.Hostname)
		if name == "" {
			groups = append(groups, &group{members: []engine.Domain{rec}})
			continue
		}

		if g, ok := byName[name]; ok {
			g.members = append(g.members, rec)
			continue
		}
		g := &group{members: []engine.Domain{rec}}
		byName[name] = g
		groups = append(groups, g)
	}

	out := make([]DeduplicatedDomain, 0, len(groups))
	for _, g := range groups {
		primary := primaryDomain(g.members)

		merged := DeduplicatedDomain{
			Domain:      primary,
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

func primaryDomain(members []engine.Domain) engine.Domain {
	primary := members[0]
	for _, m := range members[1:] {
		if m.UpdatedAt.After(primary.UpdatedAt) {
			primary = m
		}
	}
	return primary
}
