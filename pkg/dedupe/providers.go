package dedupe

import "strings"

// Provider category ranks. Platform-style providers surface first in a
// merged badge list: operators prioritize "who manages this" over "who
// hosts this".
const (
	rankPlatform = 0
	rankInfra    = 1
	rankUnknown  = 2
)

// platformProviders are management-plane / deployment panels (rank 0).
var platformProviders = []string{
	"gridpane",
	"runcloud",
	"ploi",
	"spinupwp",
	"cloudways",
	"forge",
	"serverpilot",
}

// infrastructureProviders are raw compute and storage vendors. They share
// a rank with softwareProviders.
var infrastructureProviders = []string{
	"aws",
	"vultr",
	"digitalocean",
	"linode",
	"hetzner",
	"upcloud",
	"ovh",
	"azure",
	"gcp",
	"scaleway",
}

// softwareProviders are software services (DNS, CDN, registrars) that sit
// alongside infrastructure vendors at rank 1.
var softwareProviders = []string{
	"cloudflare",
	"namecheap",
	"godaddy",
	"github",
}

// providerRank returns the category rank for a provider name,
// case-insensitively. Unrecognized providers rank last.
func providerRank(name string) int {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range platformProviders {
		if n == p {
			return rankPlatform
		}
	}
	for _, p := range infrastructureProviders {
		if n == p {
			return rankInfra
		}
	}
	for _, p := range softwareProviders {
		if n == p {
			return rankInfra
		}
	}
	return rankUnknown
}

// SortProviders orders provider names by category: platform providers
// first, then infrastructure and software providers, then anything
// unrecognized. Within a category the original encounter order is
// preserved, and duplicate names (case-insensitive) are dropped keeping
// the first occurrence.
func SortProviders(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(names))
	buckets := [3][]string{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rank := providerRank(name)
		buckets[rank] = append(buckets[rank], name)
	}

	out := make([]string, 0, len(names))
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}
	return out
}
