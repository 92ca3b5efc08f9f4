package dedupe

import (
	"context"

	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/telemetry"
)

// ListingService fans in the resource listing collaborators of every
// connected dock and runs the deduplication engine over the combined
// result. Output is recomputed on every call and never persisted.
type ListingService struct {
	listers []engine.ResourceLister
	opts    Options
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewListingService creates a listing service over the given listers.
func NewListingService(listers []engine.ResourceLister, opts Options, tel *telemetry.Telemetry) *ListingService {
	return &ListingService{
		listers: listers,
		opts:    opts,
		logger:  tel.Logger.NewComponentLogger("dedupe"),
		metrics: tel.Metrics,
	}
}

// Servers lists an organization's servers, deduplicated across docks.
// A lister failure aborts the whole listing: partial results would make
// the dedup output appear authoritative while silently missing a dock.
func (s *ListingService) Servers(ctx context.Context, orgID string) ([]DeduplicatedServer, error) {
	var records []engine.Server
	for _, lister := range s.listers {
		listed, err := lister.ListServers(ctx, orgID)
		if err != nil {
			return nil, engine.NewTransientError("listing servers failed", err).
				WithOperation("list")
		}
		records = append(records, listed...)
	}

	groups := s.opts.DeduplicateServers(records)
	s.observe("server", len(records), serverGroupSizes(groups))
	return groups, nil
}

// Domains lists an organization's domains, deduplicated across docks.
func (s *ListingService) Domains(ctx context.Context, orgID string) ([]DeduplicatedDomain, error) {
	var records []engine.Domain
	for _, lister := range s.listers {
		listed, err := lister.ListDomains(ctx, orgID)
		if err != nil {
			return nil, engine.NewTransientError("listing domains failed", err).
				WithOperation("list")
		}
		records = append(records, listed...)
	}

	groups := DeduplicateDomains(records)
	s.observe("domain", len(records), domainGroupSizes(groups))
	return groups, nil
}

// WebServices lists an organization's web services across docks. Web
// services carry no cross-provider identity, so the result is the plain
// fan-in.
func (s *ListingService) WebServices(ctx context.Context, orgID string) ([]engine.WebService, error) {
	var records []engine.WebService
	for _, lister := range s.listers {
		listed, err := lister.ListWebServices(ctx, orgID)
		if err != nil {
			return nil, engine.NewTransientError("listing web services failed", err).
				WithOperation("list")
		}
		records = append(records, listed...)
	}
	return records, nil
}

// Databases lists an organization's databases across docks.
func (s *ListingService) Databases(ctx context.Context, orgID string) ([]engine.Database, error) {
	var records []engine.Database
	for _, lister := range s.listers {
		listed, err := lister.ListDatabases(ctx, orgID)
		if err != nil {
			return nil, engine.NewTransientError("listing databases failed", err).
				WithOperation("list")
		}
		records = append(records, listed...)
	}
	return records, nil
}

func (s *ListingService) observe(kind string, inputs int, sizes []int) {
	s.metrics.RecordDedupe(kind, inputs, sizes)
	s.logger.Debugf("deduplicated %d %s records into %d groups", inputs, kind, len(sizes))
}

func serverGroupSizes(groups []DeduplicatedServer) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.MergedData)
	}
	return sizes
}

func domainGroupSizes(groups []DeduplicatedDomain) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.MergedData)
	}
	return sizes
}
