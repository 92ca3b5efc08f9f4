package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/dedupe"
	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/providers"
	"github.com/deckhand-io/deckhand/pkg/provisioning"
	"github.com/deckhand-io/deckhand/pkg/stores"
	"github.com/deckhand-io/deckhand/pkg/telemetry"
)

// appRuntime is the shared wiring of all commands: configuration,
// telemetry, stores, the driver registry, and the services on top.
type appRuntime struct {
	cfg      *config.Config
	tel      *telemetry.Telemetry
	docs     *stores.DocumentStore
	archive  *stores.SQLiteArchive
	registry *providers.Registry
	router   *providers.RoutingProvisioner
	records  engine.RecordStore
	listing  *dedupe.ListingService
	manager  *provisioning.Manager
}

// newRuntime builds the runtime from the --config file (or defaults).
// Every configured dock gets a driver in the registry; unknown providers
// are served by the simulated static driver so the CLI works without
// live credentials.
func newRuntime(ctx context.Context) (*appRuntime, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	tel, err := telemetry.NewTelemetry(&cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry: %w", err)
	}

	docs, err := stores.NewDocumentStore()
	if err != nil {
		return nil, err
	}

	rt := &appRuntime{cfg: cfg, tel: tel, docs: docs, registry: providers.NewRegistry()}

	// Record persistence: the document store by default, the SQLite
	// archive when configured.
	var records engine.RecordStore = docs
	if cfg.Store.Backend == "sqlite" {
		archive, err := stores.NewSQLiteArchive(stores.SQLiteConfig{Path: cfg.Store.Path})
		if err != nil {
			return nil, err
		}
		if err := archive.Init(ctx); err != nil {
			return nil, err
		}
		if err := archive.Migrate(ctx); err != nil {
			_ = archive.Close()
			return nil, err
		}
		rt.archive = archive
		records = archive
	}

	// Connect configured docks and register a driver per provider.
	seen := map[string]bool{}
	for _, dc := range cfg.Docks {
		dock := &engine.Dock{
			ID:          dc.ID,
			OrgID:       dc.OrgID,
			Provider:    dc.Provider,
			Label:       dc.Label,
			Enabled:     dc.Enabled,
			ConnectedAt: time.Now(),
		}
		if err := docs.SaveDock(ctx, dock); err != nil {
			return nil, err
		}
		if !dc.Enabled || seen[dc.Provider] {
			continue
		}
		seen[dc.Provider] = true
		if err := rt.registry.Register(providers.NewStaticProvider(dc.Provider).Driver()); err != nil {
			return nil, err
		}
	}

	rt.listing = dedupe.NewListingService(
		rt.registry.Listers(),
		dedupe.Options{StrictServerMatch: cfg.Dedupe.StrictServerMatch},
		tel,
	)
	rt.router = providers.NewRoutingProvisioner(rt.registry)
	rt.manager = provisioning.NewManager(provisioning.Collaborators{
		Validator:   providers.NewSpecValidator(),
		Provisioner: rt.router,
		Records:     records,
	}, tel)
	rt.records = records
	return rt, nil
}

func (rt *appRuntime) shutdown(ctx context.Context) {
	if rt.archive != nil {
		_ = rt.archive.Close()
	}
	_ = rt.tel.Shutdown(ctx)
}
