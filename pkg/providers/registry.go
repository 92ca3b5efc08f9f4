package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// Driver bundles one provider's integration surfaces. Either surface may
// be nil: a DNS-only provider has no provisioner for servers, a
// provision-only integration may not support listing.
type Driver struct {
	// Name is the vendor name this driver serves (e.g. "gridpane").
	// Matching against dock and resource providers is case-insensitive.
	Name string

	// Provisioner creates, polls, and cancels resources, when supported.
	Provisioner engine.Provisioner

	// Lister supplies raw resource records for ingestion and listing,
	// when supported.
	Lister engine.ResourceLister
}

// Registry holds the provider drivers available to one service instance.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds a driver. It fails on an empty name or a name already
// registered.
func (r *Registry) Register(d Driver) error {
	key := strings.ToLower(strings.TrimSpace(d.Name))
	if key == "" {
		return fmt.Errorf("driver name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[key]; exists {
		return fmt.Errorf("provider %s already registered", key)
	}
	r.drivers[key] = d
	return nil
}

// Get returns the driver for a provider name.
func (r *Registry) Get(name string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ProvisionerFor returns the provisioner for a provider, or an error
// when the provider is unknown or cannot provision.
func (r *Registry) ProvisionerFor(provider string) (engine.Provisioner, error) {
	d, ok := r.Get(provider)
	if !ok {
		return nil, engine.NewPermanentError("unknown provider: "+provider, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	if d.Provisioner == nil {
		return nil, engine.NewPermanentError("provider does not support provisioning: "+provider, nil).
			WithCode(engine.ErrCodeValidation)
	}
	return d.Provisioner, nil
}

// Listers returns every registered lister, in sorted provider order.
// The deduplication service fans these in.
func (r *Registry) Listers() []engine.ResourceLister {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for name, d := range r.drivers {
		if d.Lister != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]engine.ResourceLister, 0, len(names))
	for _, name := range names {
		out = append(out, r.drivers[name].Lister)
	}
	return out
}
