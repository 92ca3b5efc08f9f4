package providers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// staticAttempt is one simulated provisioning attempt.
type staticAttempt struct {
	req        engine.ProvisionRequest
	status     engine.ProvisionStatus
	progress   int
	resourceID string
	polls      int
}

// StaticProvider is an in-memory driver that simulates a provider
// account: creation succeeds immediately, status polls advance a fixed
// progress ladder, and cancellation works until the attempt settles.
// It backs the demo CLI and integration-style tests; real integrations
// replace it behind the same Driver surfaces.
type StaticProvider struct {
	name string

	mu       sync.Mutex
	attempts map[string]*staticAttempt

	store *viewStore

	// PollsToSuccess is how many status polls an attempt needs before it
	// reports success. Zero means the first poll already succeeds.
	PollsToSuccess int
}

// viewStore is the lister surface: a fixed snapshot of per-provider
// resource records, keyed by org.
type viewStore struct {
	servers     map[string][]engine.Server
	domains     map[string][]engine.Domain
	webServices map[string][]engine.WebService
	databases   map[string][]engine.Database
}

// NewStaticProvider creates a simulated provider with an empty resource
// snapshot.
func NewStaticProvider(name string) *StaticProvider {
	return &StaticProvider{
		name:           name,
		attempts:       make(map[string]*staticAttempt),
		PollsToSuccess: 2,
		store: &viewStore{
			servers:     make(map[string][]engine.Server),
			domains:     make(map[string][]engine.Domain),
			webServices: make(map[string][]engine.WebService),
			databases:   make(map[string][]engine.Database),
		},
	}
}

// Driver returns the provider wired as a registry driver.
func (p *StaticProvider) Driver() Driver {
	return Driver{Name: p.name, Provisioner: p, Lister: p}
}

// AddServer seeds a server record into the lister snapshot.
func (p *StaticProvider) AddServer(s engine.Server) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.servers[s.OrgID] = append(p.store.servers[s.OrgID], s)
}

// AddDomain seeds a domain record into the lister snapshot.
func (p *StaticProvider) AddDomain(d engine.Domain) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.domains[d.OrgID] = append(p.store.domains[d.OrgID], d)
}

// AddWebService seeds a web service record into the lister snapshot.
func (p *StaticProvider) AddWebService(w engine.WebService) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.webServices[w.OrgID] = append(p.store.webServices[w.OrgID], w)
}

// AddDatabase seeds a database record into the lister snapshot.
func (p *StaticProvider) AddDatabase(d engine.Database) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.databases[d.OrgID] = append(p.store.databases[d.OrgID], d)
}

// --- engine.Provisioner ---

func (p *StaticProvider) Create(ctx context.Context, req engine.ProvisionRequest) (*engine.CreateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.New().String()
	p.attempts[id] = &staticAttempt{
		req:    req,
		status: engine.StatusProvisioning,
	}
	return &engine.CreateResponse{ProvisioningID: id}, nil
}

func (p *StaticProvider) Status(ctx context.Context, provisioningID string) (*engine.StatusReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	attempt, ok := p.attempts[provisioningID]
	if !ok {
		return nil, engine.NewPermanentError("unknown provisioning attempt: "+provisioningID, nil).
			WithCode(engine.ErrCodeNotFound)
	}

	if attempt.status == engine.StatusProvisioning {
		attempt.polls++
		if attempt.polls > p.PollsToSuccess {
			attempt.status = engine.StatusSuccess
			attempt.progress = 100
			attempt.resourceID = uuid.New().String()
		} else {
			attempt.progress = attempt.polls * 100 / (p.PollsToSuccess + 1)
		}
	}

	return &engine.StatusReport{
		Status:     attempt.status,
		Progress:   attempt.progress,
		ResourceID: attempt.resourceID,
	}, nil
}

func (p *StaticProvider) Cancel(ctx context.Context, provisioningID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	attempt, ok := p.attempts[provisioningID]
	if !ok {
		return engine.NewPermanentError("unknown provisioning attempt: "+provisioningID, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	if attempt.status.IsTerminal() {
		return engine.NewConflictError("attempt already settled", nil).
			WithCode(engine.ErrCodeCancelFailed)
	}
	attempt.status = engine.StatusCancelled
	return nil
}

// --- engine.ResourceLister ---

func (p *StaticProvider) ListServers(ctx context.Context, orgID string) ([]engine.Server, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Server(nil), p.store.servers[orgID]...), nil
}

func (p *StaticProvider) ListDomains(ctx context.Context, orgID string) ([]engine.Domain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Domain(nil), p.store.domains[orgID]...), nil
}

func (p *StaticProvider) ListWebServices(ctx context.Context, orgID string) ([]engine.WebService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.WebService(nil), p.store.webServices[orgID]...), nil
}

func (p *StaticProvider) ListDatabases(ctx context.Context, orgID string) ([]engine.Database, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Database(nil), p.store.databases[orgID]...), nil
}
