package providers

import (
	"context"
	"sync"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// RoutingProvisioner dispatches provisioning calls to the driver of the
// request's provider. Status and cancellation calls carry only the
// attempt identifier, so the router remembers which driver created each
// attempt.
type RoutingProvisioner struct {
	registry *Registry

	mu       sync.RWMutex
	attempts map[string]engine.Provisioner
}

// NewRoutingProvisioner creates a router over a driver registry.
func NewRoutingProvisioner(registry *Registry) *RoutingProvisioner {
	return &RoutingProvisioner{
		registry: registry,
		attempts: make(map[string]engine.Provisioner),
	}
}

func (r *RoutingProvisioner) Create(ctx context.Context, req engine.ProvisionRequest) (*engine.CreateResponse, error) {
	p, err := r.registry.ProvisionerFor(req.Provider)
	if err != nil {
		return nil, err
	}
	resp, err := p.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.attempts[resp.ProvisioningID] = p
	r.mu.Unlock()
	return resp, nil
}

func (r *RoutingProvisioner) Status(ctx context.Context, provisioningID string) (*engine.StatusReport, error) {
	p, err := r.forAttempt(provisioningID)
	if err != nil {
		return nil, err
	}
	return p.Status(ctx, provisioningID)
}

func (r *RoutingProvisioner) Cancel(ctx context.Context, provisioningID string) error {
	p, err := r.forAttempt(provisioningID)
	if err != nil {
		return err
	}
	return p.Cancel(ctx, provisioningID)
}

func (r *RoutingProvisioner) forAttempt(provisioningID string) (engine.Provisioner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.attempts[provisioningID]
	if !ok {
		return nil, engine.NewPermanentError("unknown provisioning attempt: "+provisioningID, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	return p, nil
}
