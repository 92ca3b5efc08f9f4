package provisioning

import (
	"context"
	"sync"

	"github.com/deckhand-io/deckhand/pkg/telemetry"
	"github.com/google/uuid"
)

// Manager owns the provisioning machines of one process. Machines for
// different attempts are fully independent; the manager only tracks and
// constructs them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Machine

	collab Collaborators
	tel    *telemetry.Telemetry
	logger *telemetry.Logger
}

// NewManager creates a session manager with injected collaborators.
func NewManager(collab Collaborators, tel *telemetry.Telemetry) *Manager {
	if tel == nil {
		tel = quietTelemetry()
	}
	return &Manager{
		sessions: make(map[string]*Machine),
		collab:   collab,
		tel:      tel,
		logger:   tel.Logger.NewComponentLogger("sessions"),
	}
}

// Begin creates a new idle machine for an organization and registers it.
func (mgr *Manager) Begin(ctx context.Context, orgID string) *Machine {
	id := uuid.New().String()
	machine := NewMachine(id, orgID, mgr.collab, mgr.tel)

	mgr.mu.Lock()
	mgr.sessions[id] = machine
	active := len(mgr.sessions)
	mgr.mu.Unlock()

	mgr.tel.Metrics.SetActiveSessions(active)
	mgr.tel.Events.Publish(ctx, telemetry.DomainEvent{
		Type:      telemetry.EventTypeSessionStarted,
		SessionID: id,
		Message:   "provisioning session started",
		Details:   map[string]any{"org_id": orgID},
	})
	mgr.logger.WithSessionID(id).WithOrgID(orgID).Info("session started")
	return machine
}

// Get retrieves a machine by session ID.
func (mgr *Manager) Get(sessionID string) (*Machine, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	machine, ok := mgr.sessions[sessionID]
	return machine, ok
}

// Attach creates a status projection for an already-submitted attempt.
// Projections are not tracked: they hold no form state and can be
// recreated from the record at any time.
func (mgr *Manager) Attach(recordID string) *Projection {
	return NewProjection(recordID, mgr.collab.Records, mgr.collab.Provisioner, mgr.tel)
}

// Prune removes machines that reached a terminal state and returns how
// many were removed.
func (mgr *Manager) Prune() int {
	mgr.mu.Lock()
	removed := 0
	for id, machine := range mgr.sessions {
		if machine.State().IsTerminal() {
			delete(mgr.sessions, id)
			removed++
		}
	}
	active := len(mgr.sessions)
	mgr.mu.Unlock()

	mgr.tel.Metrics.SetActiveSessions(active)
	if removed > 0 {
		mgr.logger.Debugf("pruned %d terminal sessions", removed)
	}
	return removed
}

// Active returns the number of tracked sessions.
func (mgr *Manager) Active() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.sessions)
}
