package provisioning

import (
	"context"
	"testing"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

func TestManagerSessions(t *testing.T) {
	ctx := context.Background()
	provisioner := &mockProvisioner{
		resp:    engine.CreateResponse{ProvisioningID: "prov-1"},
		reports: []engine.StatusReport{{Status: engine.StatusSuccess, ResourceID: "srv-1"}},
	}
	mgr := NewManager(Collaborators{
		Validator:   &mockValidator{},
		Provisioner: provisioner,
		Records:     newMockRecordStore(),
	}, nil)

	m1 := mgr.Begin(ctx, "org-1")
	m2 := mgr.Begin(ctx, "org-1")
	if m1.ID() == m2.ID() {
		t.Fatal("sessions share an ID")
	}
	if mgr.Active() != 2 {
		t.Errorf("Active = %d, want 2", mgr.Active())
	}

	got, ok := mgr.Get(m1.ID())
	if !ok || got != m1 {
		t.Error("Get did not return the registered machine")
	}
	if _, ok := mgr.Get("missing"); ok {
		t.Error("Get(missing) = true")
	}

	// Each machine is independent: driving one leaves the other idle.
	fillValidForm(ctx, t, m1)
	m1.Send(ctx, Submit())
	if final := m1.RunToCompletion(ctx, 0); final != StateSuccess {
		t.Fatalf("RunToCompletion = %s, want success", final)
	}
	if m2.State() != StateIdle {
		t.Errorf("second session state = %s, want idle", m2.State())
	}

	// Prune drops the settled session only.
	if n := mgr.Prune(); n != 1 {
		t.Errorf("Prune = %d, want 1", n)
	}
	if mgr.Active() != 1 {
		t.Errorf("Active after prune = %d, want 1", mgr.Active())
	}
	if _, ok := mgr.Get(m1.ID()); ok {
		t.Error("settled session still retrievable after prune")
	}
}

func TestManagerAttach(t *testing.T) {
	ctx := context.Background()
	records := newMockRecordStore()
	provisioner := &mockProvisioner{
		resp:    engine.CreateResponse{ProvisioningID: "prov-1"},
		reports: []engine.StatusReport{{Status: engine.StatusSuccess, ResourceID: "srv-1"}},
	}
	mgr := NewManager(Collaborators{
		Validator:   &mockValidator{},
		Provisioner: provisioner,
		Records:     records,
	}, nil)

	// Drive an attempt to completion, then re-hydrate it from the store
	// as if a second tab opened the deep link.
	m := mgr.Begin(ctx, "org-1")
	fillValidForm(ctx, t, m)
	m.Send(ctx, Submit())
	m.RunToCompletion(ctx, 0)

	p := mgr.Attach(m.Context().ProvisioningID)
	if got := p.Step(ctx); got != ProjectionSuccess {
		t.Fatalf("attached projection state = %s, want success", got)
	}
	if p.Context().ResourceID != "srv-1" {
		t.Errorf("projection resource ID = %q, want srv-1", p.Context().ResourceID)
	}
}
