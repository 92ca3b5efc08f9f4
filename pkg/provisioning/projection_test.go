package provisioning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

func seedRecord(t *testing.T, store *mockRecordStore, status engine.ProvisionStatus) *engine.ProvisioningRecord {
	t.Helper()
	record := &engine.ProvisioningRecord{
		ID:             "prov-1",
		OrgID:          "org-1",
		DockID:         "dock-1",
		Provider:       "vultr",
		Kind:           engine.KindServer,
		ProvisioningID: "prov-1",
		Status:         status,
		Progress:       50,
		Message:        "creating instance",
		CreatedAt:      time.Now().Add(-time.Minute),
		UpdatedAt:      time.Now(),
	}
	if status == engine.StatusSuccess {
		record.ResourceID = "srv-9"
		record.Progress = 100
	}
	if status == engine.StatusError {
		record.Error = "disk allocation failed"
	}
	if err := store.SaveRecord(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestProjectionLoadsInFlightRecord(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	provisioner := &mockProvisioner{
		reports: []engine.StatusReport{{Status: engine.StatusProvisioning, Progress: 70}},
	}
	p := NewProjection("prov-1", store, provisioner, nil)

	if p.State() != ProjectionLoading {
		t.Fatalf("state = %s, want loading", p.State())
	}
	if got := p.Step(ctx); got != ProjectionMonitoring {
		t.Fatalf("after load: state = %s, want monitoring", got)
	}
	pctx := p.Context()
	if pctx.Status != engine.StatusProvisioning {
		t.Errorf("status = %s, want provisioning", pctx.Status)
	}
	if pctx.Progress != 50 {
		t.Errorf("progress = %d, want the record's 50", pctx.Progress)
	}

	// The first poll advances the mirrored details.
	if got := p.Step(ctx); got != ProjectionMonitoring {
		t.Fatalf("after poll: state = %s, want monitoring", got)
	}
	if p.Context().Progress != 70 {
		t.Errorf("progress = %d, want 70", p.Context().Progress)
	}
}

func TestProjectionShortCircuitsTerminalRecords(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		status engine.ProvisionStatus
		want   ProjectionState
	}{
		{engine.StatusSuccess, ProjectionSuccess},
		{engine.StatusError, ProjectionFailed},
		{engine.StatusCancelled, ProjectionCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			store := newMockRecordStore()
			seedRecord(t, store, tc.status)
			provisioner := &mockProvisioner{}
			p := NewProjection("prov-1", store, provisioner, nil)

			if got := p.Step(ctx); got != tc.want {
				t.Fatalf("after load: state = %s, want %s", got, tc.want)
			}
			if provisioner.statusCalls != 0 {
				t.Errorf("status calls = %d, want 0 for a settled record", provisioner.statusCalls)
			}
		})
	}
}

func TestProjectionLoadFailureAndRetry(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	store.getErr = errors.New("store unavailable")
	p := NewProjection("prov-1", store, &mockProvisioner{
		reports: []engine.StatusReport{{Status: engine.StatusProvisioning}},
	}, nil)

	if got := p.Step(ctx); got != ProjectionError {
		t.Fatalf("after failed load: state = %s, want error", got)
	}
	if p.Context().Error != "store unavailable" {
		t.Errorf("held error = %q, want store failure message", p.Context().Error)
	}

	store.mu.Lock()
	store.getErr = nil
	store.mu.Unlock()
	if !p.Send(ctx, Retry()) {
		t.Fatal("RETRY rejected in error")
	}
	if got := p.Step(ctx); got != ProjectionMonitoring {
		t.Fatalf("after retried load: state = %s, want monitoring", got)
	}
	if p.Context().Error != "" {
		t.Errorf("error not cleared on retry: %q", p.Context().Error)
	}
}

func TestProjectionPollFailureAndRetry(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	provisioner := &mockProvisioner{statusErr: errors.New("poll timeout")}
	p := NewProjection("prov-1", store, provisioner, nil)

	p.Step(ctx) // load -> monitoring
	if got := p.Step(ctx); got != ProjectionFailed {
		t.Fatalf("after failed poll: state = %s, want failed", got)
	}

	provisioner.mu.Lock()
	provisioner.statusErr = nil
	provisioner.reports = []engine.StatusReport{{Status: engine.StatusSuccess, ResourceID: "srv-9"}}
	provisioner.mu.Unlock()
	if !p.Send(ctx, Retry()) {
		t.Fatal("RETRY rejected in failed")
	}
	if got := p.Step(ctx); got != ProjectionSuccess {
		t.Fatalf("after retried poll: state = %s, want success", got)
	}
	if p.Context().ResourceID != "srv-9" {
		t.Errorf("resource ID = %q, want srv-9", p.Context().ResourceID)
	}
}

func TestProjectionCancel(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	provisioner := &mockProvisioner{
		reports: []engine.StatusReport{{Status: engine.StatusProvisioning}},
	}
	p := NewProjection("prov-1", store, provisioner, nil)

	p.Step(ctx) // load -> monitoring
	if !p.Send(ctx, Cancel()) {
		t.Fatal("CANCEL rejected in monitoring")
	}
	if p.State() != ProjectionCancelling {
		t.Fatalf("state = %s, want cancelling", p.State())
	}
	if got := p.Step(ctx); got != ProjectionCancelled {
		t.Fatalf("after cancel: state = %s, want cancelled", got)
	}
	if provisioner.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want 1", provisioner.cancelCalls)
	}

	for _, ev := range []Event{Retry(), Cancel(), StatusUpdate(&engine.StatusReport{})} {
		if p.Send(ctx, ev) {
			t.Errorf("cancelled projection accepted %s", ev.Type)
		}
	}
}

func TestProjectionStatusUpdateIsAdvisory(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	p := NewProjection("prov-1", store, &mockProvisioner{
		reports: []engine.StatusReport{{Status: engine.StatusProvisioning}},
	}, nil)

	p.Step(ctx) // load -> monitoring
	ok := p.Send(ctx, StatusUpdate(&engine.StatusReport{
		Status:   engine.StatusSuccess,
		Progress: 100,
	}))
	if !ok {
		t.Fatal("STATUS_UPDATE rejected in monitoring")
	}
	if p.State() != ProjectionMonitoring {
		t.Errorf("state = %s, want monitoring after push", p.State())
	}
	if p.Context().Progress != 100 {
		t.Errorf("progress = %d, want 100", p.Context().Progress)
	}
}

func TestProjectionWatch(t *testing.T) {
	ctx := context.Background()
	store := newMockRecordStore()
	seedRecord(t, store, engine.StatusProvisioning)
	provisioner := &mockProvisioner{
		reports: []engine.StatusReport{
			{Status: engine.StatusProvisioning, Progress: 60},
			{Status: engine.StatusSuccess, Progress: 100, ResourceID: "srv-9"},
		},
	}
	p := NewProjection("prov-1", store, provisioner, nil)

	if got := p.Watch(ctx, 0); got != ProjectionSuccess {
		t.Fatalf("Watch = %s, want success", got)
	}
	if p.Context().ResourceID != "srv-9" {
		t.Errorf("resource ID = %q, want srv-9", p.Context().ResourceID)
	}
}
