package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/telemetry"
)

// ProjectionContext is the data a projection holds across transitions.
type ProjectionContext struct {
	// RecordID is the provisioning record being observed.
	RecordID string

	// Record is the last loaded copy of the record.
	Record *engine.ProvisioningRecord

	// Status, Progress, Message, and ResourceID mirror the latest
	// observation.
	Status     engine.ProvisionStatus
	Progress   int
	Message    string
	ResourceID string

	// Error is the held error message of the current error state.
	Error string
}

// Projection re-hydrates and live-tracks the state of an in-flight or
// completed provisioning attempt from its persisted record. It runs
// independently of the session that submitted the attempt: a deep link
// or a second browser tab attaches a projection, never a second Machine.
type Projection struct {
	mu sync.Mutex

	pstate ProjectionState
	gen    uint64
	pctx   ProjectionContext

	records     engine.RecordStore
	provisioner engine.Provisioner

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewProjection creates a projection in the loading state for a record.
func NewProjection(recordID string, records engine.RecordStore, provisioner engine.Provisioner, tel *telemetry.Telemetry) *Projection {
	if tel == nil {
		tel = quietTelemetry()
	}
	return &Projection{
		pstate:      ProjectionLoading,
		pctx:        ProjectionContext{RecordID: recordID},
		records:     records,
		provisioner: provisioner,
		logger:      tel.Logger.NewComponentLogger("projection").WithRecordID(recordID),
		metrics:     tel.Metrics,
	}
}

// State returns the current projection state.
func (p *Projection) State() ProjectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pstate
}

// Context returns a copy of the held projection context.
func (p *Projection) Context() ProjectionContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.pctx
	if p.pctx.Record != nil {
		rec := *p.pctx.Record
		c.Record = &rec
	}
	return c
}

// Can reports whether the projection would currently accept an event of
// the given type.
func (p *Projection) Can(t EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := projectionTransitions[p.pstate][t]
	return ok
}

// projectionTransitions maps projection state -> event -> next state.
// The projection has no guards and only trivial actions, so the table
// holds the next state directly.
var projectionTransitions = map[ProjectionState]map[EventType]ProjectionState{
	ProjectionError: {
		EventRetry: ProjectionLoading,
	},
	ProjectionMonitoring: {
		EventCancel:       ProjectionCancelling,
		EventStatusUpdate: ProjectionMonitoring,
	},
	ProjectionFailed: {
		EventRetry: ProjectionMonitoring,
	},
}

// Send delivers an external event. Rejection is a silent no-op.
func (p *Projection) Send(ctx context.Context, ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, ok := projectionTransitions[p.pstate][ev.Type]
	if !ok {
		return false
	}

	if ev.Type == EventStatusUpdate {
		if ev.Report != nil {
			p.absorb(ev.Report)
		}
		return true
	}
	if ev.Type == EventRetry {
		p.pctx.Error = ""
	}
	p.transitionTo(next)
	return true
}

// Step executes the pending invocation for the current state: the record
// fetch while loading, a status poll while monitoring, the cancellation
// call while cancelling. Other states are a no-op.
func (p *Projection) Step(ctx context.Context) ProjectionState {
	p.mu.Lock()
	state := p.pstate
	gen := p.gen
	recordID := p.pctx.RecordID
	provisioningID := recordID
	if p.pctx.Record != nil && p.pctx.Record.ProvisioningID != "" {
		provisioningID = p.pctx.Record.ProvisioningID
	}
	p.mu.Unlock()

	switch state {
	case ProjectionLoading:
		start := time.Now()
		record, err := p.records.GetRecord(ctx, recordID)
		p.metrics.RecordCollaboratorCall("fetch", time.Since(start), err)
		p.resolveLoad(gen, record, err)

	case ProjectionMonitoring:
		start := time.Now()
		report, err := p.provisioner.Status(ctx, provisioningID)
		p.metrics.RecordCollaboratorCall("poll", time.Since(start), err)
		p.resolvePoll(gen, report, err)

	case ProjectionCancelling:
		start := time.Now()
		err := p.provisioner.Cancel(ctx, provisioningID)
		p.metrics.RecordCollaboratorCall("cancel", time.Since(start), err)
		p.resolveCancel(gen, err)
	}

	return p.State()
}

// Watch steps the projection until it reaches a terminal state or an
// error state, polling at the given interval.
func (p *Projection) Watch(ctx context.Context, pollInterval time.Duration) ProjectionState {
	for {
		state := p.State()
		switch state {
		case ProjectionLoading, ProjectionCancelling:
			p.Step(ctx)

		case ProjectionMonitoring:
			if p.Step(ctx) != ProjectionMonitoring {
				continue
			}
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
				return p.State()
			}

		default:
			return state
		}

		if ctx.Err() != nil {
			return p.State()
		}
	}
}

func (p *Projection) resolveLoad(gen uint64, record *engine.ProvisioningRecord, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.pstate != ProjectionLoading {
		return
	}

	if err != nil {
		p.pctx.Error = err.Error()
		p.transitionTo(ProjectionError)
		return
	}

	p.pctx.Record = record
	p.pctx.Status = record.Status
	p.pctx.Progress = record.Progress
	p.pctx.Message = record.Message
	p.pctx.ResourceID = record.ResourceID

	// A record that already reached a terminal status needs no live
	// tracking.
	switch record.Status {
	case engine.StatusSuccess:
		p.transitionTo(ProjectionSuccess)
	case engine.StatusError:
		p.pctx.Error = record.Error
		p.transitionTo(ProjectionFailed)
	case engine.StatusCancelled:
		p.transitionTo(ProjectionCancelled)
	default:
		p.transitionTo(ProjectionMonitoring)
	}
}

func (p *Projection) resolvePoll(gen uint64, report *engine.StatusReport, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.pstate != ProjectionMonitoring {
		return
	}

	if err != nil {
		// A broken poll folds into failed: the projection has no
		// manual-override surface, only retry.
		p.pctx.Error = err.Error()
		p.transitionTo(ProjectionFailed)
		return
	}

	p.absorb(report)
	switch report.Status {
	case engine.StatusSuccess:
		p.transitionTo(ProjectionSuccess)
	case engine.StatusError:
		if report.Message != "" {
			p.pctx.Error = report.Message
		} else {
			p.pctx.Error = "provider reported a provisioning failure"
		}
		p.transitionTo(ProjectionFailed)
	}
}

func (p *Projection) resolveCancel(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.pstate != ProjectionCancelling {
		return
	}

	if err != nil {
		p.pctx.Error = err.Error()
		p.transitionTo(ProjectionFailed)
		return
	}
	p.pctx.Status = engine.StatusCancelled
	p.transitionTo(ProjectionCancelled)
}

func (p *Projection) absorb(report *engine.StatusReport) {
	p.pctx.Status = report.Status
	if report.Progress > 0 {
		p.pctx.Progress = report.Progress
	}
	if report.Message != "" {
		p.pctx.Message = report.Message
	}
	if report.ResourceID != "" {
		p.pctx.ResourceID = report.ResourceID
	}
}

func (p *Projection) transitionTo(next ProjectionState) {
	from := p.pstate
	p.pstate = next
	p.gen++
	p.metrics.RecordTransition("projection_"+string(from), "projection_"+string(next))
	p.logger.Infof("projection transition %s -> %s", from, next)
}
