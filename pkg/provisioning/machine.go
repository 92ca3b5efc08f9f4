package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/telemetry"
)

// Context is the data a machine holds across transitions.
type Context struct {
	// OrgID is the organization the attempt belongs to.
	OrgID string

	// DockID, Provider, and Kind identify the provisioning target.
	DockID   string
	Provider string
	Kind     engine.ResourceKind

	// Spec is the accumulating form specification.
	Spec engine.Spec

	// ValidatedSpec is the validation collaborator's normalized copy.
	ValidatedSpec engine.Spec

	// ProvisioningID is the server-assigned attempt identifier.
	ProvisioningID string

	// ResourceID is the created resource's identifier, once known.
	ResourceID string

	// Status is the last absorbed provider-reported status.
	Status engine.ProvisionStatus

	// Progress and Message are the last absorbed poll details.
	Progress int
	Message  string

	// Error is the held error message of the current error state.
	Error string
}

// Collaborators are the external contracts one machine invokes.
type Collaborators struct {
	// Validator is the validation collaborator.
	Validator engine.SpecValidator

	// Provisioner is the creation/status/cancellation collaborator.
	Provisioner engine.Provisioner

	// Records persists provisioning records and audit events. Optional:
	// a nil store makes the machine fully ephemeral.
	Records engine.RecordStore
}

// transition is one row of the machine's transition table. An empty next
// state keeps the machine where it is (internal event).
type transition struct {
	guard  func(m *Machine, ev Event) bool
	action func(ctx context.Context, m *Machine, ev Event)
	next   State
}

// transitions maps state -> external event -> transition. Events missing
// from a state's row are silently rejected; states missing entirely
// (validating, cancelling, and the terminals) accept no external events.
var transitions = map[State]map[EventType]transition{
	StateIdle: {
		EventFillForm:  {action: mergeFields},
		EventSetTarget: {action: setTarget},
		EventSubmit:    {guard: canSubmit, next: StateValidating},
	},
	StateValidationError: {
		EventRetry:    {next: StateValidating},
		EventEditForm: {action: clearError, next: StateIdle},
	},
	StateProvisioning: {
		EventCancel: {next: StateCancelling},
	},
	StateMonitoring: {
		EventStatusUpdate: {action: absorbPush},
	},
	StateProvisionError: {
		EventRetry:    {next: StateProvisioning},
		EventEditForm: {action: clearError, next: StateIdle},
	},
	StateMonitoringError: {
		EventRetry:        {next: StateMonitoring},
		EventForceSuccess: {action: applyOverride, next: StateSuccess},
	},
}

// Machine is one provisioning attempt's state machine. All methods are
// safe for concurrent use; exactly one event or invocation resolution is
// processed at a time.
type Machine struct {
	mu sync.Mutex

	id    string
	state State

	// gen increments on every transition. An invocation resolution
	// carrying a stale generation is dropped: the machine left the state
	// that invoked it.
	gen uint64

	mctx      Context
	collab    Collaborators
	createdAt time.Time

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	events  *telemetry.EventPublisher
}

// NewMachine creates a machine in the idle state for one organization.
func NewMachine(id, orgID string, collab Collaborators, tel *telemetry.Telemetry) *Machine {
	if tel == nil {
		tel = quietTelemetry()
	}
	return &Machine{
		id:        id,
		state:     StateIdle,
		mctx:      Context{OrgID: orgID, Status: engine.StatusIdle},
		collab:    collab,
		createdAt: time.Now(),
		logger:    tel.Logger.NewComponentLogger("provisioning").WithSessionID(id),
		metrics:   tel.Metrics,
		events:    tel.Events,
	}
}

// ID returns the machine's session identifier.
func (m *Machine) ID() string { return m.id }

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns a copy of the held machine context.
func (m *Machine) Context() Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.mctx
	c.Spec = m.mctx.Spec.Clone()
	c.ValidatedSpec = m.mctx.ValidatedSpec.Clone()
	return c
}

// Can reports whether the machine would currently accept an event of the
// given type.
func (m *Machine) Can(t EventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := transitions[m.state][t]
	if !ok {
		return false
	}
	return tr.guard == nil || tr.guard(m, Event{Type: t})
}

// Send delivers an external event. It returns false when the event is
// not accepted in the current state or its guard rejects it; rejection
// is a silent no-op, not an error. Send never performs I/O.
func (m *Machine) Send(ctx context.Context, ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, ok := transitions[m.state][ev.Type]
	if !ok {
		return false
	}
	if tr.guard != nil && !tr.guard(m, ev) {
		return false
	}
	if tr.action != nil {
		tr.action(ctx, m, ev)
	}
	if tr.next != "" && tr.next != m.state {
		m.transitionTo(ctx, tr.next)
	}
	return true
}

// Step executes the pending collaborator invocation for the current
// state, if any, and feeds its resolution back into the machine. States
// without an invocation are a no-op. The lock is not held across the
// collaborator call, so push events and cancellation stay deliverable
// while the call is in flight; a resolution arriving after the machine
// already moved on is dropped.
func (m *Machine) Step(ctx context.Context) State {
	m.mu.Lock()
	state := m.state
	gen := m.gen
	req := engine.ProvisionRequest{
		OrgID:    m.mctx.OrgID,
		DockID:   m.mctx.DockID,
		Provider: m.mctx.Provider,
		Kind:     m.mctx.Kind,
		Spec:     m.mctx.Spec.Clone(),
	}
	validated := m.mctx.ValidatedSpec.Clone()
	provisioningID := m.mctx.ProvisioningID
	m.mu.Unlock()

	switch state {
	case StateValidating:
		start := time.Now()
		out, err := m.collab.Validator.ValidateSpec(ctx, req)
		m.metrics.RecordCollaboratorCall("validate", time.Since(start), err)
		m.resolveValidation(ctx, gen, out, err)

	case StateProvisioning:
		req.Spec = validated
		start := time.Now()
		resp, err := m.collab.Provisioner.Create(ctx, req)
		m.metrics.RecordCollaboratorCall("create", time.Since(start), err)
		m.resolveCreate(ctx, gen, resp, err)

	case StateCancelling:
		start := time.Now()
		err := m.collab.Provisioner.Cancel(ctx, provisioningID)
		m.metrics.RecordCollaboratorCall("cancel", time.Since(start), err)
		m.resolveCancel(ctx, gen, err)

	case StateMonitoring:
		start := time.Now()
		report, err := m.collab.Provisioner.Status(ctx, provisioningID)
		m.metrics.RecordCollaboratorCall("poll", time.Since(start), err)
		m.resolvePoll(ctx, gen, report, err)
	}

	return m.State()
}

// RunToCompletion steps the machine until it reaches a terminal state or
// an error state that requires an operator decision, polling the monitor
// at the given interval. It returns the state it stopped in.
func (m *Machine) RunToCompletion(ctx context.Context, pollInterval time.Duration) State {
	for {
		state := m.State()
		switch state {
		case StateValidating, StateProvisioning, StateCancelling:
			m.Step(ctx)

		case StateMonitoring:
			if m.Step(ctx) != StateMonitoring {
				continue
			}
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
				return m.State()
			}

		default:
			// Terminal, idle, or an error state: nothing to drive.
			return state
		}

		if ctx.Err() != nil {
			return m.State()
		}
	}
}

// --- transition actions and guards ---

func mergeFields(_ context.Context, m *Machine, ev Event) {
	if len(ev.Fields) == 0 {
		return
	}
	if m.mctx.Spec == nil {
		m.mctx.Spec = make(engine.Spec, len(ev.Fields))
	}
	for k, v := range ev.Fields {
		m.mctx.Spec[k] = v
	}
}

func setTarget(_ context.Context, m *Machine, ev Event) {
	m.mctx.DockID = ev.DockID
	m.mctx.Provider = ev.Provider
	m.mctx.Kind = ev.Kind
}

// canSubmit guards SUBMIT: the target must be fully identified and the
// accumulated spec non-empty. A rejected SUBMIT is a prevented action,
// not a validation failure, so no error is surfaced.
func canSubmit(m *Machine, _ Event) bool {
	return m.mctx.DockID != "" &&
		m.mctx.Provider != "" &&
		m.mctx.Kind != "" &&
		len(m.mctx.Spec) > 0
}

func clearError(_ context.Context, m *Machine, _ Event) {
	m.mctx.Error = ""
}

// absorbPush merges a pushed status report into the held context without
// changing state. Push updates are advisory: only the polling
// collaborator's resolution drives lifecycle progression.
func absorbPush(ctx context.Context, m *Machine, ev Event) {
	if ev.Report == nil {
		return
	}
	m.absorbReport(ev.Report)
	m.publish(ctx, telemetry.EventTypeStatusUpdated, "status update absorbed", nil)
}

// applyOverride records the operator's manual success override. It
// bypasses verification, so it is always audited.
func applyOverride(ctx context.Context, m *Machine, _ Event) {
	m.mctx.Error = ""
	m.mctx.Status = engine.StatusSuccess
	m.metrics.RecordOverride()
	m.logger.Warn("manual success override applied from monitoring error")
	m.appendAudit(ctx, "override_applied", engine.EventLevelWarning,
		"operator forced success while status polling was broken", nil)
	m.publish(ctx, telemetry.EventTypeOverrideApplied,
		"manual success override applied", nil)
}

// --- invocation resolutions ---

func (m *Machine) resolveValidation(ctx context.Context, gen uint64, out engine.Spec, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != StateValidating {
		return
	}

	if err != nil {
		m.mctx.Error = err.Error()
		m.transitionTo(ctx, StateValidationError)
		return
	}
	m.mctx.ValidatedSpec = out
	m.mctx.Error = ""
	m.transitionTo(ctx, StateProvisioning)
}

func (m *Machine) resolveCreate(ctx context.Context, gen uint64, resp *engine.CreateResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != StateProvisioning {
		return
	}

	if err != nil {
		m.mctx.Error = err.Error()
		m.transitionTo(ctx, StateProvisionError)
		return
	}
	m.mctx.ProvisioningID = resp.ProvisioningID
	if resp.ResourceID != "" {
		m.mctx.ResourceID = resp.ResourceID
	}
	m.mctx.Status = engine.StatusProvisioning
	m.mctx.Error = ""
	m.persistRecord(ctx)
	m.transitionTo(ctx, StateMonitoring)
}

func (m *Machine) resolveCancel(ctx context.Context, gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != StateCancelling {
		return
	}

	if err != nil {
		// Cancellation failure routes into the same recovery surface as
		// a creation failure.
		m.mctx.Error = err.Error()
		m.transitionTo(ctx, StateProvisionError)
		return
	}
	m.mctx.Status = engine.StatusCancelled
	m.transitionTo(ctx, StateCancelled)
}

func (m *Machine) resolvePoll(ctx context.Context, gen uint64, report *engine.StatusReport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state != StateMonitoring {
		return
	}

	if err != nil {
		// The observation channel broke; provisioning itself may still
		// be running.
		m.mctx.Error = err.Error()
		m.transitionTo(ctx, StateMonitoringError)
		return
	}

	m.absorbReport(report)
	switch report.Status {
	case engine.StatusSuccess:
		m.transitionTo(ctx, StateSuccess)
	case engine.StatusError:
		if report.Message != "" {
			m.mctx.Error = report.Message
		} else {
			m.mctx.Error = "provider reported a provisioning failure"
		}
		m.transitionTo(ctx, StateProvisionError)
	default:
		// Still in flight; keep monitoring.
		m.persistRecord(ctx)
	}
}

// --- internals (mu held) ---

func (m *Machine) absorbReport(report *engine.StatusReport) {
	m.mctx.Status = report.Status
	if report.Progress > 0 {
		m.mctx.Progress = report.Progress
	}
	if report.Message != "" {
		m.mctx.Message = report.Message
	}
	if report.ResourceID != "" {
		m.mctx.ResourceID = report.ResourceID
	}
}

func (m *Machine) transitionTo(ctx context.Context, next State) {
	from := m.state
	m.state = next
	m.gen++

	if from == StateIdle && next == StateValidating {
		m.metrics.RecordProvisioningStarted()
	}
	m.metrics.RecordTransition(string(from), string(next))
	m.logger.Infof("transition %s -> %s", from, next)

	m.appendAudit(ctx, "state_changed", engine.EventLevelInfo,
		string(from)+" -> "+string(next),
		map[string]any{"from": string(from), "to": string(next)})
	m.publish(ctx, telemetry.EventTypeStateChanged,
		string(from)+" -> "+string(next),
		map[string]any{"from": string(from), "to": string(next)})

	if next.IsTerminal() {
		m.metrics.RecordProvisioningCompleted(string(next))
	}
	m.persistRecord(ctx)
}

// persistRecord snapshots the machine context into the record store. A
// store failure is logged and otherwise ignored: persistence problems
// never crash a machine.
func (m *Machine) persistRecord(ctx context.Context) {
	if m.collab.Records == nil || m.mctx.ProvisioningID == "" {
		return
	}
	record := &engine.ProvisioningRecord{
		ID:             m.mctx.ProvisioningID,
		OrgID:          m.mctx.OrgID,
		DockID:         m.mctx.DockID,
		Provider:       m.mctx.Provider,
		Kind:           m.mctx.Kind,
		Spec:           m.mctx.Spec.Clone(),
		ValidatedSpec:  m.mctx.ValidatedSpec.Clone(),
		ProvisioningID: m.mctx.ProvisioningID,
		ResourceID:     m.mctx.ResourceID,
		Status:         m.mctx.Status,
		Progress:       m.mctx.Progress,
		Message:        m.mctx.Message,
		Error:          m.mctx.Error,
		CreatedAt:      m.createdAt,
		UpdatedAt:      time.Now(),
	}
	if err := m.collab.Records.SaveRecord(ctx, record); err != nil {
		m.logger.WithError(err).Warn("failed to persist provisioning record")
	}
}

func (m *Machine) appendAudit(ctx context.Context, eventType string, level engine.EventLevel, msg string, details map[string]any) {
	if m.collab.Records == nil || m.mctx.ProvisioningID == "" {
		return
	}
	err := m.collab.Records.AppendEvent(ctx, &engine.Event{
		RecordID:  m.mctx.ProvisioningID,
		Type:      eventType,
		Level:     level,
		Message:   msg,
		Details:   details,
		Timestamp: time.Now(),
	})
	if err != nil {
		m.logger.WithError(err).Warn("failed to append audit event")
	}
}

func (m *Machine) publish(ctx context.Context, t telemetry.EventType, msg string, details map[string]any) {
	if m.events == nil {
		return
	}
	m.events.Publish(ctx, telemetry.DomainEvent{
		Type:      t,
		SessionID: m.id,
		RecordID:  m.mctx.ProvisioningID,
		Message:   msg,
		Details:   details,
	})
}

// quietTelemetry builds a telemetry bundle that only logs errors. Used
// when a machine is constructed without an injected bundle.
func quietTelemetry() *telemetry.Telemetry {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Metrics.Enabled = false
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	return tel
}
