package provisioning

import "github.com/deckhand-io/deckhand/pkg/engine"

// EventType identifies an external machine event.
type EventType string

const (
	// EventFillForm merges fields into the accumulating spec (idle only).
	EventFillForm EventType = "FILL_FORM"

	// EventSetTarget sets the dock, provider, and resource kind
	// (idle only).
	EventSetTarget EventType = "SET_TARGET"

	// EventSubmit submits the form, guarded on target and spec presence.
	EventSubmit EventType = "SUBMIT"

	// EventRetry retries the failed step of the current error state.
	EventRetry EventType = "RETRY"

	// EventEditForm returns to idle with the held error cleared.
	EventEditForm EventType = "EDIT_FORM"

	// EventCancel requests cooperative cancellation.
	EventCancel EventType = "CANCEL"

	// EventStatusUpdate absorbs a pushed status report while monitoring.
	// Advisory only: it never drives a lifecycle transition.
	EventStatusUpdate EventType = "STATUS_UPDATE"

	// EventForceSuccess is the manual override out of monitoring_error:
	// the operator has confirmed out-of-band that provisioning succeeded.
	// Always audited.
	EventForceSuccess EventType = "FORCE_SUCCESS"
)

// Event is one external machine event with its payload.
type Event struct {
	Type EventType

	// Fields is the FILL_FORM payload, merged into the spec.
	Fields engine.Spec

	// DockID, Provider, and Kind are the SET_TARGET payload.
	DockID   string
	Provider string
	Kind     engine.ResourceKind

	// Report is the STATUS_UPDATE payload.
	Report *engine.StatusReport
}

// FillForm builds a FILL_FORM event.
func FillForm(fields engine.Spec) Event {
	return Event{Type: EventFillForm, Fields: fields}
}

// SetTarget builds a SET_TARGET event.
func SetTarget(dockID, provider string, kind engine.ResourceKind) Event {
	return Event{Type: EventSetTarget, DockID: dockID, Provider: provider, Kind: kind}
}

// Submit builds a SUBMIT event.
func Submit() Event { return Event{Type: EventSubmit} }

// Retry builds a RETRY event.
func Retry() Event { return Event{Type: EventRetry} }

// EditForm builds an EDIT_FORM event.
func EditForm() Event { return Event{Type: EventEditForm} }

// Cancel builds a CANCEL event.
func Cancel() Event { return Event{Type: EventCancel} }

// StatusUpdate builds a STATUS_UPDATE event.
func StatusUpdate(report *engine.StatusReport) Event {
	return Event{Type: EventStatusUpdate, Report: report}
}

// ForceSuccess builds a FORCE_SUCCESS event.
func ForceSuccess() Event { return Event{Type: EventForceSuccess} }
