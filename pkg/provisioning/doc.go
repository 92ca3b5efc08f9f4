// Package provisioning drives asynchronous resource creation through two
// cooperating finite-state machines.
//
// # The provisioning machine
//
// Machine coordinates one provisioning attempt from form filling to a
// terminal state:
//
//	idle -> validating -> provisioning -> monitoring -> success
//
// with recoverable error branches (validation_error, provision_error,
// monitoring_error), an explicit cancelling state, and the terminal
// states success and cancelled. Transitions for external events are
// declared in a static transition table (state -> event -> guard/action/
// next); the asynchronous collaborator work of a state is executed by
// Step, which feeds the resolution back into the machine.
//
// Each machine instance is cooperative: exactly one event is processed at
// a time and at most one invoked operation runs per state. Send never
// performs I/O; Step performs exactly one collaborator invocation. If the
// machine leaves a state while its invocation is in flight (for example a
// CANCEL accepted during a slow create), the stale resolution is dropped.
//
// # The status projection machine
//
// Projection re-hydrates and live-tracks an already-submitted attempt
// from its persisted record, independent of the originating session:
//
//	loading -> monitoring -> success | failed
//
// It intentionally duplicates the monitoring logic of Machine rather than
// sharing it: it starts from persisted state (no form, no validation, no
// creation) and has a smaller recovery surface.
//
// # Sessions
//
// Manager owns the machine instances of one process, keyed by session ID.
// Independent attempts run as fully independent machines with no shared
// lock; the provisioning collaborator is assumed to enforce provider-side
// rate limits and idempotency.
package provisioning
