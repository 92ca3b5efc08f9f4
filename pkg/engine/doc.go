// Package engine provides the core types and interfaces for the Deckhand
// control plane.
//
// # Overview
//
// Deckhand aggregates third-party provider accounts ("docks") owned by an
// organization, ingests their resources (servers, domains, web services,
// databases), collapses duplicate records across providers, and drives
// asynchronous resource-provisioning workflows. This package defines the
// shared domain model that the rest of the repository operates on:
//
//   - Dock: a connected provider account scoped to an organization
//   - Server, Domain, WebService, Database: per-provider resource records,
//     each carrying the opaque payload returned by its provider's API
//   - ProvisioningRecord: the persisted state of one provisioning attempt
//   - StatusReport: a provider's answer to a status poll
//
// # Collaborator Interfaces
//
// External systems are consumed through narrow interfaces defined here:
//
//   - SpecValidator: validates a provisioning spec for a provider/kind pair
//   - Provisioner: creates, polls, and cancels remote resources
//   - ResourceLister: supplies raw per-provider resource records
//   - RecordStore: persists provisioning records and their event log
//
// Implementations live in pkg/providers and pkg/stores; the state machines
// in pkg/provisioning and the deduplication engine in pkg/dedupe depend only
// on the contracts.
//
// # Error Classification
//
// Collaborator failures are classified for recovery logic:
//
//   - Transient: temporary failures that may succeed on retry
//   - Throttled: provider rate limiting that requires backoff
//   - Conflict: concurrent modification of the same record
//   - Permanent: non-recoverable errors
//
// Use the helper predicates to inspect errors:
//
//	if engine.IsTransient(err) {
//	    // Retry the operation
//	}
//
// # Status Tracking
//
// ProvisionStatus is the provider-reported lifecycle of one provisioning
// attempt (idle/validating/provisioning/success/error). The richer machine
// states (cancellation, recovery branches) belong to pkg/provisioning; this
// package only models what crosses the collaborator boundary.
package engine
