package engine

import "context"

// SpecValidator validates a provisioning specification for a given
// provider and resource kind. It is the validation collaborator: on
// success it returns a normalized copy of the spec; on failure it returns
// a descriptive error and the spec is considered unusable as submitted.
type SpecValidator interface {
	// ValidateSpec validates the request's spec and returns the validated
	// copy. The input spec is never mutated.
	ValidateSpec(ctx context.Context, req ProvisionRequest) (Spec, error)
}

// Provisioner creates, polls, and cancels remote resources through one
// provider account. Implementations are expected to enforce provider-side
// rate limits and idempotency; the state machines in pkg/provisioning do
// not serialize calls across independent attempts.
type Provisioner interface {
	// Create submits a validated spec to the provider and returns the
	// server-assigned provisioning identifier.
	Create(ctx context.Context, req ProvisionRequest) (*CreateResponse, error)

	// Status polls the provider for the current status of an attempt.
	// An error means the observation channel broke, not that provisioning
	// itself failed; a failed attempt is reported via StatusReport.Status.
	Status(ctx context.Context, provisioningID string) (*StatusReport, error)

	// Cancel requests cancellation of an in-flight attempt. It fails if
	// cancellation is no longer possible (e.g. already completed).
	Cancel(ctx context.Context, provisioningID string) error
}

// ResourceLister supplies raw per-provider resource records for an
// organization. Each dock contributes one lister; the deduplication
// engine consumes the fanned-in result.
type ResourceLister interface {
	// ListServers lists all server records visible to the organization.
	ListServers(ctx context.Context, orgID string) ([]Server, error)

	// ListDomains lists all domain records visible to the organization.
	ListDomains(ctx context.Context, orgID string) ([]Domain, error)

	// ListWebServices lists all web service records.
	ListWebServices(ctx context.Context, orgID string) ([]WebService, error)

	// ListDatabases lists all database records.
	ListDatabases(ctx context.Context, orgID string) ([]Database, error)
}

// RecordStore persists provisioning records and their event log. The
// working set lives in the document store; a durable archive may sit
// behind the same interface.
type RecordStore interface {
	// SaveRecord inserts or replaces a provisioning record.
	SaveRecord(ctx context.Context, record *ProvisioningRecord) error

	// GetRecord retrieves a provisioning record by ID.
	GetRecord(ctx context.Context, recordID string) (*ProvisioningRecord, error)

	// ListRecords lists an organization's provisioning records, newest
	// first.
	ListRecords(ctx context.Context, orgID string) ([]ProvisioningRecord, error)

	// AppendEvent appends an event to a record's audit trail.
	AppendEvent(ctx context.Context, event *Event) error

	// GetEvents retrieves the audit trail for a record, oldest first.
	GetEvents(ctx context.Context, recordID string) ([]Event, error)
}

// DockStore persists connected provider accounts.
type DockStore interface {
	// SaveDock inserts or replaces a dock.
	SaveDock(ctx context.Context, dock *Dock) error

	// GetDock retrieves a dock by ID.
	GetDock(ctx context.Context, dockID string) (*Dock, error)

	// ListDocks lists an organization's docks.
	ListDocks(ctx context.Context, orgID string) ([]Dock, error)
}
