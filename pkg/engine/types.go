package engine

import (
	"encoding/json"
	"time"
)

// ResourceKind identifies the category of a provider resource.
type ResourceKind string

const (
	// KindServer is a compute instance (VPS, dedicated host, droplet).
	KindServer ResourceKind = "server"

	// KindWebService is a hosted site or application.
	KindWebService ResourceKind = "web-service"

	// KindDatabase is a managed or co-hosted database.
	KindDatabase ResourceKind = "database"

	// KindDomain is a DNS domain or zone.
	KindDomain ResourceKind = "domain"
)

// Validate checks if the resource kind is one of the known kinds.
func (k ResourceKind) Validate() error {
	switch k {
	case KindServer, KindWebService, KindDatabase, KindDomain:
		return nil
	default:
		return NewPermanentError("invalid resource kind: "+string(k), nil).
			WithCode(ErrCodeValidation)
	}
}

// Dock is a connected third-party provider account.
type Dock struct {
	// ID is the unique identifier for this dock.
	ID string `json:"id"`

	// OrgID is the owning organization.
	OrgID string `json:"org_id"`

	// Provider is the free-form vendor name (e.g. "gridpane", "vultr").
	Provider string `json:"provider"`

	// Label is the operator-facing display name for the account.
	Label string `json:"label"`

	// Enabled controls whether the dock participates in sync and listing.
	Enabled bool `json:"enabled"`

	// ConnectedAt is when the account was first linked.
	ConnectedAt time.Time `json:"connected_at"`
}

// ResourceMeta holds the fields shared by every per-provider resource
// record. Records are immutable except via re-sync from the provider.
type ResourceMeta struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`

	// OrgID is the owning organization.
	OrgID string `json:"org_id"`

	// DockID is the provider account this record was ingested from.
	DockID string `json:"dock_id"`

	// Provider is the vendor name of the originating dock.
	Provider string `json:"provider"`

	// Name is the resource name or hostname as reported by the provider.
	Name string `json:"name"`

	// FullAPIData is the opaque provider-specific payload. The core never
	// interprets it; it is carried for traceability and display.
	FullAPIData json.RawMessage `json:"full_api_data,omitempty"`

	// UpdatedAt is when the provider last reported a change.
	UpdatedAt time.Time `json:"updated_at"`
}

// Server is a compute resource record from one provider account.
type Server struct {
	ResourceMeta

	// PrimaryIP is the server's primary public address, if the provider
	// reports one.
	PrimaryIP string `json:"primary_ip,omitempty"`
}

// Domain is a DNS domain record from one provider account.
type Domain struct {
	ResourceMeta

	// Hostname is the raw domain value as reported by the provider. It may
	// include schemes, ports, or trailing dots; normalization happens in
	// pkg/identity.
	Hostname string `json:"hostname"`
}

// WebService is a hosted site or application record.
type WebService struct {
	ResourceMeta

	// URL is the public address of the service, if known.
	URL string `json:"url,omitempty"`
}

// Database is a database record from one provider account.
type Database struct {
	ResourceMeta

	// Engine is the database engine reported by the provider
	// (e.g. "mysql", "postgres").
	Engine string `json:"engine,omitempty"`
}

// Spec is a provisioning specification: an open key-value map whose shape
// is provider and resource-kind specific.
type Spec map[string]any

// Clone returns a shallow copy of the spec. A nil spec clones to nil.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ProvisionRequest describes one provisioning attempt before submission.
type ProvisionRequest struct {
	// OrgID is the organization the resource will belong to.
	OrgID string `json:"org_id"`

	// DockID is the provider account to provision through.
	DockID string `json:"dock_id"`

	// Provider is the vendor name of the dock.
	Provider string `json:"provider"`

	// Kind is the resource kind to create.
	Kind ResourceKind `json:"kind"`

	// Spec is the accumulated provisioning specification.
	Spec Spec `json:"spec"`
}

// CreateResponse is the creation collaborator's answer to a successful
// provisioning submission.
type CreateResponse struct {
	// ProvisioningID is the server-assigned identifier for the attempt.
	ProvisioningID string `json:"provisioning_id"`

	// ResourceID is the identifier of the resource being created, when the
	// provider assigns it eagerly. It may also arrive later via polling.
	ResourceID string `json:"resource_id,omitempty"`
}

// StatusReport is the status-fetch collaborator's answer to a poll.
type StatusReport struct {
	// Status is the provider-reported lifecycle status.
	Status ProvisionStatus `json:"status"`

	// Progress is an optional completion percentage (0-100).
	Progress int `json:"progress,omitempty"`

	// Message is an optional human-readable progress message.
	Message string `json:"message,omitempty"`

	// ResourceID is the identifier of the created resource, once known.
	ResourceID string `json:"resource_id,omitempty"`
}

// ProvisioningRecord is the persisted state of one provisioning attempt.
// It is written once creation succeeds and updated on every lifecycle
// change, so a status projection in a different session can re-hydrate it.
type ProvisioningRecord struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`

	// OrgID is the owning organization.
	OrgID string `json:"org_id"`

	// DockID is the provider account the attempt runs through.
	DockID string `json:"dock_id"`

	// Provider is the vendor name of the dock.
	Provider string `json:"provider"`

	// Kind is the resource kind being created.
	Kind ResourceKind `json:"kind"`

	// Spec is the raw specification as submitted.
	Spec Spec `json:"spec"`

	// ValidatedSpec is the validation collaborator's normalized copy.
	ValidatedSpec Spec `json:"validated_spec,omitempty"`

	// ProvisioningID is the server-assigned identifier for the attempt.
	ProvisioningID string `json:"provisioning_id"`

	// ResourceID is the identifier of the created resource, once known.
	ResourceID string `json:"resource_id,omitempty"`

	// Status is the last observed lifecycle status.
	Status ProvisionStatus `json:"status"`

	// Progress is the last reported completion percentage.
	Progress int `json:"progress,omitempty"`

	// Message is the last reported progress message.
	Message string `json:"message,omitempty"`

	// Error is the last held error message, if any.
	Error string `json:"error,omitempty"`

	// CreatedAt is when the record was first persisted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// EventLevel is the severity of a provisioning event.
type EventLevel string

const (
	EventLevelDebug   EventLevel = "debug"
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// Event is one entry in a provisioning record's audit trail.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// RecordID is the provisioning record this event belongs to.
	RecordID string `json:"record_id"`

	// Type is the event type (e.g. "state_changed", "override_applied").
	Type string `json:"type"`

	// Level is the event severity.
	Level EventLevel `json:"level"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Details contains additional structured context.
	Details map[string]any `json:"details,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}
