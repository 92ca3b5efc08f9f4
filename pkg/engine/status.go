package engine

import "fmt"

// ProvisionStatus is the provider-reported lifecycle status of one
// provisioning attempt. It is the vocabulary of the status-fetch
// collaborator; the richer machine states (cancellation, recovery
// branches) live in pkg/provisioning.
type ProvisionStatus string

const (
	// StatusIdle indicates the attempt has not been submitted yet.
	StatusIdle ProvisionStatus = "idle"

	// StatusValidating indicates the provider is validating the request.
	StatusValidating ProvisionStatus = "validating"

	// StatusProvisioning indicates the resource is being created.
	StatusProvisioning ProvisionStatus = "provisioning"

	// StatusSuccess indicates the resource was created successfully.
	StatusSuccess ProvisionStatus = "success"

	// StatusError indicates the provider reported a failure.
	StatusError ProvisionStatus = "error"

	// StatusCancelled indicates the attempt was cancelled before
	// completion.
	StatusCancelled ProvisionStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s ProvisionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusCancelled
}

// IsActive returns true if the attempt is still in flight.
func (s ProvisionStatus) IsActive() bool {
	return s == StatusIdle || s == StatusValidating || s == StatusProvisioning
}

// Validate checks if the provision status is valid.
func (s ProvisionStatus) Validate() error {
	switch s {
	case StatusIdle, StatusValidating, StatusProvisioning,
		StatusSuccess, StatusError, StatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid provision status: %s", s)
	}
}
