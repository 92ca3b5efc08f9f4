package provisioning

import "fmt"

// State is a provisioning machine state.
type State string

const (
	// StateIdle accepts form updates and a guarded SUBMIT.
	StateIdle State = "idle"

	// StateValidating awaits the validation collaborator.
	StateValidating State = "validating"

	// StateValidationError holds a validation failure; offers RETRY and
	// EDIT_FORM.
	StateValidationError State = "validation_error"

	// StateProvisioning awaits the creation collaborator; accepts CANCEL.
	StateProvisioning State = "provisioning"

	// StateCancelling awaits the cancellation collaborator.
	StateCancelling State = "cancelling"

	// StateMonitoring awaits status polls and absorbs push updates.
	StateMonitoring State = "monitoring"

	// StateProvisionError holds a creation or cancellation failure;
	// offers RETRY and EDIT_FORM.
	StateProvisionError State = "provision_error"

	// StateMonitoringError holds a broken observation channel; offers
	// RETRY and the manual FORCE_SUCCESS override.
	StateMonitoringError State = "monitoring_error"

	// StateSuccess is terminal: the resource exists.
	StateSuccess State = "success"

	// StateCancelled is terminal: the attempt was cancelled.
	StateCancelled State = "cancelled"
)

// IsTerminal returns true if the state accepts no further events.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateCancelled
}

// Validate checks if the state is valid.
func (s State) Validate() error {
	switch s {
	case StateIdle, StateValidating, StateValidationError,
		StateProvisioning, StateCancelling, StateMonitoring,
		StateProvisionError, StateMonitoringError,
		StateSuccess, StateCancelled:
		return nil
	default:
		return fmt.Errorf("invalid machine state: %s", s)
	}
}

// ProjectionState is a status projection machine state.
type ProjectionState string

const (
	// ProjectionLoading awaits the record fetch.
	ProjectionLoading ProjectionState = "loading"

	// ProjectionError holds a failed record fetch; offers RETRY.
	ProjectionError ProjectionState = "error"

	// ProjectionMonitoring awaits status polls; accepts CANCEL.
	ProjectionMonitoring ProjectionState = "monitoring"

	// ProjectionCancelling awaits the cancellation collaborator.
	ProjectionCancelling ProjectionState = "cancelling"

	// ProjectionFailed holds a reported failure or a broken poll; offers
	// RETRY back to monitoring.
	ProjectionFailed ProjectionState = "failed"

	// ProjectionSuccess is terminal.
	ProjectionSuccess ProjectionState = "success"

	// ProjectionCancelled is terminal.
	ProjectionCancelled ProjectionState = "cancelled"
)

// IsTerminal returns true if the projection accepts no further events.
func (s ProjectionState) IsTerminal() bool {
	return s == ProjectionSuccess || s == ProjectionCancelled
}
