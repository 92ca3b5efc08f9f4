package engine

import (
	"errors"
	"testing"
)

func TestProvisionStatusClassification(t *testing.T) {
	tests := []struct {
		status   ProvisionStatus
		terminal bool
		active   bool
	}{
		{StatusIdle, false, true},
		{StatusValidating, false, true},
		{StatusProvisioning, false, true},
		{StatusSuccess, true, false},
		{StatusError, true, false},
		{StatusCancelled, true, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.IsActive(); got != tt.active {
			t.Errorf("%s.IsActive() = %v, want %v", tt.status, got, tt.active)
		}
		if err := tt.status.Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", tt.status, err)
		}
	}
	if err := ProvisionStatus("booting").Validate(); err == nil {
		t.Error("unknown status validated")
	}
}

func TestResourceKindValidate(t *testing.T) {
	for _, k := range []ResourceKind{KindServer, KindWebService, KindDatabase, KindDomain} {
		if err := k.Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", k, err)
		}
	}
	if err := ResourceKind("volume").Validate(); err == nil {
		t.Error("unknown kind validated")
	}
}

func TestEngineErrorClassification(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransientError("provider unreachable", cause).
		WithOperation("poll").
		WithRecord("prov-1").
		WithCode(ErrCodeTimeout)

	if !IsTransient(err) || !IsRetryable(err) {
		t.Error("transient error not classified as retryable")
	}
	if IsPermanent(err) {
		t.Error("transient error classified as permanent")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	notFound := NewPermanentError("record not found", nil).WithCode(ErrCodeNotFound)
	if !IsNotFound(notFound) {
		t.Error("NOT_FOUND code not detected")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain error detected as not found")
	}
	if !IsPermanent(notFound) || IsRetryable(notFound) {
		t.Error("permanent error misclassified")
	}

	if !IsConflict(NewConflictError("already settled", nil)) {
		t.Error("conflict error not classified")
	}
	if !IsThrottled(NewThrottledError("rate limited", nil)) {
		t.Error("throttled error not classified")
	}
}

func TestSpecClone(t *testing.T) {
	var nilSpec Spec
	if nilSpec.Clone() != nil {
		t.Error("nil spec should clone to nil")
	}

	spec := Spec{"name": "web-1", "region": "ams"}
	clone := spec.Clone()
	clone["name"] = "mutated"
	if spec["name"] != "web-1" {
		t.Error("clone shares storage with the original")
	}
}
