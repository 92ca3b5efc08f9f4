package providers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// serverSpec is the validated shape of a server provisioning spec.
type serverSpec struct {
	Name   string `json:"name" validate:"required,hostname_rfc1123"`
	Region string `json:"region" validate:"required"`
	Plan   string `json:"plan,omitempty"`
	Image  string `json:"image,omitempty"`
}

// domainSpec is the validated shape of a domain provisioning spec.
type domainSpec struct {
	Hostname string `json:"hostname" validate:"required,fqdn"`
	ServerID string `json:"server_id,omitempty"`
}

// webServiceSpec is the validated shape of a web service spec.
type webServiceSpec struct {
	Name     string `json:"name" validate:"required"`
	Domain   string `json:"domain,omitempty" validate:"omitempty,fqdn"`
	ServerID string `json:"server_id" validate:"required"`
	PHP      string `json:"php,omitempty"`
}

// databaseSpec is the validated shape of a database spec.
type databaseSpec struct {
	Name     string `json:"name" validate:"required"`
	Engine   string `json:"engine" validate:"required,oneof=mysql mariadb postgres"`
	ServerID string `json:"server_id" validate:"required"`
}

// SpecValidator validates provisioning specs against per-kind shapes.
// It implements engine.SpecValidator.
type SpecValidator struct {
	validate *validator.Validate
}

// NewSpecValidator creates a spec validator.
func NewSpecValidator() *SpecValidator {
	return &SpecValidator{validate: validator.New()}
}

// ValidateSpec checks the request target and decodes the spec into the
// kind's shape. On success it returns the normalized spec: known string
// fields trimmed, unknown keys dropped. The input is never mutated.
func (v *SpecValidator) ValidateSpec(ctx context.Context, req engine.ProvisionRequest) (engine.Spec, error) {
	if err := req.Kind.Validate(); err != nil {
		return nil, err
	}
	if req.DockID == "" || req.Provider == "" {
		return nil, engine.NewPermanentError("provisioning target is incomplete", nil).
			WithCode(engine.ErrCodeValidation)
	}
	if len(req.Spec) == 0 {
		return nil, engine.NewPermanentError("spec is empty", nil).
			WithCode(engine.ErrCodeValidation)
	}

	var shape any
	switch req.Kind {
	case engine.KindServer:
		shape = &serverSpec{}
	case engine.KindDomain:
		shape = &domainSpec{}
	case engine.KindWebService:
		shape = &webServiceSpec{}
	case engine.KindDatabase:
		shape = &databaseSpec{}
	}

	if err := decodeSpec(req.Spec, shape); err != nil {
		return nil, err
	}
	trimShape(shape)

	if err := v.validate.StructCtx(ctx, shape); err != nil {
		return nil, engine.NewPermanentError(describeValidationError(err), err).
			WithCode(engine.ErrCodeValidation)
	}

	return encodeSpec(shape)
}

// decodeSpec maps the open key-value spec onto a typed shape via a JSON
// round trip; unknown keys are dropped, wrong value types are rejected.
func decodeSpec(spec engine.Spec, shape any) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return engine.NewPermanentError("spec is not serializable", err).
			WithCode(engine.ErrCodeValidation)
	}
	if err := json.Unmarshal(data, shape); err != nil {
		return engine.NewPermanentError("spec has malformed fields", err).
			WithCode(engine.ErrCodeValidation)
	}
	return nil
}

func encodeSpec(shape any) (engine.Spec, error) {
	data, err := json.Marshal(shape)
	if err != nil {
		return nil, engine.NewPermanentError("failed to encode validated spec", err)
	}
	var out engine.Spec
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, engine.NewPermanentError("failed to encode validated spec", err)
	}
	return out, nil
}

func trimShape(shape any) {
	switch s := shape.(type) {
	case *serverSpec:
		s.Name = strings.TrimSpace(s.Name)
		s.Region = strings.ToLower(strings.TrimSpace(s.Region))
		s.Plan = strings.TrimSpace(s.Plan)
		s.Image = strings.TrimSpace(s.Image)
	case *domainSpec:
		s.Hostname = strings.ToLower(strings.TrimSpace(s.Hostname))
		s.ServerID = strings.TrimSpace(s.ServerID)
	case *webServiceSpec:
		s.Name = strings.TrimSpace(s.Name)
		s.Domain = strings.ToLower(strings.TrimSpace(s.Domain))
		s.ServerID = strings.TrimSpace(s.ServerID)
	case *databaseSpec:
		s.Name = strings.TrimSpace(s.Name)
		s.Engine = strings.ToLower(strings.TrimSpace(s.Engine))
		s.ServerID = strings.TrimSpace(s.ServerID)
	}
}

// describeValidationError flattens validator field errors into one
// operator-facing message.
func describeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "spec validation failed: " + err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "oneof":
			parts = append(parts, strings.ToLower(fe.Field())+" must be one of: "+fe.Param())
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid ("+fe.Tag()+")")
		}
	}
	return "spec validation failed: " + strings.Join(parts, "; ")
}
