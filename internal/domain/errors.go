package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the access-control core. Callers match with errors.Is
// and map to a Kind with KindOf.
var (
	ErrAuthenticationMissing = errors.New("authentication missing")
	ErrAuthorizationDenied   = errors.New("authorization denied")
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrBackendUnavailable    = errors.New("admin client unavailable")
	ErrUpstream              = errors.New("upstream error")
)

// Kind is the stable, client-facing name of an error class
type Kind string

const (
	KindAuthenticationMissing Kind = "authentication_missing"
	KindAuthorizationDenied   Kind = "authorization_denied"
	KindNotFound              Kind = "not_found"
	KindValidation            Kind = "validation_failed"
	KindBackendUnavailable    Kind = "backend_unavailable"
	KindUpstream              Kind = "upstream_error"
)

// KindOf classifies err. Anything outside the taxonomy is an upstream error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationMissing):
		return KindAuthenticationMissing
	case errors.Is(err, ErrAuthorizationDenied):
		return KindAuthorizationDenied
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	default:
		return KindUpstream
	}
}

// FieldError is one schema violation on one input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field messages and matches ErrValidation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewFieldError builds a ValidationError for a single field
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Upstream wraps a backend failure so it classifies as ErrUpstream while keeping
// the cause for logs.
func Upstream(op string, err error) error {
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
