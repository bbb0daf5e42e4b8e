package service

import (
	"errors"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// ResultError is the client-facing failure of a mutation. Upstream detail
// never reaches it.
type ResultError struct {
	Kind    domain.Kind         `json:"kind"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// Result is what every mutation returns instead of an error
type Result struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ResultError `json:"error,omitempty"`
}

// OK wraps a successful mutation
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail converts err into a structured failure
func Fail(err error) Result {
	kind := domain.KindOf(err)
	re := &ResultError{Kind: kind, Message: messages[kind]}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		re.Fields = verr.Fields
	}
	if re.Message == "" {
		re.Message = messages[domain.KindUpstream]
	}
	return Result{Success: false, Error: re}
}

var messages = map[domain.Kind]string{
	domain.KindAuthenticationMissing: "sign in required",
	domain.KindAuthorizationDenied:   "forbidden",
	domain.KindNotFound:              "not found",
	domain.KindValidation:            "invalid input",
	domain.KindBackendUnavailable:    "admin client unavailable",
	domain.KindUpstream:              "something went wrong, try again",
}
