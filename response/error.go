package response

import (
	"net/http"
	"sort"
	"strings"
)

const (
	GeneralErrorKey = "general"

	MissedValue             = "missed_value"
	InvalidValue            = "invalid_value"
	InvalidRequestStructure = "invalid_request_structure"
	AlreadyExists           = "already_exists"
)

// Error is anything HandleError knows how to render.
type Error interface {
	error
	Status() int
	Payload() interface{}
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	message string
	errors  map[string]ErrorMessage
}

func NewValidationError(errors ...map[string]ErrorMessage) *ValidationError {
	ve := &ValidationError{errors: make(map[string]ErrorMessage)}
	for _, m := range errors {
		for k, v := range m {
			ve.errors[k] = v
		}
	}
	return ve
}

// NewValidationMessage builds a validation error carrying only a message.
func NewValidationMessage(message string) *ValidationError {
	ve := NewValidationError()
	ve.message = message
	return ve
}

func (e *ValidationError) SetError(key, code, message string) {
	e.errors[key] = ErrorMessage{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	if e.message != "" {
		return e.message
	}
	if len(e.errors) == 0 {
		return "validation failed"
	}

	keys := make([]string, 0, len(e.errors))
	for k := range e.errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == GeneralErrorKey {
			parts = append(parts, e.errors[k].Message)
			continue
		}
		parts = append(parts, k+": "+e.errors[k].Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Status() int { return http.StatusBadRequest }

func (e *ValidationError) Payload() interface{} {
	if len(e.errors) == 0 {
		return nil
	}
	return e.errors
}

type simpleError struct {
	status  int
	message string
}

func (e *simpleError) Error() string        { return e.message }
func (e *simpleError) Status() int          { return e.status }
func (e *simpleError) Payload() interface{} { return nil }

func NewNotFoundError(message string) Error {
	if message == "" {
		message = "not found"
	}
	return &simpleError{status: http.StatusNotFound, message: message}
}

func NewUnauthorizedError(message string) Error {
	return &simpleError{status: http.StatusUnauthorized, message: message}
}

func NewForbiddenError(message string) Error {
	return &simpleError{status: http.StatusForbidden, message: message}
}

func NewInternalError() Error {
	return &simpleError{status: http.StatusInternalServerError, message: "internal server error"}
}
