package response

import (
	"errors"

	"taskboard/services"
)

// ResolveError maps a service error onto the client-facing error kinds.
// Anything unrecognised is an internal error and its detail is not exposed.
func ResolveError(err error) Error {
	var re Error
	if errors.As(err, &re) {
		return re
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return NewValidationMessage(ve.Message)
	}

	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		return NewNotFoundError(nf.Error())
	}

	return NewInternalError()
}
