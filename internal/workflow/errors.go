package workflow

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/veridid/internal/identity"
)

var (
	ErrStepIncomplete = errors.New("active step is not complete")
	ErrUnknownStep    = errors.New("unknown workflow step")
	ErrFinalStep      = errors.New("workflow already at final step")
	ErrStepUnreached  = errors.New("step has not been reached")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownStep):
		return http.StatusBadRequest
	case errors.Is(err, ErrStepIncomplete),
		errors.Is(err, ErrFinalStep),
		errors.Is(err, ErrStepUnreached):
		return http.StatusConflict
	case errors.Is(err, identity.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
