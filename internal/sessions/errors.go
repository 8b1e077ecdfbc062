package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/identity"
	"github.com/JaimeStill/veridid/internal/wallet"
	"github.com/JaimeStill/veridid/internal/workflow"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// Domain errors for session operations.
var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidID         = errors.New("invalid session id")
	ErrStepNotActive     = errors.New("operation belongs to a step that is not active")
	ErrAlreadyExtracted  = errors.New("document already extracted; re-enter the extraction step to replace it")
	ErrExtractionRunning = errors.New("extraction already running")
	ErrAlreadyCaptured   = errors.New("liveness already captured; retake to capture again")
	ErrCaptureRunning    = errors.New("liveness capture already running")
	ErrCaptureIdle       = errors.New("no liveness capture running")
	ErrPublishRunning    = errors.New("publish already in progress")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrImageTooLarge     = errors.New("image exceeds maximum upload size")
	ErrInvalidRequest    = errors.New("invalid request body")
)

// MapHTTPStatus maps session and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnsupportedImage),
		errors.Is(err, wallet.ErrInvalidAddress),
		errors.Is(err, wallet.ErrNoAccounts),
		errors.Is(err, capture.ErrInvalidFrame):
		return http.StatusBadRequest
	case errors.Is(err, ErrStepNotActive),
		errors.Is(err, ErrAlreadyExtracted),
		errors.Is(err, ErrExtractionRunning),
		errors.Is(err, ErrAlreadyCaptured),
		errors.Is(err, ErrCaptureRunning),
		errors.Is(err, ErrCaptureIdle),
		errors.Is(err, ErrPublishRunning),
		errors.Is(err, identity.ErrDeviceAccess):
		return http.StatusConflict
	case errors.Is(err, identity.ErrPublish):
		return http.StatusBadGateway
	case errors.Is(err, workflow.ErrUnknownStep),
		errors.Is(err, workflow.ErrStepIncomplete),
		errors.Is(err, workflow.ErrFinalStep),
		errors.Is(err, workflow.ErrStepUnreached),
		errors.Is(err, identity.ErrValidation):
		return workflow.MapHTTPStatus(err)
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrEmptyKey),
		errors.Is(err, storage.ErrInvalidURI):
		return storage.MapHTTPStatus(err)
	default:
		return http.StatusInternalServerError
	}
}
