package identity

import "errors"

// Error taxonomy for the verification pipeline.
var (
	// ErrDeviceAccess indicates the capture device is unavailable or denied.
	ErrDeviceAccess = errors.New("capture device unavailable")
	// ErrExtraction indicates the OCR capability failed; callers recover with fallback data.
	ErrExtraction = errors.New("identity extraction failed")
	// ErrPublish indicates the metadata document could not be stored.
	ErrPublish = errors.New("metadata publication failed")
	// ErrValidation indicates a record or step contract violation.
	ErrValidation = errors.New("identity record validation failed")
)
