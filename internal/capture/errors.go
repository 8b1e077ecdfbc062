package capture

import "errors"

// Sentinel errors for capture operations.
var (
	ErrNoFrame        = errors.New("no frame available")
	ErrInvalidFrame   = errors.New("invalid frame")
	ErrNotReported    = errors.New("frame carries no face detection report")
	ErrCancelled      = errors.New("capture cancelled")
	ErrAlreadyRunning = errors.New("capture already running")
)
