package ocr

import "errors"

var (
	// ErrRecognition indicates the vision model call failed or returned no content.
	ErrRecognition = errors.New("document recognition failed")
	// ErrUnresolvable indicates the image reference could not be turned into image data.
	ErrUnresolvable = errors.New("image reference not resolvable")
)
