package extraction

import "errors"

// ErrNoImage indicates extraction was requested before a document image was stored.
var ErrNoImage = errors.New("no document image")
