package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrNotFound          = errors.New("artifact not found")
	ErrCorrupt           = errors.New("artifact corrupt")
	ErrLocked            = errors.New("artifact locked by another process")
	ErrUnsupportedScheme = errors.New("unsupported model store scheme")
)
