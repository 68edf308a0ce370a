package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrUnsupportedScheme = errors.New("unsupported interaction source scheme")
	ErrNotConfigured     = errors.New("no interaction source configured")
)
