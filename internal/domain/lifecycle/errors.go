package lifecycle

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the controller. These allow errors.Is/As from callers.
var (
	ErrInsufficientSignal = errors.New("insufficient interactions")
	ErrInvalidState       = errors.New("model not initialized")
	ErrTrainingFailure    = errors.New("training failed")
	ErrRejected           = errors.New("initialization was rejected")
	// ErrNoArtifact is returned by Model.Restore when nothing was persisted.
	ErrNoArtifact = errors.New("no persisted model")
)

// InsufficientSignalError reports a failed minimum-volume gate.
type InsufficientSignalError struct {
	Count   int
	Minimum int
}

func (e *InsufficientSignalError) Error() string {
	return fmt.Sprintf("Need at least %d interaction(s). Found: %d", e.Minimum, e.Count)
}

func (e *InsufficientSignalError) Unwrap() error {
	return ErrInsufficientSignal
}
