package cli

import (
	"errors"
	"fmt"
)

// Sentinel kinds for usage errors. All of them exit with status 1.
var (
	ErrNoCommand       = errors.New("no command")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// UsageError carries the offending token alongside its kind. Its message is
// the one shown to callers in the JSON result.
type UsageError struct {
	Kind  error
	Token string
}

func (e *UsageError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrNoCommand):
		return "No command specified"
	case errors.Is(e.Kind, ErrUnknownCommand):
		return fmt.Sprintf("Unknown command: %s", e.Token)
	case errors.Is(e.Kind, ErrMissingArgument):
		return fmt.Sprintf("Missing argument: %s", e.Token)
	default:
		return fmt.Sprintf("Invalid argument: %s", e.Token)
	}
}

func (e *UsageError) Unwrap() error { return e.Kind }

func usageError(kind error, token string) error {
	return &UsageError{Kind: kind, Token: token}
}
