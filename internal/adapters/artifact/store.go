// Package artifact persists the trained model as a single sealed blob and
// guards it with a cross-process lock. Stores are bound to one artifact
// location: a file path or a redis key.
package artifact

import (
	"context"
	"time"
)

// Store reads and writes one model artifact.
type Store interface {
	// Name identifies the backend in logs.
	Name() string
	// Read returns the sealed artifact or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the artifact atomically.
	Write(ctx context.Context, data []byte) error
	// Remove deletes the artifact. A missing artifact is not an error.
	Remove(ctx context.Context) error
	// Lock blocks until the artifact lock is held or wait elapses (ErrLocked).
	Lock(ctx context.Context, wait time.Duration) (unlock func(), err error)
}

// Default lock behavior.
const (
	defaultPollInterval = 50 * time.Millisecond
	defaultLease        = 10 * time.Minute
)

type settings struct {
	pollInterval time.Duration
	lease        time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{pollInterval: defaultPollInterval, lease: defaultLease}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithPollInterval sets how often a waiting Lock retries.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLease sets how long a lock may be held before others may break it.
func WithLease(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.lease = d
		}
	}
}

// acquire polls try until it succeeds, ctx ends or wait elapses.
func acquire(ctx context.Context, wait, poll time.Duration, try func() (bool, error)) error {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLocked
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
