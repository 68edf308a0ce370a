package lifecycle

import (
	"time"

	"github.com/okian/recomodel/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics sink.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMinInteractions sets the minimum-volume gate.
func WithMinInteractions(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minInteractions = n
		}
	}
}

// WithFallbacks sets the counts used when the source cannot provide them.
func WithFallbacks(actors, items int) Option {
	return func(c *Controller) {
		if actors > 0 {
			c.fallback.Actors = actors
		}
		if items > 0 {
			c.fallback.Items = items
		}
	}
}

// WithLocker guards load-or-train-and-persist against concurrent invocations.
func WithLocker(l Locker) Option {
	return func(c *Controller) {
		if l != nil {
			c.locker = l
		}
	}
}

// WithClock overrides time.Now for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
