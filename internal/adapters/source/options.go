package source

import (
	"time"

	"github.com/okian/recomodel/pkg/logger"
)

const (
	defaultTimeout          = 2 * time.Second
	defaultFetchTimeout     = 5 * time.Second
	defaultFailureThreshold = 1
	defaultOpenFor          = time.Minute
)

type settings struct {
	timeout          time.Duration
	fetchTimeout     time.Duration
	failureThreshold uint32
	openFor          time.Duration
	log              logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		timeout:          defaultTimeout,
		fetchTimeout:     defaultFetchTimeout,
		failureThreshold: defaultFailureThreshold,
		openFor:          defaultOpenFor,
		log:              logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to Open and NewBreaker.
type Option func(*settings)

// WithTimeout bounds each Count call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFetchTimeout bounds each Fetch call.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithFailureThreshold sets how many consecutive unavailable counts open the breaker.
func WithFailureThreshold(n uint32) Option {
	return func(s *settings) {
		if n > 0 {
			s.failureThreshold = n
		}
	}
}

// WithLogger sets the diagnostics sink.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
