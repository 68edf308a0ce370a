// Package source provides interaction stores (MongoDB, SQLite, memory) behind
// a circuit breaker on population counts. Every call is bounded and failures
// surface as interaction.ErrUnavailable.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/pkg/logger"
)

const breakerName = "interaction-source"

// Breaker guards a Source. After the configured number of consecutive
// unavailable counts it opens and later counts fail fast, so a dead count
// provider costs one timeout per invocation. Fetch never passes through the
// breaker: a count outage is recovered with fallback dimensions and the
// interaction scan still runs under its own timeout.
type Breaker struct {
	inner        interaction.Source
	cb           *gobreaker.CircuitBreaker[any]
	timeout      time.Duration
	fetchTimeout time.Duration
	log          logger.Logger
}

// NewBreaker wraps inner.
func NewBreaker(inner interaction.Source, opts ...Option) *Breaker {
	s := newSettings(opts)
	b := &Breaker{inner: inner, timeout: s.timeout, fetchTimeout: s.fetchTimeout, log: s.log}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     s.openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.failureThreshold
		},
		// Only connectivity problems count against the source.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, interaction.ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn(context.Background(), "circuit breaker state transition",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return b
}

// Count delegates to the wrapped source under the count timeout.
func (b *Breaker) Count(ctx context.Context, kind interaction.Kind) (int, error) {
	res, err := b.cb.Execute(func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		n, err := b.inner.Count(cctx, kind)
		return n, asUnavailable(err)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, fmt.Errorf("%w: %w", interaction.ErrUnavailable, err)
	}
	if err != nil {
		return 0, err
	}
	n, ok := res.(int)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected count type %T", interaction.ErrUnavailable, res)
	}
	return n, nil
}

// Fetch delegates to the wrapped source under the fetch timeout. The breaker
// state neither gates nor records it.
func (b *Breaker) Fetch(ctx context.Context) ([]interaction.Raw, error) {
	cctx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()
	raws, err := b.inner.Fetch(cctx)
	if err != nil {
		return nil, asUnavailable(err)
	}
	return raws, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Close releases the wrapped source when it holds resources.
func (b *Breaker) Close(ctx context.Context) error {
	if c, ok := b.inner.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}

// asUnavailable marks context expiry as a connectivity failure.
func asUnavailable(err error) error {
	if err != nil && !errors.Is(err, interaction.ErrUnavailable) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return fmt.Errorf("%w: %w", interaction.ErrUnavailable, err)
	}
	return err
}
