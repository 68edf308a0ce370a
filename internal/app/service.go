// Package service wires configuration, the interaction source, the model
// artifact store and the lifecycle controller into one runnable unit.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/recomodel/internal/adapters/artifact"
	"github.com/okian/recomodel/internal/adapters/source"
	"github.com/okian/recomodel/internal/config"
	"github.com/okian/recomodel/internal/domain/factorization"
	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/internal/domain/lifecycle"
	"github.com/okian/recomodel/internal/domain/model"
	"github.com/okian/recomodel/pkg/logger"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the lifecycle operations behind the command surface.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	source     interaction.Source
	store      artifact.Store
	controller *lifecycle.Controller

	// Injected replacements, mostly for tests.
	customSource interaction.Source
	customStore  artifact.Store

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the source opened from interaction_source_uri.
func WithSource(src interaction.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.customSource = src
		}
	}
}

// WithStore replaces the store opened from model_store_uri.
func WithStore(st artifact.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.customStore = st
		}
	}
}

// New constructs a Service for cfg. A nil cfg uses defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{cfg: cfg}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the source and the store and builds the controller.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	src := s.customSource
	if src == nil {
		b, err := source.Open(ctx, s.cfg.InteractionSourceURI,
			source.WithTimeout(s.cfg.SourceTimeout()),
			source.WithFetchTimeout(s.cfg.FetchTimeout()),
			source.WithLogger(s.logger.Named("source")))
		if err != nil {
			return fmt.Errorf("open interaction source: %w", err)
		}
		src = b
	}

	store := s.customStore
	if store == nil {
		st, err := artifact.Open(s.cfg.ModelStoreURI, s.cfg.ModelKey)
		if err != nil {
			s.closeSource(ctx, src)
			return fmt.Errorf("open model store: %w", err)
		}
		store = st
	}

	cfg := s.cfg
	m := newStoredModel(store, func() *factorization.ALS {
		return factorization.New(
			factorization.WithFactors(cfg.Factors),
			factorization.WithIterations(cfg.Iterations),
			factorization.WithRegularization(cfg.Regularization),
			factorization.WithWorkers(cfg.Workers),
			factorization.WithSeed(cfg.Seed),
		)
	})

	s.source = src
	s.store = store
	s.controller = lifecycle.New(src, m,
		lifecycle.WithLogger(s.logger),
		lifecycle.WithMinInteractions(cfg.MinInteractions),
		lifecycle.WithFallbacks(cfg.FallbackActorCount, cfg.FallbackItemCount),
		lifecycle.WithLocker(storeLocker{store: store, wait: cfg.LockTimeout()}),
	)

	s.started = true
	s.logger.Debug(ctx, "service started",
		logger.String("store", store.Name()),
		logger.Int("min_interactions", cfg.MinInteractions),
		logger.Int("factors", cfg.Factors))
	return nil
}

// Stop releases the source.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.closeSource(ctx, s.source)
	s.started = false
}

func (s *Service) closeSource(ctx context.Context, src interaction.Source) {
	if c, ok := src.(interface{ Close(context.Context) error }); ok {
		if err := c.Close(ctx); err != nil {
			s.logger.Warn(ctx, "closing interaction source failed", logger.Error(err))
		}
	}
}

func (s *Service) ctl() (*lifecycle.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.controller, nil
}

// Initialize loads or trains the model.
func (s *Service) Initialize(ctx context.Context, t lifecycle.Targets) (lifecycle.Report, error) {
	c, err := s.ctl()
	if err != nil {
		return lifecycle.Report{}, err
	}
	return c.Initialize(ctx, t)
}

// Retrain trains a new model regardless of the persisted one.
func (s *Service) Retrain(ctx context.Context, t lifecycle.Targets) (lifecycle.Report, error) {
	c, err := s.ctl()
	if err != nil {
		return lifecycle.Report{}, err
	}
	return c.Retrain(ctx, t)
}

// Recommend returns up to k items for actorID.
func (s *Service) Recommend(ctx context.Context, actorID string, k int) ([]model.Recommendation, error) {
	c, err := s.ctl()
	if err != nil {
		return nil, err
	}
	return c.Recommend(ctx, actorID, k)
}

// Stats describes the ready model.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	c, err := s.ctl()
	if err != nil {
		return model.Stats{}, err
	}
	return c.Stats(ctx)
}
