// Package lifecycle decides whether a persisted recommendation model can be
// reused, must be retrained, or must not be trained at all, and serves
// predictions once a model is ready.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/internal/domain/model"
	"github.com/okian/recomodel/internal/domain/rating"
	"github.com/okian/recomodel/pkg/logger"
	"github.com/okian/recomodel/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	DefaultMinInteractions    = 1
	DefaultFallbackActorCount = 5
	DefaultFallbackItemCount  = 45
)

// Model is the trainable recommender and its persisted artifact.
type Model interface {
	Fit(ctx context.Context, records []rating.Record) error
	Predict(actorID string, excludeRated bool, k int) ([]model.Recommendation, error)
	// Persist stores the fitted model together with meta.
	Persist(ctx context.Context, meta model.Metadata) error
	// Restore loads the persisted model and returns its metadata, or
	// ErrNoArtifact when nothing was stored.
	Restore(ctx context.Context) (model.Metadata, error)
	// Discard removes the persisted model, if any.
	Discard(ctx context.Context) error
	Describe() model.Stats
}

// Locker serializes load-or-train-and-persist across processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

type noLock struct{}

func (noLock) Lock(context.Context) (func(), error) { return func() {}, nil }

// Targets are the dimensions requested by the caller. A nil field is
// resolved from the interaction source.
type Targets struct {
	Actors *int
	Items  *int
}

// Report describes the outcome of Initialize or Retrain.
type Report struct {
	Decision         Decision
	Dimensions       model.Dimensions
	InteractionCount int
	Skipped          int
	Stats            model.Stats
}

// Controller owns the lifecycle of one model for one invocation.
type Controller struct {
	source interaction.Source
	model  Model
	locker Locker
	log    logger.Logger
	now    func() time.Time

	minInteractions int
	fallback        model.Dimensions

	mu     sync.Mutex
	state  State
	meta   model.Metadata
	report Report
}

// New creates a controller over the given source and model.
func New(source interaction.Source, m Model, opts ...Option) *Controller {
	c := &Controller{
		source:          source,
		model:           m,
		locker:          noLock{},
		log:             logger.Nop(),
		now:             time.Now,
		minInteractions: DefaultMinInteractions,
		fallback: model.Dimensions{
			Actors: DefaultFallbackActorCount,
			Items:  DefaultFallbackItemCount,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("lifecycle")
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Initialize makes a model ready: it reuses the persisted model when its
// dimensions match the targets and trains a new one otherwise. It never
// trains below the minimum interaction volume.
func (c *Controller) Initialize(ctx context.Context, t Targets) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Ready:
		return c.report, nil
	case Rejected:
		return c.report, ErrRejected
	}
	return c.run(ctx, t, false)
}

// Retrain fits a new model regardless of the persisted one. The volume gate
// still applies; when it fails a previously ready model keeps serving.
func (c *Controller) Retrain(ctx context.Context, t Targets) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Rejected {
		return c.report, ErrRejected
	}
	return c.run(ctx, t, true)
}

func (c *Controller) run(ctx context.Context, t Targets, force bool) (Report, error) {
	dims := c.resolve(ctx, t)
	agg := c.aggregate(ctx)

	report := Report{
		Dimensions:       dims,
		InteractionCount: agg.Count,
		Skipped:          agg.Skipped,
	}

	if agg.Count < c.minInteractions {
		report.Decision = DecisionReject
		metrics.RecordDecision(metrics.DecisionReject)
		c.log.Warn(ctx, "not enough interactions to train",
			logger.Int("interactions", agg.Count),
			logger.Int("minimum", c.minInteractions))
		if c.state != Ready {
			c.state = Rejected
			c.report = report
		}
		return report, &InsufficientSignalError{Count: agg.Count, Minimum: c.minInteractions}
	}

	unlock, err := c.locker.Lock(ctx)
	if err != nil {
		return c.fail(ctx, report, fmt.Errorf("%w: %w", ErrTrainingFailure, err))
	}
	defer unlock()

	if !force {
		if meta, ok := c.restore(ctx, dims); ok {
			report.Decision = DecisionReuse
			metrics.RecordDecision(metrics.DecisionReuse)
			c.log.Info(ctx, "reusing persisted model",
				logger.Int("actors", dims.Actors),
				logger.Int("items", dims.Items))
			return c.ready(report, meta), nil
		}
	}

	meta, err := c.train(ctx, dims, agg)
	if err != nil {
		return c.fail(ctx, report, err)
	}
	report.Decision = DecisionTrain
	metrics.RecordDecision(metrics.DecisionTrain)
	return c.ready(report, meta), nil
}

// resolve fills missing targets from the source, falling back to constants
// when a count is unavailable or zero.
func (c *Controller) resolve(ctx context.Context, t Targets) model.Dimensions {
	return model.Dimensions{
		Actors: c.count(ctx, interaction.Actors, t.Actors, c.fallback.Actors),
		Items:  c.count(ctx, interaction.Items, t.Items, c.fallback.Items),
	}
}

func (c *Controller) count(ctx context.Context, kind interaction.Kind, target *int, fallback int) int {
	if target != nil {
		return *target
	}
	n, err := c.source.Count(ctx, kind)
	if err == nil && n > 0 {
		return n
	}
	fields := []logger.Field{logger.String("dimension", kind.String()), logger.Int("fallback", fallback)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	c.log.Warn(ctx, "count unavailable, using fallback", fields...)
	metrics.RecordSourceFallback(kind.String())
	return fallback
}

// aggregate reads and deduplicates interactions. A failed fetch counts as no
// interactions.
func (c *Controller) aggregate(ctx context.Context) rating.Result {
	raws, err := c.source.Fetch(ctx)
	if err != nil {
		c.log.Warn(ctx, "fetching interactions failed", logger.Error(err))
		raws = nil
	}
	res := rating.Aggregate(raws)
	metrics.RecordAggregation(res.Count, res.Skipped)
	if res.Skipped > 0 {
		c.log.Debug(ctx, "skipped malformed interactions", logger.Int("skipped", res.Skipped))
	}
	return res
}

// restore loads the persisted model when it still fits dims.
func (c *Controller) restore(ctx context.Context, dims model.Dimensions) (model.Metadata, bool) {
	var meta model.Metadata
	err := guard(func() error {
		var rerr error
		meta, rerr = c.model.Restore(ctx)
		return rerr
	})
	switch {
	case errors.Is(err, ErrNoArtifact):
		c.log.Info(ctx, "no persisted model")
		return model.Metadata{}, false
	case err != nil:
		metrics.RecordCorruptArtifact()
		c.log.Warn(ctx, "persisted model unreadable, retraining", logger.Error(err))
		return model.Metadata{}, false
	case meta.Version != model.ArtifactVersion:
		c.log.Info(ctx, "persisted model has an old layout", logger.Int("version", meta.Version))
		return model.Metadata{}, false
	case !meta.Matches(dims):
		c.log.Info(ctx, "persisted model is stale",
			logger.Int("stored_actors", meta.ActorCount),
			logger.Int("stored_items", meta.ItemCount),
			logger.Int("actors", dims.Actors),
			logger.Int("items", dims.Items))
		return model.Metadata{}, false
	}
	return meta, true
}

func (c *Controller) train(ctx context.Context, dims model.Dimensions, agg rating.Result) (model.Metadata, error) {
	if err := guard(func() error { return c.model.Discard(ctx) }); err != nil {
		c.log.Warn(ctx, "discarding stale model failed", logger.Error(err))
	}

	start := time.Now()
	meta := model.Metadata{
		ActorCount:       dims.Actors,
		ItemCount:        dims.Items,
		InteractionCount: agg.Count,
		TrainedAt:        c.now().UTC(),
		Version:          model.ArtifactVersion,
	}

	if err := guard(func() error { return c.model.Fit(ctx, agg.Records) }); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: fit: %w", ErrTrainingFailure, err)
	}
	if err := guard(func() error { return c.model.Persist(ctx, meta) }); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: persist: %w", ErrTrainingFailure, err)
	}

	elapsed := time.Since(start)
	metrics.RecordFitDuration(float64(elapsed.Milliseconds()))
	c.log.Info(ctx, "trained model",
		logger.Int("actors", dims.Actors),
		logger.Int("items", dims.Items),
		logger.Int("interactions", agg.Count),
		logger.Float64("duration_ms", float64(elapsed.Microseconds())/1000))
	return meta, nil
}

func (c *Controller) ready(report Report, meta model.Metadata) Report {
	c.state = Ready
	c.meta = meta
	report.Stats = c.describe()
	c.report = report
	metrics.UpdateModelDimensions(meta.ActorCount, meta.ItemCount)
	return report
}

func (c *Controller) fail(ctx context.Context, report Report, err error) (Report, error) {
	metrics.RecordFitFailure()
	c.log.Error(ctx, "model lifecycle failed", logger.Error(err))
	if c.state != Ready {
		c.state = Rejected
		c.report = report
	}
	return report, err
}

// Recommend returns up to k unseen items for the actor.
func (c *Controller) Recommend(ctx context.Context, actorID string, k int) ([]model.Recommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready {
		return nil, fmt.Errorf("%w: state %s", ErrInvalidState, c.state)
	}

	var recs []model.Recommendation
	err := guard(func() error {
		var perr error
		recs, perr = c.model.Predict(actorID, true, k)
		return perr
	})
	if err != nil {
		c.log.Error(ctx, "prediction failed", logger.String("actor", actorID), logger.Error(err))
		return nil, err
	}
	if recs == nil {
		recs = []model.Recommendation{}
	}
	return recs, nil
}

// Stats describes the ready model, including its persisted dimensions.
func (c *Controller) Stats(_ context.Context) (model.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready {
		return model.Stats{}, fmt.Errorf("%w: state %s", ErrInvalidState, c.state)
	}
	return c.describe(), nil
}

func (c *Controller) describe() model.Stats {
	var st model.Stats
	if err := guard(func() error { st = c.model.Describe(); return nil }); err != nil {
		c.log.Error(context.Background(), "describe failed", logger.Error(err))
	}
	st.ActorCount = c.meta.ActorCount
	st.ItemCount = c.meta.ItemCount
	st.TrainedAt = c.meta.TrainedAt
	st.Version = c.meta.Version
	return st
}

// guard converts a panic in fn into ErrTrainingFailure.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTrainingFailure, r)
		}
	}()
	return fn()
}
