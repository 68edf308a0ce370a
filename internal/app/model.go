package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/recomodel/internal/adapters/artifact"
	"github.com/okian/recomodel/internal/domain/factorization"
	"github.com/okian/recomodel/internal/domain/lifecycle"
	"github.com/okian/recomodel/internal/domain/model"
	"github.com/okian/recomodel/internal/domain/rating"
)

// storedModel adapts an ALS factorization and an artifact store into the
// lifecycle.Model contract.
type storedModel struct {
	mu     sync.RWMutex
	als    *factorization.ALS
	store  artifact.Store
	newALS func() *factorization.ALS
}

func newStoredModel(store artifact.Store, newALS func() *factorization.ALS) *storedModel {
	return &storedModel{als: newALS(), store: store, newALS: newALS}
}

func (m *storedModel) current() *factorization.ALS {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.als
}

func (m *storedModel) Fit(ctx context.Context, records []rating.Record) error {
	fresh := m.newALS()
	if err := fresh.Fit(ctx, records); err != nil {
		return err
	}
	m.mu.Lock()
	m.als = fresh
	m.mu.Unlock()
	return nil
}

func (m *storedModel) Predict(actorID string, excludeRated bool, k int) ([]model.Recommendation, error) {
	return m.current().Predict(actorID, excludeRated, k)
}

func (m *storedModel) Persist(ctx context.Context, meta model.Metadata) error {
	payload, err := m.current().MarshalBinary()
	if err != nil {
		return err
	}
	data, err := artifact.Seal(meta, payload)
	if err != nil {
		return err
	}
	if err := m.store.Write(ctx, data); err != nil {
		return fmt.Errorf("write %s artifact: %w", m.store.Name(), err)
	}
	return nil
}

func (m *storedModel) Restore(ctx context.Context) (model.Metadata, error) {
	data, err := m.store.Read(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		return model.Metadata{}, lifecycle.ErrNoArtifact
	}
	if err != nil {
		return model.Metadata{}, err
	}

	meta, payload, err := artifact.Unseal(data)
	if err != nil {
		return model.Metadata{}, err
	}
	fresh := m.newALS()
	if err := fresh.UnmarshalBinary(payload); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %w", artifact.ErrCorrupt, err)
	}

	m.mu.Lock()
	m.als = fresh
	m.mu.Unlock()
	return meta, nil
}

func (m *storedModel) Discard(ctx context.Context) error {
	return m.store.Remove(ctx)
}

func (m *storedModel) Describe() model.Stats {
	return m.current().Describe()
}

// storeLocker holds the artifact lock for a bounded wait.
type storeLocker struct {
	store artifact.Store
	wait  time.Duration
}

func (l storeLocker) Lock(ctx context.Context) (func(), error) {
	return l.store.Lock(ctx, l.wait)
}
