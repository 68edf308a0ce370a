package source

import (
	"context"
	"sync"

	"github.com/okian/recomodel/internal/domain/interaction"
)

// Memory is an in-process source. Counts of zero are reported as zero, which
// the controller treats like an unavailable count.
type Memory struct {
	mu     sync.RWMutex
	actors int
	items  int
	raws   []interaction.Raw
}

// NewMemory creates a memory source with fixed counts.
func NewMemory(actors, items int, raws ...interaction.Raw) *Memory {
	return &Memory{actors: actors, items: items, raws: raws}
}

// Add appends interactions.
func (m *Memory) Add(raws ...interaction.Raw) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raws = append(m.raws, raws...)
}

// SetCounts replaces the population counts.
func (m *Memory) SetCounts(actors, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors, m.items = actors, items
}

// Count returns the configured count for kind.
func (m *Memory) Count(_ context.Context, kind interaction.Kind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if kind == interaction.Items {
		return m.items, nil
	}
	return m.actors, nil
}

// Fetch returns a copy of the stored interactions.
func (m *Memory) Fetch(context.Context) ([]interaction.Raw, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]interaction.Raw, len(m.raws))
	copy(out, m.raws)
	return out, nil
}

// unavailable is the source used when none is configured or opening failed.
type unavailable struct {
	err error
}

func (u unavailable) Count(context.Context, interaction.Kind) (int, error) { return 0, u.err }

func (u unavailable) Fetch(context.Context) ([]interaction.Raw, error) { return nil, u.err }
