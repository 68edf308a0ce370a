package seed

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/recomodel/internal/domain/interaction"
)

// Product statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Action mix for generated interactions, in percent.
const (
	viewShare     = 70
	cartShare     = 20
	archivedShare = 10
)

// Generate builds a random fixture. The same seed yields the same fixture,
// identifiers included.
func Generate(cfg *Config) *Fixture {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic test data

	f := &Fixture{
		Users:    make([]string, cfg.Users),
		Products: make([]Product, cfg.Products),
	}
	for i := range f.Users {
		f.Users[i] = newID(rng, "user")
	}
	for i := range f.Products {
		status := StatusActive
		if rng.Intn(100) < archivedShare {
			status = StatusArchived
		}
		f.Products[i] = Product{ID: newID(rng, "product"), Status: status}
	}
	if len(f.Users) == 0 || len(f.Products) == 0 {
		return f
	}

	f.Interactions = make([]Interaction, cfg.Interactions)
	for i := range f.Interactions {
		f.Interactions[i] = Interaction{
			User:    f.Users[rng.Intn(len(f.Users))],
			Product: f.Products[rng.Intn(len(f.Products))].ID,
			Action:  pickAction(rng).String(),
		}
	}
	return f
}

func pickAction(rng *rand.Rand) interaction.Action {
	switch n := rng.Intn(100); {
	case n < viewShare:
		return interaction.ActionView
	case n < viewShare+cartShare:
		return interaction.ActionCart
	default:
		return interaction.ActionPurchase
	}
}

func newID(rng *rand.Rand, prefix string) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// math/rand never fails to read.
		panic(fmt.Sprintf("generate id: %v", err))
	}
	return prefix + "_" + id.String()
}
