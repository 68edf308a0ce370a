// Package interaction defines raw behavioral events and the contract of the
// store that yields them.
package interaction

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrUnavailable marks a source that cannot be reached or queried.
// Callers recover from it with fallback counts or an empty batch.
var ErrUnavailable = errors.New("interaction source unavailable")

// Action is the kind of behavioral signal a user emitted.
type Action int

// Known actions.
const (
	ActionUnknown Action = iota
	ActionView
	ActionCart
	ActionPurchase
)

var actionNames = map[Action]string{ //nolint:gochecknoglobals // read-only lookup
	ActionUnknown:  "unknown",
	ActionView:     "view",
	ActionCart:     "cart",
	ActionPurchase: "purchase",
}

// ParseAction maps a stored action name onto an Action. Unrecognized names
// become ActionUnknown; only the weight matters for aggregation.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return ActionView
	case "cart", "add_to_cart":
		return ActionCart
	case "purchase", "buy":
		return ActionPurchase
	default:
		return ActionUnknown
	}
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return actionNames[ActionUnknown]
}

// DefaultWeight is the weight used when a record carries none.
func (a Action) DefaultWeight() float64 {
	switch a {
	case ActionView:
		return 1
	case ActionCart:
		return 2
	case ActionPurchase:
		return 5
	default:
		return 0
	}
}

// Raw is a single interaction as read from the store.
type Raw struct {
	ActorID string
	ItemID  string
	Action  Action
	Weight  float64
}

// Valid reports whether the record can take part in aggregation: both ids
// present and a finite positive weight.
func (r Raw) Valid() bool {
	if strings.TrimSpace(r.ActorID) == "" || strings.TrimSpace(r.ItemID) == "" {
		return false
	}
	return r.Weight > 0 && !math.IsNaN(r.Weight) && !math.IsInf(r.Weight, 0)
}

// Kind selects which population Count measures.
type Kind int

const (
	// Actors counts all users.
	Actors Kind = iota
	// Items counts active products.
	Items
)

func (k Kind) String() string {
	if k == Items {
		return "items"
	}
	return "actors"
}

// Source yields interactions and population counts.
// Implementations must report connectivity problems as ErrUnavailable.
type Source interface {
	Count(ctx context.Context, kind Kind) (int, error)
	Fetch(ctx context.Context) ([]Raw, error)
}
