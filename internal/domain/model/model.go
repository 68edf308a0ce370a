// Package model contains domain models passed between layers.
package model

import "time"

// ArtifactVersion is bumped whenever the persisted model layout changes.
const ArtifactVersion = 1

// Dimensions is the (actor, item) shape a model is trained for.
type Dimensions struct {
	Actors int
	Items  int
}

// Metadata is the fingerprint stored next to a persisted model.
type Metadata struct {
	ActorCount       int
	ItemCount        int
	InteractionCount int
	TrainedAt        time.Time
	Version          int
}

// Dimensions returns the shape recorded in the metadata.
func (m Metadata) Dimensions() Dimensions {
	return Dimensions{Actors: m.ActorCount, Items: m.ItemCount}
}

// Matches reports whether a model with this metadata can serve d.
// Any difference in either dimension invalidates it.
func (m Metadata) Matches(d Dimensions) bool {
	return m.ActorCount == d.Actors && m.ItemCount == d.Items
}

// Recommendation is one predicted item for an actor.
type Recommendation struct {
	ItemID          string  `json:"product_id"`
	PredictedRating float64 `json:"predicted_rating"`
}

// Stats describes the model in use.
type Stats struct {
	Users      int       `json:"n_users"`
	Products   int       `json:"n_products"`
	Ratings    int       `json:"n_ratings"`
	Factors    int       `json:"n_factors"`
	GlobalMean float64   `json:"global_mean"`
	Sparsity   float64   `json:"sparsity"`
	RatingMin  float64   `json:"rating_min"`
	RatingMax  float64   `json:"rating_max"`
	TrainedAt  time.Time `json:"trained_at"`
	ActorCount int       `json:"actor_count"`
	ItemCount  int       `json:"item_count"`
	Version    int       `json:"version"`
}
