// Package config defines the CLI configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - The configuration is resolved once, before the lifecycle controller is built.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// InteractionSourceURI selects the interaction store: mongodb://, sqlite://, memory://.
	// Empty means DB_URI from the environment, and if that is empty too every count
	// and fetch reports the source as unavailable.
	InteractionSourceURI string `koanf:"interaction_source_uri"`

	// MinInteractions is the minimum number of distinct ratings needed to train.
	MinInteractions int `koanf:"min_interactions" validate:"gte=1"`

	// FallbackActorCount and FallbackItemCount replace counts the source cannot provide.
	FallbackActorCount int `koanf:"fallback_actor_count" validate:"gte=1"`
	FallbackItemCount  int `koanf:"fallback_item_count" validate:"gte=1"`

	// ModelStoreURI is file://path or redis://host:port/db.
	ModelStoreURI string `koanf:"model_store_uri" validate:"required"`

	// ModelKey names the artifact inside a key-value store.
	ModelKey string `koanf:"model_key" validate:"required"`

	// Factorization parameters.
	Factors        int     `koanf:"factors" validate:"gte=1,lte=512"`
	Iterations     int     `koanf:"iterations" validate:"gte=1"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	Workers        int     `koanf:"workers" validate:"gte=1"`
	Seed           int64   `koanf:"seed"`

	// DefaultK is used when recommend is called without k; MaxK caps it.
	DefaultK int `koanf:"default_k" validate:"gte=1"`
	MaxK     int `koanf:"max_k" validate:"gtefield=DefaultK"`

	SourceTimeoutMS int `koanf:"source_timeout_ms" validate:"gte=1"`
	FetchTimeoutMS  int `koanf:"fetch_timeout_ms" validate:"gte=1"`
	LockTimeoutMS   int `koanf:"lock_timeout_ms" validate:"gte=0"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// MetricsTextfile, when set, receives a Prometheus textfile at exit.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		MinInteractions:    1,
		FallbackActorCount: 5,
		FallbackItemCount:  45,
		ModelStoreURI:      "file://./data/cf_model.gob.gz",
		ModelKey:           "cf_model",
		Factors:            10,
		Iterations:         15,
		Regularization:     0.1,
		Workers:            4,
		Seed:               42,
		DefaultK:           5,
		MaxK:               100,
		SourceTimeoutMS:    2000,
		FetchTimeoutMS:     5000,
		LockTimeoutMS:      30000,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// SourceTimeout is the per-call budget for population counts.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// FetchTimeout bounds the full interaction scan.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// LockTimeout bounds the wait for the artifact lock.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}
