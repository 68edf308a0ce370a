package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. RECOMODEL_MIN_INTERACTIONS.
	EnvPrefix = "RECOMODEL_"
	// EnvConfigFile points at an optional YAML file.
	EnvConfigFile = "RECOMODEL_CONFIG"
	// EnvLegacySourceURI is read when no interaction_source_uri was configured.
	EnvLegacySourceURI = "DB_URI"
)

// Load builds a Config by layering defaults, optional file, env vars and
// explicit overrides. Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if RECOMODEL_CONFIG is set
//  3. env (prefix RECOMODEL_)
//  4. overrides (key=value tokens from the command line)
func Load(ctx context.Context, overrides map[string]string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(New(ctx), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoadConfig, err)
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RECOMODEL_MIN_INTERACTIONS -> min_interactions (flat keys).
	// RECOMODEL_CONFIG itself is not a key and is dropped.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvConfigFile {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	for key, value := range overrides {
		if !k.Exists(key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("%w: override %s: %w", ErrLoadConfig, key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if cfg.InteractionSourceURI == "" {
		cfg.InteractionSourceURI = os.Getenv(EnvLegacySourceURI)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Keys lists every configuration key, sorted.
func Keys(ctx context.Context) []string {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(New(ctx), "koanf"), nil); err != nil {
		return nil
	}
	keys := k.Keys()
	sort.Strings(keys)
	return keys
}

// IsKey reports whether name is a configuration key.
func IsKey(ctx context.Context, name string) bool {
	for _, key := range Keys(ctx) {
		if key == name {
			return true
		}
	}
	return false
}
