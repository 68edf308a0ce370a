package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/recomodel/internal/domain/interaction"
	"github.com/okian/recomodel/pkg/logger"
)

// Open builds the source named by uri behind a breaker:
//
//	mongodb://host:port/db, mongodb+srv://...   MongoDB
//	sqlite:///path/to/file.db, sqlite://rel.db  SQLite
//	memory://                                   empty in-process source
//
// An empty uri, or a store that cannot be opened, yields a source whose every
// call reports interaction.ErrUnavailable. Only an unknown scheme is an error.
func Open(ctx context.Context, uri string, opts ...Option) (*Breaker, error) {
	s := newSettings(opts)

	inner, err := dial(ctx, uri, s)
	switch {
	case errors.Is(err, interaction.ErrUnavailable):
		s.log.Warn(ctx, "interaction source unavailable", logger.Error(err))
		inner = unavailable{err: err}
	case err != nil:
		return nil, err
	}
	return NewBreaker(inner, opts...), nil
}

func dial(ctx context.Context, uri string, s settings) (interaction.Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("%w: %w", interaction.ErrUnavailable, ErrNotConfigured)
	}

	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, uri)
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, uri, s.timeout)
	case "sqlite":
		return OpenSQLite(rest)
	case "memory":
		return NewMemory(0, 0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}
