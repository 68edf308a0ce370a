package artifact

import (
	"fmt"
	"strings"
)

// Open returns the store named by uri: file://path (or a bare path) and
// redis://host:port/db, rediss:// for TLS. key names the redis entry.
func Open(uri, key string, opts ...Option) (Store, error) {
	uri = strings.TrimSpace(uri)
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		scheme, rest = "file", uri
	}

	switch strings.ToLower(scheme) {
	case "file":
		fs, err := NewFileStore(rest, opts...)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "redis", "rediss":
		rs, err := NewRedisStore(uri, key, opts...)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}
