package storage

import (
	"context"
	"fmt"
)

type Options struct {
	Driver    string
	Path      string
	RedisURL  string
	DSN       string
	Namespace string
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "memory":
		return NewMemStore(), nil
	case "none":
		return Nop{}, nil
	case "leveldb":
		return OpenLevelStore(opts.Path)
	case "redis":
		s, err := OpenRedisStore(opts.RedisURL, opts.Namespace)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, nil
	case "postgres":
		return OpenPostgresStore(ctx, opts.DSN, opts.Namespace)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
