package cache

import (
	"context"
	"time"
)

// NullCache stores nothing: every Get misses and every Set is dropped, so a
// runner built on it renders on every call. It backs --no-cache and the
// "none" backend. It deliberately does not implement Clearer.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error)       { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
