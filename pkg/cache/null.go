package cache

import (
	"context"
	"time"
)

// NullCache stands in when caching is off (--no-cache, backend "none").
// Every lookup misses and writes are dropped.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Disabled reports whether c stores nothing, so callers can skip encoding
// values for it. A nil cache counts as disabled.
func Disabled(c Cache) bool {
	if c == nil {
		return true
	}
	_, ok := c.(*NullCache)
	return ok
}

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
