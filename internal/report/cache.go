package report

import (
	"context"
	"errors"

	"github.com/seedplatform/control-interface/internal/client"
)

// Cache memoizes remote lookups for the duration of one report run. The
// same identities and message sets come up over and over across sheets,
// so a run-scoped cache saves most of the remote round trips.
//
// A missing remote record is cached as the zero value: the backing data
// is known to be incomplete and the sheets render blanks for it.
// Transport and upstream failures are not cached and propagate.
type Cache[K comparable, V any] struct {
	fetch func(context.Context, K) (V, error)
	items map[K]V
}

func NewCache[K comparable, V any](fetch func(context.Context, K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{fetch: fetch, items: make(map[K]V)}
}

// Get returns the cached value for key, fetching on first use. The zero
// key means "no reference recorded" and short-circuits to the zero value
// without a remote call.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zeroKey K
	var zero V
	if key == zeroKey {
		return zero, nil
	}
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	v, err := c.fetch(ctx, key)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			c.items[key] = zero
			return zero, nil
		}
		return zero, err
	}
	c.items[key] = v
	return v, nil
}
