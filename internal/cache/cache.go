// Package cache provides time-boxed memoization with single-flight
// semantics: concurrent requests for the same key share exactly one
// in-flight fetch instead of each spawning their own, which matters
// when the fetch is an external process invocation.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	err       error
	fetchedAt time.Time
	settled   bool
	done      chan struct{}
}

type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	now     func() time.Time
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]*entry[T]),
		now:     time.Now,
	}
}

// GetOrUpdate returns the cached value for key while it is younger than
// ttl, joins an already in-flight fetch when one exists, and otherwise
// runs fetch itself. A fetch failure is relayed to every waiter; it is
// remembered until the ttl expires only when cacheErrors is true —
// liveness probes pass false to force a fresh attempt every time.
func (c *Cache[T]) GetOrUpdate(
	ctx context.Context,
	key string,
	ttl time.Duration,
	cacheErrors bool,
	fetch func(context.Context) (T, error),
) (T, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		if e.settled {
			if c.now().Sub(e.fetchedAt) < ttl && (e.err == nil || cacheErrors) {
				value, err := e.value, e.err
				c.mu.Unlock()

				return value, err
			}
			// Stale or uncacheable failure: fall through and refetch.
		} else {
			done := e.done
			c.mu.Unlock()

			select {
			case <-done:
				// Result fields are written before done is closed.
				return e.value, e.err
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}
		}
	}

	e := &entry[T]{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	value, err := fetch(ctx)

	c.mu.Lock()
	e.value = value
	e.err = err
	e.fetchedAt = c.now()
	e.settled = true
	if err != nil && !cacheErrors && c.entries[key] == e {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	close(e.done)

	return value, err
}

// Invalidate drops the settled entry for key, forcing the next read to
// fetch. An in-flight fetch is left alone.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.settled {
		delete(c.entries, key)
	}
}
