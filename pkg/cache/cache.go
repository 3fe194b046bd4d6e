// Package cache provides a small TTL cache whose entries expire lazily: a
// stale entry is only noticed, and dropped, when it is read.
package cache

import (
	"sync"
	"time"
)

// TTL is a mutex-guarded map of values that are valid for a fixed duration
// after insertion. There is no background sweep.
type TTL[K comparable, V any] struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[K]entry[V]
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// New creates a cache whose entries live for ttl.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &TTL[K, V]{
		ttl:     ttl,
		clock:   o.clock,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the value for key when present and not older than the TTL.
// A stale entry is removed and reported as a miss.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.clock().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, overwriting any previous entry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, insertedAt: c.clock()}
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// DeleteFunc removes every key for which match returns true.
func (c *TTL[K, V]) DeleteFunc(match func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of stored entries, stale ones included.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
