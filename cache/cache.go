package cache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// DefaultMaxEntries is the default number of entries a cache holds before evicting.
	DefaultMaxEntries = 512
)

// Config represents the cache configuration.
type Config struct {
	// Name identifies the cache in logs.
	Name string
	// MaxEntries is the number of entries held before the least recently used is evicted.
	MaxEntries int
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Name == "" {
		errs = errors.Join(errs, fmt.Errorf("cache name cannot be an empty string"))
	}
	if cfg.MaxEntries < 0 {
		errs = errors.Join(errs, fmt.Errorf("max entries cannot be negative"))
	}
	if cfg.Now == nil {
		errs = errors.Join(errs, fmt.Errorf("now function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// entry represents a cached value and its absolute expiry.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Stats represents cache usage counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expired   uint64
}

// Cache represents an expiring, size bounded key value cache.
type Cache[V any] struct {
	cfg        *Config
	entries    map[string]*list.Element
	recency    *list.List
	mtx        sync.Mutex
	maxEntries int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64
}

// New initializes a new cache.
func New[V any](cfg *Config) (*Cache[V], error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating cache config: %w", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Cache[V]{
		cfg:        cfg,
		entries:    make(map[string]*list.Element),
		recency:    list.New(),
		maxEntries: maxEntries,
	}, nil
}

// removeElement removes the provided element from the cache. The mutex must be held.
func (c *Cache[V]) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry[V])
	delete(c.entries, ent.key)
	c.recency.Remove(elem)
}

// Get returns the value stored for the provided key. Entries past their expiry are
// discarded and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		c.misses.Inc()
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	if !c.cfg.Now().Before(ent.expiresAt) {
		c.removeElement(elem)
		c.expired.Inc()
		c.misses.Inc()
		return zero, false
	}

	c.recency.MoveToFront(elem)
	c.hits.Inc()

	return ent.value, true
}

// Set stores the provided value until the provided expiry, replacing any existing entry.
func (c *Cache[V]) Set(key string, value V, expiresAt time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.recency.MoveToFront(elem)
		return
	}

	c.entries[key] = c.recency.PushFront(&entry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})

	for c.recency.Len() > c.maxEntries {
		c.removeElement(c.recency.Back())
		c.evictions.Inc()
	}
}

// SetTTL stores the provided value for the provided duration.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.Set(key, value, c.cfg.Now().Add(ttl))
}

// Sweep removes every expired entry and returns the number removed.
func (c *Cache[V]) Sweep() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	now := c.cfg.Now()

	var removed int
	for elem := c.recency.Front(); elem != nil; {
		next := elem.Next()
		ent := elem.Value.(*entry[V])
		if !now.Before(ent.expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}

	if removed > 0 {
		c.expired.Add(uint64(removed))
		c.cfg.Logger.Debug().Msgf("swept %d expired entries from %s cache", removed, c.cfg.Name)
	}

	return removed
}

// Len returns the number of entries held, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.recency.Len()
}

// Stats returns the cache usage counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Expired:   c.expired.Load(),
	}
}

// Name returns the name of the cache.
func (c *Cache[V]) Name() string {
	return c.cfg.Name
}
