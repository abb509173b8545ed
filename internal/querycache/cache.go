// Package querycache is the client-side query cache: one cached value per
// query scope, with time-based staleness, explicit invalidation, exact
// snapshot/restore for optimistic updates and de-duplicated refetching.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"circles/internal/observability"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime  = 30 * time.Second
	DefaultMaxEntries = 512
)

// Options configures a Cache.
type Options struct {
	// StaleTime is how long a written value is served without refetching.
	StaleTime time.Duration
	// MaxEntries bounds the number of scopes held; least recently used are evicted.
	MaxEntries int
	Now        func() time.Time
}

// Entry is a read-only view of one cached scope.
type Entry struct {
	Data      any
	UpdatedAt time.Time
	Stale     bool
}

type entry struct {
	data      any
	updatedAt time.Time
	stale     bool
	gen       uint64
}

// Snapshot captures the exact state of a scope, including its absence.
type Snapshot struct {
	Key     Key
	entry   entry
	present bool
}

// Present reports whether the scope held a value when the snapshot was taken.
func (s Snapshot) Present() bool { return s.present }

// Cache is safe for concurrent use. Stored values are treated as immutable:
// writers must replace slices rather than modify them in place.
type Cache struct {
	mu        sync.Mutex
	entries   *lru.Cache[Key, entry]
	gen       uint64
	pins      map[Key]int
	removed   map[Key]uint64
	watchers  map[Key]map[uint64]func(Key)
	nextWatch uint64
	flight    singleflight.Group
	staleTime time.Duration
	now       func() time.Time
}

// New creates a Cache.
func New(opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[Key, entry](opts.MaxEntries)
	return &Cache{
		entries:   entries,
		pins:      make(map[Key]int),
		removed:   make(map[Key]uint64),
		watchers:  make(map[Key]map[uint64]func(Key)),
		staleTime: opts.StaleTime,
		now:       opts.Now,
	}
}

// Get returns the cached entry for key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false
	}
	return Entry{Data: e.data, UpdatedAt: e.updatedAt, Stale: e.stale}, true
}

// Set stores data as the fresh value of key.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	c.putLocked(key, data, false)
	c.mu.Unlock()
	c.notify(key)
}

// Update replaces the value of key with the result of fn. fn receives the
// current value and whether one exists; it returns the replacement and
// whether to write it. The stale flag of an existing entry is preserved.
func (c *Cache) Update(key Key, fn func(old any, ok bool) (any, bool)) bool {
	c.mu.Lock()
	old, ok := c.entries.Peek(key)
	next, write := fn(old.data, ok)
	if write {
		c.putLocked(key, next, ok && old.stale)
	}
	c.mu.Unlock()
	if write {
		c.notify(key)
	}
	return write
}

// Invalidate marks key stale so the next Fetch refetches it. It reports
// whether the key was cached.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries.Peek(key)
	if ok {
		c.gen++
		e.stale = true
		e.gen = c.gen
		c.entries.Add(key, e)
	}
	c.mu.Unlock()
	if ok {
		c.notify(key)
	}
	return ok
}

// InvalidatePrefix marks every cached key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix string) int {
	n := 0
	for _, k := range c.KeysWithPrefix(prefix) {
		if c.Invalidate(k) {
			n++
		}
	}
	return n
}

// Remove drops key from the cache.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	c.gen++
	removed := c.entries.Remove(key)
	if removed {
		c.removed[key] = c.gen
	}
	c.mu.Unlock()
	if removed {
		c.notify(key)
	}
}

// Keys returns the cached keys from oldest to newest use.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Keys()
}

// KeysWithPrefix returns the cached keys that start with prefix.
func (c *Cache) KeysWithPrefix(prefix string) []Key {
	var out []Key
	for _, k := range c.Keys() {
		if strings.HasPrefix(string(k), prefix) {
			out = append(out, k)
		}
	}
	return out
}

// Snapshot captures the current state of key.
func (c *Cache) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	return Snapshot{Key: key, entry: e, present: ok}
}

// Restore puts key back into exactly the state captured by s.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	c.gen++
	if s.present {
		e := s.entry
		e.gen = c.gen
		c.entries.Add(s.Key, e)
		delete(c.removed, s.Key)
	} else if c.entries.Remove(s.Key) {
		c.removed[s.Key] = c.gen
	}
	c.mu.Unlock()
	c.notify(s.Key)
}

// Pin stops Fetch from refetching or overwriting the given keys until the
// returned function is called. Pins nest.
func (c *Cache) Pin(keys ...Key) (unpin func()) {
	c.mu.Lock()
	for _, k := range keys {
		c.pins[k]++
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for _, k := range keys {
				if c.pins[k] <= 1 {
					delete(c.pins, k)
				} else {
					c.pins[k]--
				}
			}
		})
	}
}

// IsFresh reports whether key holds a value that Fetch would serve as is.
func (c *Cache) IsFresh(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	return ok && c.freshLocked(e)
}

// Fetch returns the value of key, calling fn when the cached value is missing
// or stale. Concurrent fetches of one key share a single call of fn. A fetch
// result is not written when the key was written, invalidated or removed
// after the fetch started, or when the key is pinned; the fetched data is
// still returned to the caller.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries.Get(key); ok && (c.pins[key] > 0 || c.freshLocked(e)) {
		c.mu.Unlock()
		observability.QueryCacheLookups.WithLabelValues("hit").Inc()
		return e.data, nil
	}
	c.mu.Unlock()

	v, err, shared := c.flight.Do(string(key), func() (any, error) {
		c.mu.Lock()
		startGen := c.gen
		c.mu.Unlock()

		data, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		written := false
		if c.pins[key] == 0 && !c.touchedSinceLocked(key, startGen) {
			c.putLocked(key, data, false)
			written = true
		}
		c.mu.Unlock()
		if written {
			c.notify(key)
		}
		return data, nil
	})
	if shared {
		observability.QueryCacheLookups.WithLabelValues("shared").Inc()
	} else {
		observability.QueryCacheLookups.WithLabelValues("miss").Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return v, nil
}

// Watch registers fn to be called after every change to key.
func (c *Cache) Watch(key Key, fn func(Key)) (cancel func()) {
	c.mu.Lock()
	c.nextWatch++
	id := c.nextWatch
	if c.watchers[key] == nil {
		c.watchers[key] = make(map[uint64]func(Key))
	}
	c.watchers[key][id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers[key], id)
		if len(c.watchers[key]) == 0 {
			delete(c.watchers, key)
		}
	}
}

// Observed reports whether key has at least one watcher.
func (c *Cache) Observed(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers[key]) > 0
}

func (c *Cache) putLocked(key Key, data any, stale bool) {
	c.gen++
	delete(c.removed, key)
	c.entries.Add(key, entry{data: data, updatedAt: c.now(), stale: stale, gen: c.gen})
}

// touchedSinceLocked reports whether key was written, invalidated or removed
// after generation gen.
func (c *Cache) touchedSinceLocked(key Key, gen uint64) bool {
	if e, ok := c.entries.Peek(key); ok {
		return e.gen > gen
	}
	return c.removed[key] > gen
}

func (c *Cache) freshLocked(e entry) bool {
	return !e.stale && c.now().Sub(e.updatedAt) < c.staleTime
}

func (c *Cache) notify(key Key) {
	c.mu.Lock()
	fns := make([]func(Key), 0, len(c.watchers[key]))
	for _, fn := range c.watchers[key] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}
