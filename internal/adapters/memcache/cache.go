// Package memcache provides the bounded in-memory cache layer.
package memcache

import (
	"cmp"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"go.trai.ch/wdlcache/internal/core/domain"
)

const (
	// DefaultMaxSize is the default entry-count ceiling.
	DefaultMaxSize = 100
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxMemoryUsage is the default estimated-memory ceiling in bytes.
	DefaultMaxMemoryUsage int64 = 50 * 1024 * 1024
	// DefaultCleanupInterval is the default period of the expiry sweep.
	DefaultCleanupInterval = time.Minute

	// fallbackSize is used when a value cannot be encoded for size estimation.
	fallbackSize int64 = 1024
)

// Options bounds a cache instance. Zero fields take their defaults.
type Options struct {
	MaxSize         int
	TTL             time.Duration
	MaxMemoryUsage  int64
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxMemoryUsage <= 0 {
		o.MaxMemoryUsage = DefaultMaxMemoryUsage
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	return o
}

// Stats is a point-in-time view of a cache instance.
type Stats struct {
	Size             int
	MaxSize          int
	Hits             uint64
	Misses           uint64
	HitRate          float64
	Evictions        uint64
	TotalMemoryUsage int64
	MaxMemoryUsage   int64
}

type entry[V any] struct {
	key            string
	value          V
	createdAt      time.Time
	lastAccessedAt time.Time
	accessCount    uint64
	size           int64
	// seq orders entries by last access without relying on clock resolution.
	seq uint64
}

// Cache is a TTL and size bounded cache safe for concurrent use.
type Cache[V any] struct {
	mu        sync.Mutex
	opts      Options
	entries   map[string]*entry[V]
	memory    int64
	seq       uint64
	hits      uint64
	misses    uint64
	evictions uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its expiry sweep.
func New[V any](opts Options) *Cache[V] {
	c := &Cache[V]{
		opts:    opts.withDefaults(),
		entries: make(map[string]*entry[V]),
		subs:    make(map[int]func(Event)),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Options returns the effective options of the cache.
func (c *Cache[V]) Options() Options {
	return c.opts
}

// Get returns the value stored under key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	var events []Event

	c.mu.Lock()
	e, ok := c.entries[key]
	now := time.Now()
	switch {
	case !ok:
		c.misses++
	case c.expired(e, now):
		c.removeLocked(e)
		c.evictions++
		c.misses++
		events = append(events, evictionEvent(key, ReasonTTL))
		ok = false
	default:
		c.touch(e, now)
		c.hits++
	}
	c.mu.Unlock()

	c.emit(events)
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Has reports whether key is present and not expired without counting a hit.
func (c *Cache[V]) Has(key string) bool {
	var events []Event

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.expired(e, time.Now()) {
		c.removeLocked(e)
		c.evictions++
		events = append(events, evictionEvent(key, ReasonTTL))
		ok = false
	}
	c.mu.Unlock()

	c.emit(events)
	return ok
}

// Set stores value under key, estimating its size from its JSON encoding.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithSize(key, value, 0)
}

// SetWithSize stores value under key with an explicit size estimate.
// A non-positive sizeHint falls back to the JSON estimate.
func (c *Cache[V]) SetWithSize(key string, value V, sizeHint int64) {
	size := sizeHint
	if size <= 0 {
		size = estimateSize(value)
	}

	c.mu.Lock()
	events := c.setLocked(key, value, size)
	c.mu.Unlock()

	c.emit(events)
}

func (c *Cache[V]) setLocked(key string, value V, size int64) []Event {
	var events []Event

	old, replaced := c.entries[key]
	if replaced {
		c.removeLocked(old)
	}

	if size > c.opts.MaxMemoryUsage {
		if replaced {
			events = append(events, Event{Type: EventDelete, Key: key})
		}
		c.evictions++
		return append(events, evictionEvent(key, ReasonOversize))
	}

	if len(c.entries) >= c.opts.MaxSize {
		events = append(events, c.evictOldestLocked()...)
	}

	for c.memory+size > c.opts.MaxMemoryUsage && len(c.entries) > 0 {
		lru := c.leastRecentlyUsedLocked()
		c.removeLocked(lru)
		c.evictions++
		events = append(events, evictionEvent(lru.key, ReasonMemory))
	}

	now := time.Now()
	e := &entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		size:      size,
	}
	c.touch(e, now)
	c.entries[key] = e
	c.memory += size

	return append(events, Event{Type: EventSet, Key: key})
}

// evictOldestLocked drops the least recently accessed tenth of the entries.
func (c *Cache[V]) evictOldestLocked() []Event {
	n := max(1, c.opts.MaxSize/10)

	ordered := make([]*entry[V], 0, len(c.entries))
	for _, e := range c.entries {
		ordered = append(ordered, e)
	}
	slices.SortFunc(ordered, func(a, b *entry[V]) int {
		return cmp.Compare(a.seq, b.seq)
	})

	events := make([]Event, 0, n)
	for _, e := range ordered[:min(n, len(ordered))] {
		c.removeLocked(e)
		c.evictions++
		events = append(events, evictionEvent(e.key, ReasonSize))
	}
	return events
}

func (c *Cache[V]) leastRecentlyUsedLocked() *entry[V] {
	var lru *entry[V]
	for _, e := range c.entries {
		if lru == nil || e.seq < lru.seq {
			lru = e
		}
	}
	return lru
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.removeLocked(e)
	}
	c.mu.Unlock()

	if ok {
		c.emit([]Event{{Type: EventDelete, Key: key}})
	}
	return ok
}

// Invalidate removes every entry matching pred and returns how many were removed.
func (c *Cache[V]) Invalidate(pred func(key string, value V) bool) int {
	var events []Event

	c.mu.Lock()
	for key, e := range c.entries {
		if pred(key, e.value) {
			c.removeLocked(e)
			events = append(events, Event{Type: EventDelete, Key: key})
		}
	}
	c.mu.Unlock()

	c.emit(events)
	return len(events)
}

// Cleanup removes every expired entry and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	var events []Event

	c.mu.Lock()
	now := time.Now()
	for key, e := range c.entries {
		if c.expired(e, now) {
			c.removeLocked(e)
			c.evictions++
			events = append(events, evictionEvent(key, ReasonTTL))
		}
	}
	c.mu.Unlock()

	removed := len(events)
	if removed > 0 {
		events = append(events, Event{Type: EventCleanup, Count: removed})
	}
	c.emit(events)
	return removed
}

// Clear removes every entry. Statistics are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry[V])
	c.memory = 0
	c.mu.Unlock()

	c.emit([]Event{{Type: EventClear}})
}

// Keys returns the keys of all live entries in ascending order.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if !c.expired(e, now) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:             len(c.entries),
		MaxSize:          c.opts.MaxSize,
		Hits:             c.hits,
		Misses:           c.misses,
		HitRate:          rate,
		Evictions:        c.evictions,
		TotalMemoryUsage: c.memory,
		MaxMemoryUsage:   c.opts.MaxMemoryUsage,
	}
}

// Close stops the expiry sweep, drops every entry and resets statistics.
// It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done

		c.mu.Lock()
		c.entries = make(map[string]*entry[V])
		c.memory = 0
		c.hits, c.misses, c.evictions = 0, 0, 0
		c.mu.Unlock()

		c.subMu.Lock()
		c.subs = make(map[int]func(Event))
		c.subMu.Unlock()
	})
}

func (c *Cache[V]) sweep() {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

func (c *Cache[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) > c.opts.TTL
}

func (c *Cache[V]) touch(e *entry[V], now time.Time) {
	c.seq++
	e.seq = c.seq
	e.lastAccessedAt = now
	e.accessCount++
}

func (c *Cache[V]) removeLocked(e *entry[V]) {
	delete(c.entries, e.key)
	c.memory -= e.size
}

func estimateSize(v any) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return fallbackSize
	}
	return int64(len(data))
}

// FromConfig converts the configured memory bounds into cache options.
func FromConfig(cfg domain.MemoryConfig) Options {
	return Options{
		MaxSize:         cfg.MaxSize,
		TTL:             cfg.TTL,
		MaxMemoryUsage:  cfg.MaxMemoryUsage,
		CleanupInterval: cfg.CleanupInterval,
	}
}
