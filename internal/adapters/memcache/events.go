package memcache

// EventType names a cache state change.
type EventType string

const (
	// EventSet is emitted after a value is stored.
	EventSet EventType = "set"
	// EventDelete is emitted after an explicit delete or invalidation.
	EventDelete EventType = "delete"
	// EventEviction is emitted when an entry is dropped by the cache itself.
	EventEviction EventType = "eviction"
	// EventCleanup is emitted after a sweep removed expired entries.
	EventCleanup EventType = "cleanup"
	// EventClear is emitted after Clear.
	EventClear EventType = "clear"
)

// EvictionReason explains an EventEviction.
type EvictionReason string

const (
	// ReasonTTL means the entry outlived the configured TTL.
	ReasonTTL EvictionReason = "ttl"
	// ReasonMemory means the entry made room under the memory ceiling.
	ReasonMemory EvictionReason = "memory"
	// ReasonSize means the entry made room under the entry-count ceiling.
	ReasonSize EvictionReason = "size"
	// ReasonOversize means the value alone exceeds the memory ceiling and was not stored.
	ReasonOversize EvictionReason = "oversize"
)

// Event describes a cache state change delivered to subscribers.
type Event struct {
	Type   EventType
	Key    string
	Reason EvictionReason
	// Count is the number of entries removed by a cleanup.
	Count int
}

func evictionEvent(key string, reason EvictionReason) Event {
	return Event{Type: EventEviction, Key: key, Reason: reason}
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes the subscription. Events are delivered synchronously, outside
// the cache lock, so fn may call back into the cache.
func (c *Cache[V]) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache[V]) emit(events []Event) {
	if len(events) == 0 {
		return
	}

	c.subMu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}
