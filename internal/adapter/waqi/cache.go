package waqi

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedClient wraps an AirQualitySource with a time-boxed, size-bounded cache.
type CachedClient struct {
	inner   domain.AirQualitySource
	cache   *ttlCache
	metrics *observability.Metrics
}

// NewCachedClient creates a cache decorator. Entries older than ttl are
// treated as misses; at most maxEntries locations are kept.
func NewCachedClient(inner domain.AirQualitySource, ttl time.Duration, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		inner:   inner,
		cache:   newTTLCache(ttl, maxEntries, clock),
		metrics: metrics,
	}
}

func (c *CachedClient) Fetch(ctx context.Context, location string) (domain.Reading, error) {
	reading, res := c.cache.get(location)
	c.metrics.AirQualityCache.WithLabelValues(string(res)).Inc()
	if res == lookupHit {
		return reading, nil
	}

	reading, err := c.inner.Fetch(ctx, location)
	if err != nil {
		return reading, err
	}
	// Only cache "ok" readings so an unknown station or a transient upstream
	// error is asked again on the next render.
	if reading.OK() {
		c.cache.put(location, reading)
	}
	return reading, nil
}

type lookupResult string

const (
	lookupHit   lookupResult = "hit"
	lookupMiss  lookupResult = "miss"
	lookupStale lookupResult = "stale"
)

// ttlCache is a thread-safe LRU cache whose entries expire ttl after they
// were stored. Expiry is checked when an entry is read.
type ttlCache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key      string
	value    domain.Reading
	storedAt time.Time
	prev     *entry
	next     *entry
}

func newTTLCache(ttl time.Duration, maxEntries int, clock clockwork.Clock) *ttlCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ttlCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *ttlCache) get(key string) (domain.Reading, lookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Reading{}, lookupMiss
	}
	if c.clock.Since(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.remove(e)
		return domain.Reading{}, lookupStale
	}
	c.moveToFront(e)
	return e.value, lookupHit
}

func (c *ttlCache) put(key string, value domain.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.storedAt = now
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, storedAt: now}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *ttlCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ttlCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *ttlCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *ttlCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *ttlCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
