/* cache.go
 * Short-TTL cache of per-fixture event lists. Avoids re-fetching events for
 * a fixture that was already polled inside the observation window. Owned by
 * the single dispatch loop; the mutex guards the daily refresh task and the
 * status endpoint reading Len concurrently.
 */

package footballapi

import (
	"sync"
	"time"
)

// DefaultEventTTL is how long a cached event list stays fresh.
const DefaultEventTTL = 45 * time.Second

type cacheEntry struct {
	events    []Event
	fetchedAt time.Time
}

// EventCache caches event lists per fixture id with a fixed TTL.
type EventCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]cacheEntry

	now func() time.Time
}

// NewEventCache creates a cache with the given TTL. A non-positive TTL
// falls back to DefaultEventTTL.
func NewEventCache(ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventCache{
		ttl:     ttl,
		entries: make(map[int64]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached event list for a fixture, or false on a miss or
// an expired entry.
func (c *EventCache) Get(fixtureID int64) ([]Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fixtureID]
	if !ok || c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return e.events, true
}

// Put stores an event list for a fixture.
func (c *EventCache) Put(fixtureID int64, events []Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fixtureID] = cacheEntry{events: events, fetchedAt: c.now()}
}

// Evict removes every cached fixture not present in activeIDs, bounding
// cache growth across a matchday. Invoked once per dispatch cycle.
func (c *EventCache) Evict(activeIDs []int64) {
	active := make(map[int64]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.entries {
		if !active[id] {
			delete(c.entries, id)
		}
	}
}

// Len returns the number of cached fixtures, expired entries included.
func (c *EventCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
