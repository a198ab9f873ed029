// Package cache holds the live alert set: one entry per dedup key, TTL
// eviction, and torn-read-free snapshots for concurrent readers.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/safeahead/hazard-alerts/internal/models"
)

// UpsertResult reports what an upsert did to the cache.
type UpsertResult int

const (
	// Inserted: the dedup key was not present before.
	Inserted UpsertResult = iota
	// Refreshed: the key existed and only its timestamps moved forward.
	Refreshed
	// Updated: the key existed and its severity, message, or location changed.
	Updated
)

type entry struct {
	alert           models.Alert
	insertedAt      time.Time
	lastRefreshedAt time.Time
}

// AlertCache maps dedup key to the single live alert for that key. Upsert
// is the only write path, which is what keeps the one-entry-per-key
// invariant structural rather than defended at runtime.
type AlertCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
}

func New(clock clockwork.Clock) *AlertCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AlertCache{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// Upsert inserts the alert or, when its dedup key is already present,
// replaces the existing entry's contents and refreshes its timestamps.
// The original insertion time survives refreshes.
func (c *AlertCache) Upsert(a models.Alert) UpsertResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now().UTC()
	prev, exists := c.entries[a.DedupKey]
	if !exists {
		c.entries[a.DedupKey] = entry{
			alert:           a,
			insertedAt:      now,
			lastRefreshedAt: now,
		}
		return Inserted
	}

	result := Refreshed
	if prev.alert.Severity != a.Severity || prev.alert.Message != a.Message ||
		prev.alert.Latitude != a.Latitude || prev.alert.Longitude != a.Longitude {
		result = Updated
	}

	c.entries[a.DedupKey] = entry{
		alert:           a,
		insertedAt:      prev.insertedAt,
		lastRefreshedAt: now,
	}
	return result
}

// EvictExpired removes every entry whose expiry has passed and returns the
// number removed. A source that stops reporting loses its alert within one
// expiry window rather than lingering forever.
func (c *AlertCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, e := range c.entries {
		if !e.alert.ExpiresAt.After(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Snapshot returns a point-in-time copy of the live alerts. Readers never
// observe a partially applied upsert; each alert is a value copy taken
// under the read lock.
func (c *AlertCache) Snapshot() []models.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()

	alerts := make([]models.Alert, 0, len(c.entries))
	for _, e := range c.entries {
		alerts = append(alerts, e.alert)
	}
	return alerts
}

func (c *AlertCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
