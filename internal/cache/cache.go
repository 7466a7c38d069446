package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodCashKey identifies one balance-sheet cash computation.
type PeriodCashKey struct {
	PropertyID int64
	PeriodID   int64
}

type cashEntry struct {
	value     decimal.Decimal
	ok        bool
	expiresAt time.Time
}

// PeriodCashCache memoizes per-period balance-sheet cash totals for the
// duration of a single reconciliation run. Constructed fresh per run;
// nothing is shared across runs.
type PeriodCashCache struct {
	mu         sync.Mutex
	entries    map[PeriodCashKey]cashEntry
	ttl        time.Duration
	maxEntries int
}

// NewPeriodCashCache builds a cache holding at most maxEntries values for
// at most ttl each. Zero maxEntries means 128.
func NewPeriodCashCache(ttl time.Duration, maxEntries int) *PeriodCashCache {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &PeriodCashCache{
		entries:    make(map[PeriodCashKey]cashEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the cached value and whether the cached computation found a
// cash total. The last return is false on cache miss.
func (c *PeriodCashCache) Get(key PeriodCashKey) (decimal.Decimal, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, hit := c.entries[key]
	if !hit {
		return decimal.Zero, false, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return decimal.Zero, false, false
	}
	return entry.value, entry.ok, true
}

// Put stores a computed cash total. When full, the oldest-expiring entry is
// evicted; the candidate set is small enough that a scan is fine.
func (c *PeriodCashCache) Put(key PeriodCashKey, value decimal.Decimal, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cashEntry{value: value, ok: ok, expiresAt: time.Now().Add(c.ttl)}
}

// Len reports the live entry count.
func (c *PeriodCashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *PeriodCashCache) evictOldestLocked() {
	var oldestKey PeriodCashKey
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = e.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
