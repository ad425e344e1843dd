package gateway

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// dedupRecord is immutable after creation; records are only ever evicted.
type dedupRecord struct {
	firstSeen time.Time
	snapshot  interface{}
}

// DedupCache suppresses duplicate delivery of the same logical event fired
// twice in quick succession. Policy: time-window first, size cap as backstop.
// When the cap is exceeded the oldest records by first-seen time are evicted
// even if their window has not expired — bounded memory takes precedence over
// full dedup-window correctness under extreme load.
type DedupCache struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	records  map[string]dedupRecord
}

func NewDedupCache(window time.Duration, capacity int) *DedupCache {
	return &DedupCache{
		window:   window,
		capacity: capacity,
		records:  make(map[string]dedupRecord),
	}
}

// TryRecord reports whether the caller should proceed with delivery. It
// returns true and records the key if the key is new or its prior record's
// window has expired; it returns false if a live record already exists.
// The capacity backstop runs on every write.
func (c *DedupCache) TryRecord(key string, now time.Time, snapshot interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, exists := c.records[key]; exists && now.Sub(rec.firstSeen) < c.window {
		return false
	}
	c.records[key] = dedupRecord{firstSeen: now, snapshot: snapshot}
	c.enforceCapLocked()
	return true
}

// EvictExpired removes records whose window has elapsed and returns the count.
func (c *DedupCache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, rec := range c.records {
		if now.Sub(rec.firstSeen) >= c.window {
			delete(c.records, key)
			evicted++
		}
	}
	return evicted
}

// EnforceCap applies the capacity backstop and returns the number evicted.
func (c *DedupCache) EnforceCap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enforceCapLocked()
}

func (c *DedupCache) enforceCapLocked() int {
	if c.capacity <= 0 || len(c.records) <= c.capacity {
		return 0
	}
	type entry struct {
		key       string
		firstSeen time.Time
	}
	all := make([]entry, 0, len(c.records))
	for key, rec := range c.records {
		all = append(all, entry{key, rec.firstSeen})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].firstSeen.Before(all[j].firstSeen)
	})
	evicted := 0
	for _, e := range all {
		if len(c.records) <= c.capacity {
			break
		}
		delete(c.records, e.key)
		evicted++
	}
	return evicted
}

// Len returns the current record count.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// DedupKey derives the cache key for one logical event: the event name, a
// correlating ID and the coarse time bucket the event fell into. Bucket
// granularity is a tunable; two distinct events sharing a correlating ID
// across a bucket boundary are treated as distinct.
func DedupKey(event, correlatingID string, now time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Second
	}
	return event + "-" + correlatingID + "-" + strconv.FormatInt(now.Truncate(bucket).Unix(), 10)
}

// Correlator extracts a stable correlating ID from an admin-notification
// payload. Well-known identifying fields are preferred; otherwise a sorted
// key-value rendering of the payload keeps identical payloads identical.
func Correlator(payload map[string]interface{}) string {
	for _, field := range []string{"id", "withdrawId", "contractId", "listingId", "userId"} {
		if v, ok := payload[field]; ok {
			return fmt.Sprintf("%s=%v", field, v)
		}
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += fmt.Sprintf("%s=%v;", k, payload[k])
	}
	return out
}
