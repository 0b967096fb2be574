// Package cache implements the two-tier analysis cache: an
// in-memory LRU (Tier 1) in front of a content-addressed, LZ4-compressed
// disk store (Tier 2). It holds the Call Graph Builder's extracted-method
// lists (keyed by file content hash) and serialized full call graphs
// (keyed by workspace fingerprint).
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/alg/lru"
)

// defaultMemoryEntries bounds Tier 1 when no override is supplied.
const defaultMemoryEntries = 512

// Tier identifies which cache level satisfied a lookup.
type Tier int

const (
	TierNone Tier = iota
	TierMemory
	TierDisk
)

// Stats reports cache-wide statistics: hits-by-tier, misses,
// average compression ratio, byte budget, and entry count.
type Stats struct {
	MemoryHits         int64   `json:"memoryHits"`
	DiskHits           int64   `json:"diskHits"`
	Misses             int64   `json:"misses"`
	EntryCount         int64   `json:"entryCount"`
	ByteBudget         int64   `json:"byteBudget"`
	BytesOnDisk        int64   `json:"bytesOnDisk"`
	AverageCompression float64 `json:"averageCompression"` // uncompressed / compressed, averaged over disk writes.
}

// Cache is a two-tier get/set/remove/clear/exists cache over opaque byte
// payloads. Tier 1 is an in-memory LRU; Tier 2 (optional) is a
// content-addressed disk store. A Cache with no disk directory configured
// operates purely in memory.
type Cache struct {
	memory *lru.Cache[string, []byte]
	disk   *diskStore // nil when no disk tier is configured.

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64

	mu                 sync.Mutex
	compressionSamples int64
	compressionTotal   float64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	memoryEntries int
	diskRoot      string
	byteBudget    int64
}

// WithMemoryEntries overrides Tier 1's entry-count bound.
func WithMemoryEntries(n int) Option {
	return func(o *options) { o.memoryEntries = n }
}

// WithDiskRoot enables Tier 2 rooted at dir.
func WithDiskRoot(dir string) Option {
	return func(o *options) { o.diskRoot = dir }
}

// WithByteBudget records an advisory byte budget surfaced via Stats; it is
// not separately enforced (the disk filesystem is the real limit).
func WithByteBudget(n int64) Option {
	return func(o *options) { o.byteBudget = n }
}

// New creates a Cache. With no WithDiskRoot, only Tier 1 is active.
func New(opts ...Option) *Cache {
	o := options{memoryEntries: defaultMemoryEntries}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache{
		memory: lru.New[string, []byte](lru.WithMaxEntries[string, []byte](o.memoryEntries)),
	}

	if o.diskRoot != "" {
		c.disk = newDiskStore(o.diskRoot, o.byteBudget)
	}

	return c
}

// Get returns the cached payload for key and which tier satisfied it. A
// disk hit is promoted into Tier 1 so the next Get is served from memory.
func (c *Cache) Get(key string) ([]byte, Tier, bool) {
	if v, ok := c.memory.Get(key); ok {
		c.memoryHits.Add(1)

		return v, TierMemory, true
	}

	if c.disk != nil {
		v, ratio, ok := c.disk.get(key)
		if ok {
			c.diskHits.Add(1)
			c.recordCompression(ratio)
			c.memory.Put(key, v)

			return v, TierDisk, true
		}
	}

	c.misses.Add(1)

	return nil, TierNone, false
}

// Exists reports whether key is present in either tier without promoting
// a disk hit into memory.
func (c *Cache) Exists(key string) bool {
	if _, ok := c.memory.Get(key); ok {
		return true
	}

	return c.disk != nil && c.disk.exists(key)
}

// Set stores value under key in Tier 1, and in Tier 2 (with ttlSeconds,
// 0 meaning no expiry) when a disk tier is configured.
func (c *Cache) Set(key string, value []byte, ttlSeconds int64) error {
	c.memory.Put(key, value)

	if c.disk == nil {
		return nil
	}

	ratio, err := c.disk.set(key, value, ttlSeconds)
	if err != nil {
		return err
	}

	c.recordCompression(ratio)

	return nil
}

// Remove evicts key from both tiers.
func (c *Cache) Remove(key string) error {
	c.memory.Remove(key)

	if c.disk == nil {
		return nil
	}

	return c.disk.remove(key)
}

// Clear empties both tiers.
func (c *Cache) Clear() error {
	c.memory.Clear()

	if c.disk == nil {
		return nil
	}

	return c.disk.clear()
}

func (c *Cache) recordCompression(ratio float64) {
	if ratio <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.compressionSamples++
	c.compressionTotal += ratio
}

// Stats returns a snapshot of the cache's running statistics.
func (c *Cache) Stats() Stats {
	s := Stats{
		MemoryHits: c.memoryHits.Load(),
		DiskHits:   c.diskHits.Load(),
		Misses:     c.misses.Load(),
		EntryCount: int64(c.memory.Len()),
	}

	c.mu.Lock()
	if c.compressionSamples > 0 {
		s.AverageCompression = c.compressionTotal / float64(c.compressionSamples)
	}
	c.mu.Unlock()

	if c.disk != nil {
		s.ByteBudget = c.disk.byteBudget
		s.BytesOnDisk = c.disk.bytesOnDisk()
	}

	return s
}
