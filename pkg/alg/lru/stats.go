package lru

// Stats holds cache performance metrics, exported via pkg/observability.
type Stats struct {
	Hits          int64
	Misses        int64
	BloomFiltered int64
	Entries       int
	CurrentSize   int64
	MaxEntries    int
	MaxSize       int64
}

// HitRate returns the cache hit rate as a fraction in [0, 1].
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		BloomFiltered: c.bloomFiltered.Load(),
		Entries:       len(c.entries),
		CurrentSize:   c.curSize,
		MaxEntries:    c.maxEntries,
		MaxSize:       c.maxSize,
	}
}
