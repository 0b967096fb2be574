package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/cache"
)

func TestCache_MemoryOnlyRoundTrip(t *testing.T) {
	c := cache.New()

	_, _, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("key", []byte("payload"), 0))

	v, tier, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, cache.TierMemory, tier)
	assert.Equal(t, []byte("payload"), v)
}

func TestCache_DiskTierSurvivesMemoryEviction(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(cache.WithMemoryEntries(1), cache.WithDiskRoot(dir))

	require.NoError(t, c.Set("a", []byte("aaaaaaaaaaaaaaaaaaaa"), 0))
	require.NoError(t, c.Set("b", []byte("bbbbbbbbbbbbbbbbbbbb"), 0))

	// "a" was evicted from the size-1 memory tier but survives on disk.
	v, tier, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, cache.TierDisk, tier)
	assert.Equal(t, []byte("aaaaaaaaaaaaaaaaaaaa"), v)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.DiskHits)
}

func TestCache_ExpiredEntryIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()

	writer := cache.New(cache.WithDiskRoot(dir))
	require.NoError(t, writer.Set("expiring", []byte("value"), -1))

	// A fresh instance over the same root has an empty memory tier, so
	// the read goes to disk, sees the past expiry, and misses.
	reader := cache.New(cache.WithDiskRoot(dir))

	_, _, found := reader.Get("expiring")
	assert.False(t, found)
}

func TestCache_RemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(cache.WithDiskRoot(dir))

	require.NoError(t, c.Set("key", []byte("value"), 0))
	require.NoError(t, c.Remove("key"))

	_, _, found := c.Get("key")
	assert.False(t, found)

	require.NoError(t, c.Set("another", []byte("value"), 0))
	require.NoError(t, c.Clear())

	assert.False(t, c.Exists("another"))
}
