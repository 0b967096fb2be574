// Package bloom implements a space-efficient probabilistic set membership
// filter used to pre-filter definite cache misses before an expensive exact
// lookup (map access plus lock acquisition).
//
// It uses the double-hashing technique of Kirsch and Mitzenmacher: two
// independent 64-bit hashes derive k bit positions via
// h(i) = h1 + i*h2 mod m, avoiding the cost of k independent hash functions.
package bloom

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
	"sync"
)

// Sentinel errors.
var (
	// ErrZeroN is returned when n (expected element count) is zero.
	ErrZeroN = errors.New("bloom: n must be positive")
	// ErrInvalidFP is returned when fp is not in the open interval (0, 1).
	ErrInvalidFP = errors.New("bloom: fp must be in the open interval (0, 1)")
)

// bitsPerWord is the number of bits in each uint64 word.
const bitsPerWord = 64

// ln2Squared is ln(2) squared, used in the optimal bit-array size formula.
const ln2Squared = math.Ln2 * math.Ln2

// Filter is a thread-safe Bloom filter.
type Filter struct {
	mu   sync.RWMutex
	bits []uint64
	m    uint
	k    uint
}

// NewWithEstimates creates a Bloom filter sized for n expected elements at a
// false-positive rate of fp.
func NewWithEstimates(n uint, fp float64) (*Filter, error) {
	if n == 0 {
		return nil, ErrZeroN
	}

	if fp <= 0 || fp >= 1 {
		return nil, ErrInvalidFP
	}

	m := optimalM(n, fp)
	k := optimalK(m, n)
	words := (m + bitsPerWord - 1) / bitsPerWord

	return &Filter{bits: make([]uint64, words), m: m, k: k}, nil
}

// Add inserts data into the filter.
func (f *Filter) Add(data []byte) {
	h1, h2 := hashKernel(data)

	f.mu.Lock()
	setBits(f.bits, f.m, f.k, h1, h2)
	f.mu.Unlock()
}

// Test reports whether data is possibly in the filter. false is a
// guarantee the element was never added; true is subject to the
// configured false-positive rate.
func (f *Filter) Test(data []byte) bool {
	h1, h2 := hashKernel(data)

	f.mu.RLock()
	defer f.mu.RUnlock()

	return testBits(f.bits, f.m, f.k, h1, h2)
}

// Reset clears the filter without reallocating the bit array.
func (f *Filter) Reset() {
	f.mu.Lock()
	for i := range f.bits {
		f.bits[i] = 0
	}
	f.mu.Unlock()
}

func setBits(arr []uint64, m, k uint, h1, h2 uint64) {
	for i := range k {
		pos := (h1 + uint64(i)*h2) % uint64(m)
		arr[pos/bitsPerWord] |= 1 << (pos % bitsPerWord)
	}
}

func testBits(arr []uint64, m, k uint, h1, h2 uint64) bool {
	for i := range k {
		pos := (h1 + uint64(i)*h2) % uint64(m)
		if arr[pos/bitsPerWord]&(1<<(pos%bitsPerWord)) == 0 {
			return false
		}
	}

	return true
}

// optimalM computes m = ceil(-n * ln(fp) / ln(2)^2).
func optimalM(n uint, fp float64) uint {
	return uint(math.Ceil(-float64(n) * math.Log(fp) / ln2Squared))
}

// optimalK computes k = round(m/n * ln(2)), floored at 1.
func optimalK(m, n uint) uint {
	k := uint(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		return 1
	}

	return k
}

// hashKernel derives two independent 64-bit hashes from data using FNV-128a,
// splitting the digest in half. The second half is forced odd so its step
// through the bit array never shares the factor 2 with an even m.
func hashKernel(data []byte) (h1, h2 uint64) {
	h := fnv.New128a()
	_, _ = h.Write(data)
	sum := h.Sum(nil)

	h1 = binary.BigEndian.Uint64(sum[:8])
	h2 = binary.BigEndian.Uint64(sum[8:])
	h2 |= 1

	return h1, h2
}
