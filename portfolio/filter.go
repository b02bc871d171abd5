package portfolio

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers the clauses it has seen. Probabilistic filters may
// report an unseen clause as a duplicate, never the opposite.
type Filter interface {
	// Register returns true if the clause is new, and records it.
	Register(clause []int) bool

	// Reset forgets every clause.
	Reset()
}

// FilterKind names a Filter implementation.
type FilterKind string

const (
	FilterHash  FilterKind = "hash"
	FilterBloom FilterKind = "bloom"
	FilterExact FilterKind = "exact"
)

// FilterOptions configures the bloom filters.
type FilterOptions struct {
	BloomCapacity uint
	BloomFPRate   float64
}

// NewFilter returns an empty filter of the given kind.
func NewFilter(kind FilterKind, ops FilterOptions) (Filter, error) {
	switch kind {
	case FilterHash:
		return newHashFilter(), nil
	case FilterBloom:
		if ops.BloomCapacity == 0 || ops.BloomFPRate <= 0 || ops.BloomFPRate >= 1 {
			return nil, fmt.Errorf("invalid bloom filter options %+v", ops)
		}
		return newBloomFilter(ops.BloomCapacity, ops.BloomFPRate), nil
	case FilterExact:
		return newExactFilter(), nil
	default:
		return nil, fmt.Errorf("unknown filter kind %q", kind)
	}
}

// Primes used by the commutative hashes of hashFilter.
var hashPrimes = [...]int64{
	2038072819, 2038073287, 2038073761, 2038074317,
	2038072823, 2038073321, 2038073767, 2038074319,
	2038072847, 2038073341, 2038073789, 2038074329,
}

// Size of the hashFilter's bit set (about 3.2MB).
const hashBits = 26843543

// hashFilter registers four order-independent hashes of each clause in a bit
// set. Unit clauses are always new.
type hashFilter struct {
	bits *bitset.BitSet
}

func newHashFilter() *hashFilter {
	return &hashFilter{bits: bitset.New(hashBits)}
}

// commutativeHash returns the which-th hash of clause. The literals' order
// does not change the result.
func commutativeHash(clause []int, which int64) uint {
	var h int64
	for _, l := range clause {
		lit := int64(l)
		p := (which * lit) % int64(len(hashPrimes))
		if p < 0 {
			p = -p
		}
		h ^= lit * hashPrimes[p]
	}
	return uint(uint64(h) % hashBits)
}

func (f *hashFilter) Register(clause []int) bool {
	if len(clause) == 1 {
		return true
	}

	var hashes [4]uint
	seen := true
	for i := range hashes {
		hashes[i] = commutativeHash(clause, int64(i+1))
		seen = seen && f.bits.Test(hashes[i])
	}
	if seen {
		return false
	}
	for _, h := range hashes {
		f.bits.Set(h)
	}
	return true
}

func (f *hashFilter) Reset() {
	f.bits.ClearAll()
}

// bloomFilter inserts each literal of the clauses in a bloom filter. A
// clause is a duplicate when all its literals are present, so it filters
// aggressively: sharing is best effort.
type bloomFilter struct {
	bf  *bloom.BloomFilter
	buf []byte
}

func newBloomFilter(capacity uint, fpRate float64) *bloomFilter {
	return &bloomFilter{bf: bloom.NewWithEstimates(capacity, fpRate)}
}

func (f *bloomFilter) key(l int) []byte {
	f.buf = binary.LittleEndian.AppendUint32(f.buf[:0], uint32(int32(l)))
	return f.buf
}

func (f *bloomFilter) Register(clause []int) bool {
	seen := true
	for _, l := range clause {
		if !f.bf.Test(f.key(l)) {
			seen = false
			break
		}
	}
	if seen {
		return false
	}
	for _, l := range clause {
		f.bf.Add(f.key(l))
	}
	return true
}

func (f *bloomFilter) Reset() {
	f.bf.ClearAll()
}

// exactFilter stores the sorted literals of each clause.
type exactFilter struct {
	seen map[string]struct{}
	buf  []int
}

func newExactFilter() *exactFilter {
	return &exactFilter{seen: map[string]struct{}{}}
}

func (f *exactFilter) Register(clause []int) bool {
	f.buf = append(f.buf[:0], clause...)
	slices.Sort(f.buf)

	key := make([]byte, 0, 4*len(f.buf))
	for _, l := range f.buf {
		key = binary.LittleEndian.AppendUint32(key, uint32(int32(l)))
	}

	if _, ok := f.seen[string(key)]; ok {
		return false
	}
	f.seen[string(key)] = struct{}{}
	return true
}

func (f *exactFilter) Reset() {
	clear(f.seen)
}
