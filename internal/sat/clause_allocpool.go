package sat

import (
	"math/bits"
	"sync"
)

// Number of slice pools.
const nPools = 4

// The minimum capacity for slices in the last pool.
const lastCapa = 1 << nPools

// Pools of literal slices backing the clauses. Pool i serves requests for a
// capacity in [2^i, 2^(i+1)-1] with slices of capacity 2^(i+1). The last pool
// has no upper bound; its slices are checked against the requested capacity.
var pools = [nPools]sync.Pool{}

// pid returns the ID of the smallest pool that can serve a slice of the
// requested capacity.
func pid(capa int) int {
	if lastCapa <= capa {
		return nPools - 1
	}
	return max(bits.Len(uint(capa))-1, 0)
}

// freePID returns the pool a released slice of the given capacity belongs to,
// that is the last pool whose requests it can all serve. It returns -1 if the
// slice is too small for any pool.
func freePID(capa int) int {
	return min(bits.Len(uint(capa+1))-2, nPools-1)
}

// allocSlice returns an empty slice that has at least the requested capacity.
func allocSlice(capa int) *[]Literal {
	pid := pid(capa)

	ref := pools[pid].Get()
	if ref != nil && capa <= cap(*ref.(*[]Literal)) {
		return ref.(*[]Literal)
	}

	if pid < nPools-1 {
		s := make([]Literal, 0, 2<<pid)
		return &s
	}

	if capa <= lastCapa*2 {
		s := make([]Literal, 0, lastCapa*2)
		return &s
	}

	s := make([]Literal, 0, capa)
	return &s
}

// freeSlice returns the reference slice so that it can be allocated to another
// clause via allocSlice.
func freeSlice(s *[]Literal) {
	*s = (*s)[:0] // reset the size
	if pid := freePID(cap(*s)); pid >= 0 {
		pools[pid].Put(s)
	}
}
