package khf

import "github.com/bits-and-blooms/bitset"

// span is a maximal contiguous run of identifiers, half-open [Start, End).
type span struct {
	Start uint64
	End   uint64
}

// updateSet tracks the identifiers updated since the last commit. Pending
// identifiers are dense, non-negative, and bounded by the forest's current
// domain, which is exactly the shape github.com/bits-and-blooms/bitset
// targets: O(1) insert/contains and a cheap NextSet-driven walk for the
// maximal-run decomposition Commit needs.
type updateSet struct {
	bits *bitset.BitSet
	n    int
}

func newUpdateSet() *updateSet {
	return &updateSet{bits: bitset.New(0)}
}

// Insert adds x to the set.
func (s *updateSet) Insert(x uint64) {
	if !s.bits.Test(uint(x)) {
		s.n++
	}
	s.bits.Set(uint(x))
}

// Contains reports whether x is pending.
func (s *updateSet) Contains(x uint64) bool {
	return s.bits.Test(uint(x))
}

// Len returns the number of pending identifiers.
func (s *updateSet) Len() int {
	return s.n
}

// Max returns the largest pending identifier. Callers must not call this on
// an empty set.
func (s *updateSet) Max() uint64 {
	// bitset iterates in ascending order; the last hit is the maximum.
	var max uint64
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		max = uint64(i)
	}
	return max
}

// FullyCovers reports whether the set is exactly {0, 1, ..., n-1}. For
// n == 0 it reports true whatever the set holds.
func (s *updateSet) FullyCovers(n uint64) bool {
	if n == 0 {
		return true
	}
	if uint64(s.n) != n {
		return false
	}
	return s.Max() < n
}

// RemoveAtLeast drops every pending identifier >= floor.
func (s *updateSet) RemoveAtLeast(floor uint64) {
	for i, ok := s.bits.NextSet(uint(floor)); ok; i, ok = s.bits.NextSet(i + 1) {
		s.bits.Clear(i)
		s.n--
	}
}

// RemoveRange drops every pending identifier in [start, end).
func (s *updateSet) RemoveRange(start, end uint64) {
	if start >= end {
		return
	}
	for i, ok := s.bits.NextSet(uint(start)); ok && uint64(i) < end; i, ok = s.bits.NextSet(i + 1) {
		s.bits.Clear(i)
		s.n--
	}
}

// Clear empties the set.
func (s *updateSet) Clear() {
	s.bits = bitset.New(0)
	s.n = 0
}

// Sorted returns the pending identifiers in ascending order.
func (s *updateSet) Sorted() []uint64 {
	if s.n == 0 {
		return nil
	}
	out := make([]uint64, 0, s.n)
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, uint64(i))
	}
	return out
}

// Runs decomposes the pending identifiers into maximal contiguous runs,
// each a half-open [start, end), in ascending order.
func (s *updateSet) Runs() []span {
	if s.n == 0 {
		return nil
	}
	var runs []span
	var start, prev uint64
	first := true
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		x := uint64(i)
		switch {
		case first:
			first = false
			start = x
		case x == prev+1:
			// still inside the current run
		default:
			runs = append(runs, span{Start: start, End: prev + 1})
			start = x
		}
		prev = x
	}
	runs = append(runs, span{Start: start, End: prev + 1})
	return runs
}
