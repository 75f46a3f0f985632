// Package partition implements the tuple enumerator and the
// sum-filtered partition iterator — the heart of the search, per §4.5
// and §4.6.
package partition

import "github.com/rawblock/coinjoin-unlinkability/pkg/models"

// TupleIterator enumerates every ordered pair (L, R) such that L ∪ R
// equals the underlying set (positional union), L ∩ R = ∅, the first
// element always lands in L (breaking the L<->R symmetry so each
// unordered 2-partition is produced exactly once), and
// 1 <= |L| <= |S|-1.
//
// Alongside each value pair it carries the matching original-index
// pair: indices[k] is the index (against the multiset first handed to
// the top-level enumerator) of set[k], and the same split that
// partitions set's values partitions indices identically. This is how
// positional identity survives the recursive split down to the final
// partition.
//
// Representation: a (|S|-1)-bit pattern over the non-anchor positions,
// each bit choosing L (0) or R (1), iterated from 1 to 2^(|S|-1)-1
// inclusive — grounded on the same bitmask-over-positions idiom as
// internal/subsetsum's Enumerator and a meet-in-the-middle split over
// fee-tolerant candidate sets.
type TupleIterator struct {
	set     models.Set
	indices []int
	pattern uint64
	max     uint64
}

// identityIndices returns [0, 1, ..., n-1], the index tagging a
// top-level enumeration starts from.
func identityIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// NewTupleIterator builds the enumerator over set, tagging each element
// with its own position as its original index. Panics if
// len(set) > models.MaxSetSize: the pattern is a uint64 bitmask.
func NewTupleIterator(set models.Set) *TupleIterator {
	return newTupleIteratorIndexed(set, identityIndices(len(set)))
}

// newTupleIteratorIndexed builds the enumerator over set, where indices
// carries the original-index provenance for each element of set (same
// length and order). Used internally so recursive splits keep
// provenance relative to the outermost multiset rather than restarting
// at 0 for every nested sub-problem.
func newTupleIteratorIndexed(set models.Set, indices []int) *TupleIterator {
	if len(set) > models.MaxSetSize {
		panic("partition: set exceeds 64-element bitmask limit")
	}
	var max uint64
	switch len(set) {
	case 0, 1:
		max = 0
	default:
		max = uint64(1)<<uint(len(set)-1) - 1
	}
	return &TupleIterator{
		set:     set,
		indices: indices,
		pattern: 1,
		max:     max,
	}
}

// Next returns the next (L, R) value pair, the matching (Lindices,
// Rindices) original-index pair, and true — or (nil, nil, nil, nil,
// false) once exhausted. Yields nothing at all for |S| < 2, and exactly
// 2^(n-1)-1 pairs for |S| = n >= 2.
func (t *TupleIterator) Next() (left, right models.Set, leftIdx, rightIdx []int, ok bool) {
	if t.pattern > t.max {
		return nil, nil, nil, nil, false
	}
	left = models.Set{t.set[0]}
	leftIdx = []int{t.indices[0]}
	for index := 1; index < len(t.set); index++ {
		if (t.pattern>>uint(index-1))&1 == 1 {
			right = append(right, t.set[index])
			rightIdx = append(rightIdx, t.indices[index])
		} else {
			left = append(left, t.set[index])
			leftIdx = append(leftIdx, t.indices[index])
		}
	}
	t.pattern++
	return left, right, leftIdx, rightIdx, true
}
