package partition

import "github.com/rawblock/coinjoin-unlinkability/pkg/models"

// SumFilteredPartitionIterator lazily walks every partition of a
// multiset S whose parts' sums are all admitted by a Filter, each
// partition produced exactly once — §4.6, the heart of the search.
//
// It is a nested self-referential iterator: each instance owns a
// TupleIterator over S, the current left split L with its cached sum,
// and a nested SumFilteredPartitionIterator recursing on the complement
// R with the same filter, which is polled only when the filter admits L. Ownership
// is a tree, never a cycle — every nested iterator belongs exclusively
// to its parent.
//
// Every value-level split is mirrored by an index-level split (see
// TupleIterator), so each yielded partition carries, part for part, the
// original indices its elements came from.
type SumFilteredPartitionIterator struct {
	set    models.Set
	filter models.Filter

	tuples *TupleIterator

	left     models.Set
	leftIdx  []int
	leftSum  uint64
	hasLeft  bool

	right *SumFilteredPartitionIterator

	indices []int
}

// New constructs the iterator over set, filtered by filter. If set has
// fewer than two elements the iterator yields only the trivial
// partition {set}.
func New(set models.Set, filter models.Filter) *SumFilteredPartitionIterator {
	return newIndexed(set, identityIndices(len(set)), filter)
}

// newIndexed is New, but accepting the original-index tagging a nested
// recursive call needs to carry instead of restarting from 0.
func newIndexed(set models.Set, indices []int, filter models.Filter) *SumFilteredPartitionIterator {
	it := &SumFilteredPartitionIterator{
		set:     set,
		filter:  filter,
		indices: indices,
		tuples:  newTupleIteratorIndexed(set, indices),
	}
	left, right, leftIdx, rightIdx, ok := it.tuples.Next()
	if !ok {
		it.left = set
		it.leftIdx = indices
		it.leftSum = set.Sum()
		it.hasLeft = true
		return it
	}
	it.left = left
	it.leftIdx = leftIdx
	it.leftSum = left.Sum()
	it.hasLeft = true
	it.right = newIndexed(right, rightIdx, filter)
	return it
}

type stepResult int

const (
	stepEnd stepResult = iota
	stepSkip
	stepElement
)

// step performs one logical advance of the state machine, returning
// which of (Element, Skip, End) happened and, for Element, the
// partition produced together with its index-partition companion. Skip
// lets the public Next re-poll without yielding; every Skip strictly
// shrinks the remaining tuple/nested state so the caller's loop always
// terminates.
func (it *SumFilteredPartitionIterator) step() (stepResult, models.Partition, [][]int) {
	if !it.hasLeft {
		return stepEnd, nil, nil
	}
	if !it.filter.Contains(it.leftSum) {
		left, right, leftIdx, rightIdx, ok := it.tuples.Next()
		if !ok {
			it.hasLeft = false
			it.right = nil
			if it.filter.Contains(it.set.Sum()) {
				return stepElement, models.Partition{it.set.Clone()}, [][]int{cloneIndices(it.indices)}
			}
			return stepEnd, nil, nil
		}
		it.left = left
		it.leftIdx = leftIdx
		it.leftSum = left.Sum()
		it.right = newIndexed(right, rightIdx, it.filter)
		return stepSkip, nil, nil
	}

	var rightPartition models.Partition
	var rightIndices [][]int
	var rightOK bool
	if it.right != nil {
		rightPartition, rightIndices, rightOK = it.right.next()
	}
	if rightOK {
		extended := append(models.Partition{}, rightPartition...)
		extended = append(extended, it.left)
		extendedIdx := append([][]int{}, rightIndices...)
		extendedIdx = append(extendedIdx, it.leftIdx)
		return stepElement, extended, extendedIdx
	}

	left, right, leftIdx, rightIdx, ok := it.tuples.Next()
	if !ok {
		it.hasLeft = false
		it.right = nil
		// The trivial partition is emitted here without re-testing
		// filter.Contains(sum(S)): when filter is a SubsetSumsFilter-style
		// filter, every previously admitted L already proved sum(S) is
		// reachable, so this is sound for that filter family. Callers
		// using an arbitrary Filter should not rely on this path admitting
		// sum(S) unconditionally — see the open question this mirrors in
		// the reference design.
		return stepElement, models.Partition{it.set.Clone()}, [][]int{cloneIndices(it.indices)}
	}
	it.left = left
	it.leftIdx = leftIdx
	it.leftSum = left.Sum()
	it.right = newIndexed(right, rightIdx, it.filter)
	return stepSkip, nil, nil
}

func cloneIndices(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	return out
}

// next is the index-carrying counterpart of Next, used internally by a
// parent iterator reading from its nested right-hand recursion.
func (it *SumFilteredPartitionIterator) next() (models.Partition, [][]int, bool) {
	for {
		result, partition, indices := it.step()
		switch result {
		case stepElement:
			return partition, indices, true
		case stepEnd:
			return nil, nil, false
		case stepSkip:
			continue
		}
	}
}

// Next returns the next admissible partition and true, or (nil, false)
// once every partition has been produced.
func (it *SumFilteredPartitionIterator) Next() (models.Partition, bool) {
	partition, _, ok := it.next()
	return partition, ok
}

// NextIndexed is Next, additionally returning the index-partition
// companion: the i-th entry of the second return value holds the
// original indices of the elements in the i-th part of the first.
func (it *SumFilteredPartitionIterator) NextIndexed() (models.Partition, [][]int, bool) {
	return it.next()
}

// All drains the iterator into a slice of partitions, discarding index
// provenance — a convenience for callers that only need values (tests,
// the simple Bell-number enumeration check).
func All(set models.Set, filter models.Filter) []models.Partition {
	results := AllIndexed(set, filter)
	out := make([]models.Partition, len(results))
	for i, r := range results {
		out[i] = r.Partition
	}
	return out
}

// Result pairs a yielded partition with the original-index partition
// that records where each of its elements came from.
type Result struct {
	Partition models.Partition
	Indices   [][]int
}

// AllIndexed drains the iterator into a slice of Results, keeping the
// index provenance All discards. The matcher needs this to build
// Mappings with true positional identity.
func AllIndexed(set models.Set, filter models.Filter) []Result {
	it := New(set, filter)
	var results []Result
	for {
		p, idx, ok := it.NextIndexed()
		if !ok {
			return results
		}
		results = append(results, Result{Partition: p, Indices: idx})
	}
}
