package partition

import (
	"testing"

	"github.com/rawblock/coinjoin-unlinkability/internal/bloomfilter"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

func TestTupleIteratorYieldsNothingForSmallSets(t *testing.T) {
	for _, set := range []models.Set{{}, {5}} {
		it := NewTupleIterator(set)
		if _, _, _, _, ok := it.Next(); ok {
			t.Errorf("expected no tuples for set %v", set)
		}
	}
}

// TestTupleIteratorExactOutput checks the concrete 3-element scenario:
// the anchor element always lands in L, and each of the 2^(n-1)-1
// non-trivial splits is produced exactly once, with the index pair
// always matching the original positions of the values it carries.
func TestTupleIteratorExactOutput(t *testing.T) {
	original := models.Set{1, 2, 3}
	it := NewTupleIterator(original)
	var results [][2]models.Set
	for {
		l, r, lIdx, rIdx, ok := it.Next()
		if !ok {
			break
		}
		for i, idx := range lIdx {
			if l[i] != original[idx] {
				t.Errorf("left index %d does not point at value %d", idx, l[i])
			}
		}
		for i, idx := range rIdx {
			if r[i] != original[idx] {
				t.Errorf("right index %d does not point at value %d", idx, r[i])
			}
		}
		results = append(results, [2]models.Set{l, r})
	}
	if len(results) != 3 { // 2^(3-1)-1 = 3
		t.Fatalf("expected 3 tuples, got %d", len(results))
	}
	for _, pair := range results {
		if pair[0][0] != 1 {
			t.Errorf("expected anchor element 1 to always be in L, got %v", pair[0])
		}
		if pair[0].Sum()+pair[1].Sum() != 6 {
			t.Errorf("expected L and R to partition the full sum, got %v / %v", pair[0], pair[1])
		}
	}
}

func bellNumbers() []int {
	return []int{1, 1, 2, 5, 15, 52}
}

// TestSumFilteredPartitionIteratorBellNumbers checks the Bell-number
// partition-count invariant: with an unfiltered AlwaysFilter, the
// number of partitions produced for a set of size n equals Bell(n).
func TestSumFilteredPartitionIteratorBellNumbers(t *testing.T) {
	bell := bellNumbers()
	for n := 1; n <= 5; n++ {
		set := make(models.Set, n)
		for i := range set {
			set[i] = uint64(i + 1)
		}
		partitions := All(set, bloomfilter.AlwaysFilter{})
		if len(partitions) != bell[n] {
			t.Errorf("n=%d: expected %d partitions, got %d", n, bell[n], len(partitions))
		}
	}
}

// TestSumFilteredPartitionIteratorFiltersAdmissibility is the concrete
// filtered scenario: a reference filter that only admits the full-set
// sum must collapse the iterator down to the single trivial partition.
func TestSumFilteredPartitionIteratorFiltersAdmissibility(t *testing.T) {
	set := models.Set{1, 2, 3}
	filter := bloomfilter.NewSubsetSumsFilter(models.Set{6})
	partitions := All(set, filter)
	if len(partitions) != 1 {
		t.Fatalf("expected only the trivial partition to survive, got %d: %v", len(partitions), partitions)
	}
	if len(partitions[0]) != 1 || partitions[0][0].Sum() != 6 {
		t.Errorf("expected the trivial whole-set partition, got %v", partitions[0])
	}
}

// TestSumFilteredPartitionIteratorAdmitsEveryPart checks the other
// concrete scenario: an AlwaysFilter-equivalent reference (every
// subset sum of the set itself admitted) lets every partition through
// for a small set where all part-sums are distinct.
func TestSumFilteredPartitionIteratorAdmitsEveryPart(t *testing.T) {
	set := models.Set{1, 2, 3}
	filter := bloomfilter.NewSubsetSumsFilter(set)
	partitions := All(set, filter)
	if len(partitions) != bellNumbers()[3] {
		t.Errorf("expected all %d partitions admitted, got %d", bellNumbers()[3], len(partitions))
	}
}

// TestAllIndexedTracksDuplicateValues is the duplicate-valued-coin
// scenario: with two coins of equal value at different indices,
// AllIndexed must still report, for every yielded partition, an index
// partition whose values (looked up against the original set) agree
// exactly with the value partition — not just up to interchangeable
// equal-valued coins.
func TestAllIndexedTracksDuplicateValues(t *testing.T) {
	set := models.Set{5, 5, 1}
	results := AllIndexed(set, bloomfilter.AlwaysFilter{})
	if len(results) != bellNumbers()[3] {
		t.Fatalf("expected %d partitions, got %d", bellNumbers()[3], len(results))
	}
	for _, r := range results {
		if len(r.Partition) != len(r.Indices) {
			t.Fatalf("partition has %d parts but index-partition has %d", len(r.Partition), len(r.Indices))
		}
		seen := make(map[int]bool)
		for partIdx, part := range r.Partition {
			idxPart := r.Indices[partIdx]
			if len(part) != len(idxPart) {
				t.Fatalf("part %d has %d values but %d indices", partIdx, len(part), len(idxPart))
			}
			for i, value := range part {
				originalIdx := idxPart[i]
				if seen[originalIdx] {
					t.Fatalf("index %d claimed by more than one position", originalIdx)
				}
				seen[originalIdx] = true
				if set[originalIdx] != value {
					t.Errorf("index %d points at value %d, want %d", originalIdx, set[originalIdx], value)
				}
			}
		}
		if len(seen) != len(set) {
			t.Errorf("expected every original index to be claimed exactly once, got %d of %d", len(seen), len(set))
		}
	}
}
